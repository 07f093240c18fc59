/*
 * Copyright (c) 2026, the Node Engine authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package registry

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/nodeengine/engine/internal/flow/harness"
	"github.com/nodeengine/engine/internal/flow/model"
)

// engineSymbols exposes the packages an interpreted "code" component needs
// to implement harness.Component, the yaegi equivalent of a regular Go
// import. Interpreted code is trusted exactly as if it were compiled in -
// the registry performs no sandboxing, matching the ambient trust the
// registration format already assumes.
var engineSymbols = interp.Exports{
	"github.com/nodeengine/engine/internal/flow/harness/harness": {
		"ComponentBase": reflect.ValueOf((*harness.ComponentBase)(nil)),
		"ComponentInfo": reflect.ValueOf((*harness.ComponentInfo)(nil)),
	},
	"github.com/nodeengine/engine/internal/flow/model/model": {
		"FlowStep":       reflect.ValueOf((*model.FlowStep)(nil)),
		"FlowComponent":  reflect.ValueOf((*model.FlowComponent)(nil)),
		"FlowDefinition": reflect.ValueOf((*model.FlowDefinition)(nil)),
		"ExitKey":        reflect.ValueOf(model.ExitKey),
	},
}

var packageNamePattern = regexp.MustCompile(`(?m)^package\s+(\w+)`)

// loadCode interprets reg's literal Go source with an in-process yaegi
// session and instantiates Config.Class from it. The interpreted package
// must export a constructor matching
// New<ClassName>(*harness.ComponentBase) (harness.Component, error).
func loadCode(reg *model.ComponentRegistration, base *harness.ComponentBase) (harness.Component, error) {
	source := reg.Config.Code
	if source == "" {
		return nil, fmt.Errorf("code registration %q has no source", reg.Key)
	}

	packageName := "main"
	if m := packageNamePattern.FindStringSubmatch(source); len(m) == 2 {
		packageName = m[1]
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load standard library symbols: %w", err)
	}
	if err := i.Use(engineSymbols); err != nil {
		return nil, fmt.Errorf("failed to load engine symbols: %w", err)
	}

	if _, err := i.Eval(source); err != nil {
		return nil, fmt.Errorf("failed to interpret code for %q: %w", reg.Key, err)
	}

	constructorName := fmt.Sprintf("%s.New%s", packageName, reg.Config.Class)
	v, err := i.Eval(constructorName)
	if err != nil {
		return nil, fmt.Errorf("constructor %s not found in interpreted code: %w", constructorName, err)
	}

	ctor, ok := v.Interface().(func(*harness.ComponentBase) (harness.Component, error))
	if !ok {
		return nil, fmt.Errorf("constructor %s has an unexpected signature", constructorName)
	}
	return ctor(base)
}
