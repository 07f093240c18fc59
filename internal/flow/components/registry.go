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

// Package components is the compile-time constructor registry the "module"
// registration type resolves against: a statically-linked systems language
// cannot import a module by name at runtime, so each class_name the registry
// can name is instead a Go constructor registered here at process start.
package components

import (
	"fmt"
	"sync"

	"github.com/nodeengine/engine/internal/flow/harness"
)

// Constructor builds a component instance from its harness base and raw (not
// yet template-evaluated) registration config.
type Constructor func(base *harness.ComponentBase) (harness.Component, error)

// Registry is a name -> Constructor lookup, keyed by a registration's class_name.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a constructor under class. A duplicate registration is a
// programming error caught at process start, so it panics rather than silently
// shadowing the first registration.
func (r *Registry) Register(class string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.constructors[class]; exists {
		panic(fmt.Sprintf("component class %q already registered", class))
	}
	r.constructors[class] = ctor
}

// Get returns the constructor registered under class, if any.
func (r *Registry) Get(class string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.constructors[class]
	return ctor, ok
}

// BuiltIns returns a Registry pre-populated with the engine's built-in
// components.
func BuiltIns() *Registry {
	r := NewRegistry()
	r.Register("Noop", newNoopComponent)
	r.Register("Branch", newBranchComponent)
	r.Register("HTTPRequest", newHTTPRequestComponent)
	return r
}
