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

// Package registry parses registry.json files and dispatches a
// ComponentRegistration to the loader its type names: the compile-time
// module registry, a yaegi code interpreter session, the remote-endpoint
// runner, or an MCP tool call.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/nodeengine/engine/internal/flow/components"
	"github.com/nodeengine/engine/internal/flow/harness"
	"github.com/nodeengine/engine/internal/flow/model"
	"github.com/nodeengine/engine/internal/flow/remoteexec"
	"github.com/nodeengine/engine/internal/system/log"
)

const registryFileName = "registry.json"

// registryFile is the on-disk shape of one registry.json.
type registryFile struct {
	Components []model.ComponentRegistration `json:"components"`
}

// cacheEntry holds a root's merged, sorted registration list alongside the
// modification times of every registry.json that contributed to it, so a
// subsequent List can detect whether any of them changed on disk.
type cacheEntry struct {
	entries []model.ComponentRegistration
	mtimes  map[string]int64
}

// Registry resolves component names to loadable instances. It owns the
// compile-time module constructor table and a per-root graph cache.
type Registry struct {
	mu       sync.Mutex
	modules  *components.Registry
	cache    map[string]cacheEntry
	logger   *log.Logger
}

// New constructs a Registry backed by the given module constructor table.
// Pass components.BuiltIns() to get the engine's built-in components.
func New(modules *components.Registry) *Registry {
	return &Registry{
		modules: modules,
		cache:   make(map[string]cacheEntry),
		logger:  log.GetLogger().With(log.String(log.LoggerKeyComponentName, "Registry")),
	}
}

// List reads registry.json at root, then walks upward one directory at a
// time toward the filesystem root, merging any further registry.json files
// found - an entry's first appearance (nearest to root) wins. The merged
// list is sorted by key. A root with no registry.json anywhere yields an
// empty list, not an error.
func (r *Registry) List(root string) ([]model.ComponentRegistration, error) {
	files, err := collectRegistryFiles(root)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if cached, ok := r.cache[root]; ok && mtimesMatch(cached.mtimes, files) {
		r.mu.Unlock()
		return cached.entries, nil
	}
	r.mu.Unlock()

	byKey := make(map[string]model.ComponentRegistration)
	order := make([]string, 0)
	mtimes := make(map[string]int64, len(files))

	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		mtimes[path] = info.ModTime().UnixNano()

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var parsed registryFile
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		for _, reg := range parsed.Components {
			if _, exists := byKey[reg.Key]; exists {
				continue
			}
			byKey[reg.Key] = reg
			order = append(order, reg.Key)
		}
	}

	entries := make([]model.ComponentRegistration, 0, len(order))
	for _, key := range order {
		entries = append(entries, byKey[key])
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	r.mu.Lock()
	r.cache[root] = cacheEntry{entries: entries, mtimes: mtimes}
	r.mu.Unlock()

	return entries, nil
}

// Find returns the registration named name within root's merged list.
func (r *Registry) Find(root, name string) (*model.ComponentRegistration, error) {
	entries, err := r.List(root)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Key == name {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// Load dispatches reg to the loader its Type names and returns a component
// instance satisfying harness.Component.
func (r *Registry) Load(reg *model.ComponentRegistration, base *harness.ComponentBase) (harness.Component, error) {
	switch reg.Type {
	case model.RegistrationTypeModule:
		return r.loadModule(reg, base)
	case model.RegistrationTypeCode:
		return loadCode(reg, base)
	case model.RegistrationTypeEndpoint:
		return remoteexec.New(base, reg.Config.Endpoint, reg.Config.ComponentName, reg.Config.ClassName)
	case model.RegistrationTypeMCP:
		return loadMCP(reg, base)
	default:
		return nil, fmt.Errorf("unknown registration type: %s", reg.Type)
	}
}

func (r *Registry) loadModule(reg *model.ComponentRegistration, base *harness.ComponentBase) (harness.Component, error) {
	ctor, ok := r.modules.Get(reg.Config.Class)
	if !ok {
		return nil, fmt.Errorf("module class %q is not registered", reg.Config.Class)
	}
	return ctor(base)
}

// collectRegistryFiles walks from root upward to the filesystem root,
// collecting every registry.json found, ordered nearest-root-first.
func collectRegistryFiles(root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve registry root: %w", err)
	}

	var files []string
	dir := abs
	for {
		candidate := filepath.Join(dir, registryFileName)
		if _, err := os.Stat(candidate); err == nil {
			files = append(files, candidate)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return files, nil
}

func mtimesMatch(cached map[string]int64, files []string) bool {
	if len(cached) != len(files) {
		return false
	}
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if cached[path] != info.ModTime().UnixNano() {
			return false
		}
	}
	return true
}
