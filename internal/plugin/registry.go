// Package plugin keeps the named front-end actions that the cc command can
// load with -plugin and -add-plugin.
package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/typextract/internal/frontend"
	"github.com/rohankatakam/typextract/internal/sink"
)

// Host is what a loaded plugin may use from the process hosting it.
type Host struct {
	Out    sink.Sink
	Logger *logrus.Logger
}

// Factory builds an action from the host and the -plugin-arg-<name> values.
type Factory func(host Host, args []string) (frontend.Action, error)

// Entry is one registered plugin.
type Entry struct {
	Name        string
	Description string
	Factory     Factory
}

var (
	mu       sync.RWMutex
	registry = map[string]Entry{}
)

// Register adds a plugin. Registering a name twice panics, as it can only
// happen from conflicting init functions.
func Register(name, description string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("plugin %q registered twice", name))
	}
	registry[name] = Entry{Name: name, Description: description, Factory: factory}
}

// Lookup returns the plugin registered under name.
func Lookup(name string) (Entry, bool) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := registry[name]
	return e, ok
}

// List returns every plugin sorted by name.
func List() []Entry {
	mu.RLock()
	defer mu.RUnlock()
	entries := make([]Entry, 0, len(registry))
	for _, e := range registry {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Load instantiates the plugins named by opts in order. An unknown name is
// an error, matching a compiler that cannot find the plugin.
func Load(host Host, opts *frontend.Options) ([]frontend.Action, error) {
	actions := make([]frontend.Action, 0, len(opts.Plugins))
	for _, name := range opts.Plugins {
		e, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unable to find plugin '%s'", name)
		}
		action, err := e.Factory(host, opts.PluginArgs[name])
		if err != nil {
			return nil, fmt.Errorf("plugin '%s': %w", name, err)
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// unregister is for tests.
func unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(registry, name)
}
