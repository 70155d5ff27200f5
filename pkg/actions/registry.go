// Package actions provides an explicit registry of invokable flow actions.
//
// There is no implicit discovery: a module is a factory registered under a
// reference name, and loading it yields a mapping of action name to callable
// which the registry merges into one dispatch table.
package actions

import (
	"context"
	"sync"

	"github.com/guardstack/guardstack/pkg/domain"
)

// Args carries the inputs the rule-flow runtime passes to a self-check
// action.
type Args struct {
	UserMessage string
	BotMessage  string
}

// Action is an invokable capability a flow script can call by name.
type Action func(ctx context.Context, args Args) (string, error)

// Module yields the actions contributed by one action module.
type Module interface {
	// Name returns the module reference the catalog binds fragments to.
	Name() string
	// Actions returns the dispatch entries the module contributes.
	Actions() map[string]Action
}

// ModuleFunc adapts a name and an action map into a Module.
type ModuleFunc struct {
	Ref string
	Map map[string]Action
}

// Name returns the module reference.
func (m ModuleFunc) Name() string { return m.Ref }

// Actions returns the dispatch entries.
func (m ModuleFunc) Actions() map[string]Action { return m.Map }

// Registry resolves module references into loaded actions. Modules register
// factories up front; Load instantiates each referenced module exactly once
// and merges its actions into the dispatch table.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]func() (Module, error)
	loaded    map[string]struct{}
	actions   map[string]Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]func() (Module, error)),
		loaded:    make(map[string]struct{}),
		actions:   make(map[string]Action),
	}
}

// RegisterModule makes a module available for loading under its reference.
// A later registration for the same reference replaces the earlier one.
func (r *Registry) RegisterModule(ref string, factory func() (Module, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[ref] = factory
}

// Load resolves each module reference exactly once. An unresolvable
// reference or a failing factory aborts the load with a
// *domain.ModuleLoadError carrying the offending reference; actions loaded by
// earlier references in the same call remain registered.
func (r *Registry) Load(refs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ref := range refs {
		if _, done := r.loaded[ref]; done {
			continue
		}
		factory, ok := r.factories[ref]
		if !ok {
			return &domain.ModuleLoadError{Ref: ref}
		}
		module, err := factory()
		if err != nil {
			return &domain.ModuleLoadError{Ref: ref, Err: err}
		}
		for name, action := range module.Actions() {
			r.actions[name] = action
		}
		r.loaded[ref] = struct{}{}
	}
	return nil
}

// Lookup returns the action registered under the given name.
func (r *Registry) Lookup(name string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	action, ok := r.actions[name]
	return action, ok
}

// Names returns the names of all loaded actions.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	return names
}
