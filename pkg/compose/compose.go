package compose

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/guardstack/guardstack/pkg/catalog"
	"github.com/guardstack/guardstack/pkg/rules"
)

// Policy is the composed runtime policy: the effective rule settings, the
// composed flow script, and the action modules the flows depend on. It is
// handed off to the rule-flow runtime and not mutated afterwards.
type Policy struct {
	Config        rules.Tree
	FlowScript    string
	ActionModules []string
	Selected      []string
}

// ConfigYAML serializes the effective rule settings for runtimes that consume
// configuration as a YAML document.
func (p *Policy) ConfigYAML() ([]byte, error) {
	return p.Config.ToYAML()
}

// OutputFlows returns the flow names the effective config enables on the
// output rail, if any.
func (p *Policy) OutputFlows() []string {
	return flowNames(p.Config, "rails", "output", "flows")
}

// InputFlows returns the flow names the effective config enables on the
// input rail, if any.
func (p *Policy) InputFlows() []string {
	return flowNames(p.Config, "rails", "input", "flows")
}

func flowNames(tree rules.Tree, path ...string) []string {
	value, ok := tree.Lookup(path...)
	if !ok {
		return nil
	}
	items := value.Items()
	names := make([]string, 0, len(items))
	for _, item := range items {
		if name, ok := item.ScalarValue().(string); ok {
			names = append(names, name)
		}
	}
	return names
}

// Engine composes runtime policies from a fragment catalog.
type Engine struct {
	catalog catalog.Catalog
}

// NewEngine creates a composition engine over the given catalog.
func NewEngine(c catalog.Catalog) *Engine {
	return &Engine{catalog: c}
}

// Compose builds a runtime policy from the selection, iterating it in caller
// order. Selection order matters: scalar settings from later fragments
// overwrite earlier ones. Unknown ids are skipped without error. The base
// tree is not mutated; the engine merges onto its own copy.
//
// A merge conflict aborts composition and no policy is returned.
func (e *Engine) Compose(selection []string, base rules.Tree) (*Policy, error) {
	config := base.Clone()
	if config == nil {
		config = rules.Tree{}
	}

	var (
		script     strings.Builder
		modules    []string
		moduleSeen = make(map[string]struct{})
		selected   []string
	)

	for _, id := range selection {
		fragment, ok := e.catalog.Get(id)
		if !ok {
			log.Debug().Str("fragment", id).Msg("unknown fragment id skipped")
			continue
		}
		selected = append(selected, id)

		if err := rules.Merge(fragment.Settings(), config); err != nil {
			return nil, fmt.Errorf("compose fragment %q: %w", id, err)
		}

		if flow := strings.TrimSpace(fragment.FlowScript); flow != "" {
			if script.Len() > 0 {
				script.WriteString("\n\n")
			}
			script.WriteString(flow)
		}

		if ref := fragment.ActionModule; ref != "" {
			if _, seen := moduleSeen[ref]; !seen {
				moduleSeen[ref] = struct{}{}
				modules = append(modules, ref)
			}
		}
	}

	return &Policy{
		Config:        config,
		FlowScript:    script.String(),
		ActionModules: modules,
		Selected:      selected,
	}, nil
}
