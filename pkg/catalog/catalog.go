// Package catalog holds the library of guardrail policy fragments available
// for composition.
package catalog

import (
	"sort"

	"github.com/guardstack/guardstack/pkg/rules"
)

// Fragment is one independently selectable unit of guardrail policy:
// structured rule settings, a flow script in the external flow language, and
// an optional action module binding. Fragments are immutable once defined;
// accessors hand out defensive copies of the settings tree.
type Fragment struct {
	ID           string
	DisplayName  string
	RuleSettings rules.Tree
	FlowScript   string
	ActionModule string
}

// Settings returns a deep copy of the fragment's rule settings, keeping the
// fragment itself immutable under later merges.
func (f Fragment) Settings() rules.Tree {
	return f.RuleSettings.Clone()
}

// Catalog resolves fragment ids to fragments.
type Catalog interface {
	// Get returns the fragment for the given id, if it exists.
	Get(id string) (Fragment, bool)
	// List returns all fragments ordered by id.
	List() []Fragment
}

// Static is an immutable in-memory catalog.
type Static struct {
	fragments map[string]Fragment
}

// NewStatic builds a catalog from the given fragments, keyed by id. A later
// fragment with a duplicate id replaces the earlier one.
func NewStatic(fragments ...Fragment) *Static {
	m := make(map[string]Fragment, len(fragments))
	for _, f := range fragments {
		m[f.ID] = f
	}
	return &Static{fragments: m}
}

// Get returns the fragment for the given id.
func (c *Static) Get(id string) (Fragment, bool) {
	f, ok := c.fragments[id]
	return f, ok
}

// List returns all fragments ordered by id.
func (c *Static) List() []Fragment {
	out := make([]Fragment, 0, len(c.fragments))
	for _, f := range c.fragments {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
