package rules

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/guardstack/guardstack/pkg/domain"
)

// Tree is a branch of rule settings: a mapping of key to value.
type Tree map[string]*Value

// Value is one node in a rule settings tree. Exactly one of the scalar, list,
// or branch representations is populated, as reported by Kind.
type Value struct {
	kind   domain.ValueKind
	scalar any
	list   []*Value
	branch Tree
}

// Scalar wraps a comparable scalar (string, bool, int, float, nil).
func Scalar(v any) *Value {
	return &Value{kind: domain.KindScalar, scalar: v}
}

// List builds a list value from the given items.
func List(items ...*Value) *Value {
	return &Value{kind: domain.KindList, list: items}
}

// Strings builds a list value of string scalars.
func Strings(items ...string) *Value {
	values := make([]*Value, len(items))
	for i, item := range items {
		values[i] = Scalar(item)
	}
	return List(values...)
}

// Branch wraps a subtree.
func Branch(t Tree) *Value {
	if t == nil {
		t = Tree{}
	}
	return &Value{kind: domain.KindBranch, branch: t}
}

// Kind reports whether the value is a scalar, list, or branch.
func (v *Value) Kind() domain.ValueKind { return v.kind }

// ScalarValue returns the wrapped scalar. It is nil for non-scalar values.
func (v *Value) ScalarValue() any {
	if v.kind != domain.KindScalar {
		return nil
	}
	return v.scalar
}

// Items returns the list elements, or nil for non-list values.
func (v *Value) Items() []*Value {
	if v.kind != domain.KindList {
		return nil
	}
	return v.list
}

// Children returns the subtree, or nil for non-branch values.
func (v *Value) Children() Tree {
	if v.kind != domain.KindBranch {
		return nil
	}
	return v.branch
}

// Equal reports deep value equality.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case domain.KindScalar:
		return v.scalar == other.scalar
	case domain.KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i, item := range v.list {
			if !item.Equal(other.list[i]) {
				return false
			}
		}
		return true
	default:
		return v.branch.Equal(other.branch)
	}
}

// Clone returns a deep copy of the value.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	clone := &Value{kind: v.kind, scalar: v.scalar}
	if v.list != nil {
		clone.list = make([]*Value, len(v.list))
		for i, item := range v.list {
			clone.list[i] = item.Clone()
		}
	}
	if v.branch != nil {
		clone.branch = v.branch.Clone()
	}
	return clone
}

// Equal reports deep equality of two trees.
func (t Tree) Equal(other Tree) bool {
	if len(t) != len(other) {
		return false
	}
	for key, value := range t {
		if !value.Equal(other[key]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	clone := make(Tree, len(t))
	for key, value := range t {
		clone[key] = value.Clone()
	}
	return clone
}

// Lookup walks the tree along the given key path and returns the value at
// the end of it.
func (t Tree) Lookup(path ...string) (*Value, bool) {
	current := t
	for i, key := range path {
		value, ok := current[key]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return value, true
		}
		current = value.Children()
		if current == nil {
			return nil, false
		}
	}
	return nil, false
}

// FromYAML parses a YAML document into a settings tree. The document root
// must be a mapping.
func FromYAML(data []byte) (Tree, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rule settings: %w", err)
	}
	return FromMap(raw), nil
}

// FromMap converts a decoded generic mapping into a settings tree.
func FromMap(raw map[string]any) Tree {
	tree := make(Tree, len(raw))
	for key, value := range raw {
		tree[key] = fromAny(value)
	}
	return tree
}

func fromAny(raw any) *Value {
	switch v := raw.(type) {
	case map[string]any:
		return Branch(FromMap(v))
	case []any:
		items := make([]*Value, len(v))
		for i, item := range v {
			items[i] = fromAny(item)
		}
		return List(items...)
	default:
		return Scalar(v)
	}
}

// ToYAML serializes the tree back into YAML for handoff to the rule-flow
// runtime.
func (t Tree) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(t.ToMap())
	if err != nil {
		return nil, fmt.Errorf("serialize rule settings: %w", err)
	}
	return data, nil
}

// ToMap converts the tree into plain nested maps, lists, and scalars.
func (t Tree) ToMap() map[string]any {
	raw := make(map[string]any, len(t))
	for key, value := range t {
		raw[key] = toAny(value)
	}
	return raw
}

func toAny(v *Value) any {
	switch v.kind {
	case domain.KindScalar:
		return v.scalar
	case domain.KindList:
		items := make([]any, len(v.list))
		for i, item := range v.list {
			items[i] = toAny(item)
		}
		return items
	default:
		return v.branch.ToMap()
	}
}
