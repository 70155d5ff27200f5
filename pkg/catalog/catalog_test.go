package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardstack/guardstack/pkg/rules"
)

func TestBuiltinLibrary(t *testing.T) {
	library := Builtin()

	fragments := library.List()
	require.Len(t, fragments, 5)

	cove, ok := library.Get("1")
	require.True(t, ok)
	assert.Equal(t, "Chain-of-Verification (Custom Fact-Checking)", cove.DisplayName)
	assert.Equal(t, SelfCheckModule, cove.ActionModule)
	assert.Contains(t, cove.FlowScript, "define flow self check facts")

	flows, ok := cove.RuleSettings.Lookup("rails", "output", "flows")
	require.True(t, ok)
	require.Len(t, flows.Items(), 1)
	assert.Equal(t, "self check facts", flows.Items()[0].ScalarValue())

	jailbreak, ok := library.Get("2")
	require.True(t, ok)
	assert.Empty(t, jailbreak.ActionModule)
	_, ok = jailbreak.RuleSettings.Lookup("rails", "input", "flows")
	assert.True(t, ok)
}

func TestFragmentSettingsReturnsCopy(t *testing.T) {
	library := Builtin()
	fragment, ok := library.Get("1")
	require.True(t, ok)

	settings := fragment.Settings()
	require.NoError(t, rules.Merge(rules.Tree{
		"rails": rules.Branch(rules.Tree{
			"output": rules.Branch(rules.Tree{
				"flows": rules.Strings("extra flow"),
			}),
		}),
	}, settings))

	// The fragment itself must stay untouched.
	flows, ok := fragment.RuleSettings.Lookup("rails", "output", "flows")
	require.True(t, ok)
	assert.Len(t, flows.Items(), 1)
}

func TestStaticListOrderedByID(t *testing.T) {
	library := NewStatic(
		Fragment{ID: "9"},
		Fragment{ID: "1"},
		Fragment{ID: "5"},
	)

	ids := make([]string, 0, 3)
	for _, fragment := range library.List() {
		ids = append(ids, fragment.ID)
	}
	assert.Equal(t, []string{"1", "5", "9"}, ids)
}

func TestStaticDuplicateIDReplaces(t *testing.T) {
	library := NewStatic(
		Fragment{ID: "1", DisplayName: "first"},
		Fragment{ID: "1", DisplayName: "second"},
	)

	fragment, ok := library.Get("1")
	require.True(t, ok)
	assert.Equal(t, "second", fragment.DisplayName)
	assert.Len(t, library.List(), 1)
}

func TestOverlayShadowsBase(t *testing.T) {
	base := NewStatic(
		Fragment{ID: "1", DisplayName: "base one"},
		Fragment{ID: "2", DisplayName: "base two"},
	)
	over := NewStatic(
		Fragment{ID: "2", DisplayName: "override two"},
		Fragment{ID: "3", DisplayName: "extra three"},
	)

	combined := NewOverlay(over, base)

	one, ok := combined.Get("1")
	require.True(t, ok)
	assert.Equal(t, "base one", one.DisplayName)

	two, ok := combined.Get("2")
	require.True(t, ok)
	assert.Equal(t, "override two", two.DisplayName)

	ids := make([]string, 0)
	for _, fragment := range combined.List() {
		ids = append(ids, fragment.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestParseFragments(t *testing.T) {
	data := []byte(`
fragments:
  - id: "7"
    name: Custom Rail
    settings:
      rails:
        output:
          flows:
            - custom check
    flow: |
      define flow custom check
        bot said something
    action_module: actions/custom
`)

	fragments, err := ParseFragments(data)
	require.NoError(t, err)
	require.Len(t, fragments, 1)

	fragment := fragments[0]
	assert.Equal(t, "7", fragment.ID)
	assert.Equal(t, "Custom Rail", fragment.DisplayName)
	assert.Equal(t, "actions/custom", fragment.ActionModule)
	assert.Contains(t, fragment.FlowScript, "define flow custom check")

	flows, ok := fragment.RuleSettings.Lookup("rails", "output", "flows")
	require.True(t, ok)
	require.Len(t, flows.Items(), 1)
	assert.Equal(t, "custom check", flows.Items()[0].ScalarValue())
}

func TestParseFragmentsRequiresID(t *testing.T) {
	data := []byte(`
fragments:
  - name: No ID
`)
	_, err := ParseFragments(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is required")
}
