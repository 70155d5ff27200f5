package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Provider.Name)
	assert.Equal(t, "llama3", cfg.Provider.Model)
	assert.Equal(t, 1, cfg.Verifier.Parallelism)
	assert.Equal(t, "leading", cfg.Verifier.QuestionFilter)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardstack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider:
  name: openai
  model: gpt-3.5-turbo-instruct
  api_key_env: TEST_OPENAI_KEY
verifier:
  parallelism: 4
  question_filter: trailing
logging:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Equal(t, "gpt-3.5-turbo-instruct", cfg.Provider.Model)
	assert.Equal(t, 4, cfg.Verifier.Parallelism)
	assert.Equal(t, "trailing", cfg.Verifier.QuestionFilter)
	assert.Equal(t, "debug", cfg.Logging.Level)

	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	assert.Equal(t, "sk-test", cfg.APIKey())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GUARDSTACK_PROVIDER", "openai")
	t.Setenv("GUARDSTACK_MODEL", "gpt-4o-mini")
	t.Setenv("GUARDSTACK_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	t.Setenv("GUARDSTACK_LOG_LEVEL", "loud")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestValidateRejectsBadQuestionFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardstack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
verifier:
  question_filter: sideways
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid question_filter")
}

func TestValidateNormalizesParallelism(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardstack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
verifier:
  parallelism: 0
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Verifier.Parallelism)
}

func TestLoadBaseRails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
colang_version: "2.x"
rails:
  output:
    flows: []
`), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Rails.BaseFile = path

	tree, err := cfg.LoadBaseRails()
	require.NoError(t, err)

	version, ok := tree.Lookup("colang_version")
	require.True(t, ok)
	assert.Equal(t, "2.x", version.ScalarValue())
}

func TestLoadBaseRailsEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	tree, err := cfg.LoadBaseRails()
	require.NoError(t, err)
	assert.Empty(t, tree)
}
