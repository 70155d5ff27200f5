package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogV1 = `
fragments:
  - id: "10"
    name: File Rail
    flow: define flow file rail
`

const catalogV2 = `
fragments:
  - id: "10"
    name: File Rail
    flow: define flow file rail
  - id: "11"
    name: Second File Rail
    flow: define flow second file rail
`

func writeCatalog(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestFileProviderInitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeCatalog(t, path, catalogV1)

	provider, err := NewFileProvider(path)
	require.NoError(t, err)
	defer func() { _ = provider.Close() }()

	fragment, ok := provider.Get("10")
	require.True(t, ok)
	assert.Equal(t, "File Rail", fragment.DisplayName)
	assert.Len(t, provider.List(), 1)
	assert.Equal(t, 1, provider.Current().Version)
}

func TestFileProviderMissingFile(t *testing.T) {
	_, err := NewFileProvider(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestFileProviderInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeCatalog(t, path, "fragments: [broken")

	_, err := NewFileProvider(path)
	require.Error(t, err)
}

func TestFileProviderReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeCatalog(t, path, catalogV1)

	provider, err := NewFileProvider(path)
	require.NoError(t, err)
	defer func() { _ = provider.Close() }()

	updates := provider.Subscribe()
	first := <-updates
	assert.Equal(t, 1, first.Version)

	writeCatalog(t, path, catalogV2)

	require.Eventually(t, func() bool {
		_, ok := provider.Get("11")
		return ok
	}, 5*time.Second, 50*time.Millisecond, "reload did not pick up the new fragment")

	assert.GreaterOrEqual(t, provider.Current().Version, 2)
}

func TestFileProviderKeepsSnapshotOnBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeCatalog(t, path, catalogV1)

	provider, err := NewFileProvider(path)
	require.NoError(t, err)
	defer func() { _ = provider.Close() }()

	writeCatalog(t, path, "fragments: [broken")

	// Give the watcher time to attempt the reload, then confirm the old
	// snapshot is still served.
	time.Sleep(300 * time.Millisecond)
	_, ok := provider.Get("10")
	assert.True(t, ok)
}
