package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/guardstack/guardstack/pkg/rules"
)

// Snapshot is one immutable view of a file-backed catalog.
type Snapshot struct {
	Catalog  *Static
	Version  int
	LoadedAt time.Time
}

// FileProvider loads fragments from a YAML file and watches it for changes,
// publishing a fresh snapshot to subscribers on every reload.
type FileProvider struct {
	path        string
	mu          sync.RWMutex
	snapshot    Snapshot
	subscribers []chan Snapshot
	watcher     *fsnotify.Watcher
	cancel      context.CancelFunc
}

type fragmentSpec struct {
	ID           string         `yaml:"id"`
	Name         string         `yaml:"name"`
	Settings     map[string]any `yaml:"settings"`
	Flow         string         `yaml:"flow"`
	ActionModule string         `yaml:"action_module"`
}

type catalogFile struct {
	Fragments []fragmentSpec `yaml:"fragments"`
}

// NewFileProvider creates a provider watching the specified file. The initial
// load must succeed; later reload failures keep the previous snapshot.
func NewFileProvider(path string) (*FileProvider, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create catalog watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &FileProvider{
		path:    absPath,
		watcher: watcher,
		cancel:  cancel,
	}

	if err := p.load(); err != nil {
		cancel()
		_ = watcher.Close()
		return nil, err
	}

	// Watch the directory rather than the file: editors replace files on
	// save, which would drop a file-level watch.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		cancel()
		_ = watcher.Close()
		return nil, fmt.Errorf("watch catalog directory: %w", err)
	}

	go p.watchLoop(ctx)

	return p, nil
}

// Get returns the fragment for the given id from the current snapshot.
func (p *FileProvider) Get(id string) (Fragment, bool) {
	return p.Current().Catalog.Get(id)
}

// List returns all fragments from the current snapshot, ordered by id.
func (p *FileProvider) List() []Fragment {
	return p.Current().Catalog.List()
}

// Current returns the current snapshot.
func (p *FileProvider) Current() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Subscribe returns a channel that receives catalog updates, starting with
// the current snapshot.
func (p *FileProvider) Subscribe() <-chan Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan Snapshot, 1)
	p.subscribers = append(p.subscribers, ch)
	ch <- p.snapshot
	return ch
}

// Close stops the watcher and releases resources.
func (p *FileProvider) Close() error {
	p.cancel()
	return p.watcher.Close()
}

func (p *FileProvider) load() error {
	//nolint:gosec // Catalog file path is controlled by the operator.
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read catalog file %s: %w", p.path, err)
	}

	fragments, err := ParseFragments(data)
	if err != nil {
		return fmt.Errorf("parse catalog file %s: %w", p.path, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.snapshot = Snapshot{
		Catalog:  NewStatic(fragments...),
		Version:  p.snapshot.Version + 1,
		LoadedAt: time.Now(),
	}

	for _, ch := range p.subscribers {
		select {
		case ch <- p.snapshot:
		default:
			// Subscriber is lagging; it will pick up the next update.
		}
	}
	return nil
}

// ParseFragments decodes a YAML fragment catalog document.
func ParseFragments(data []byte) ([]Fragment, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	fragments := make([]Fragment, 0, len(file.Fragments))
	for i, spec := range file.Fragments {
		if spec.ID == "" {
			return nil, fmt.Errorf("fragment %d: id is required", i)
		}
		fragments = append(fragments, Fragment{
			ID:           spec.ID,
			DisplayName:  spec.Name,
			RuleSettings: rules.FromMap(spec.Settings),
			FlowScript:   spec.Flow,
			ActionModule: spec.ActionModule,
		})
	}
	return fragments, nil
}

func (p *FileProvider) watchLoop(ctx context.Context) {
	// Debounce bursts of events from editors that write multiple times.
	var reloadTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(100*time.Millisecond, func() {
				if err := p.load(); err != nil {
					log.Warn().Err(err).Str("path", p.path).Msg("catalog reload failed, keeping previous snapshot")
					return
				}
				log.Info().Str("path", p.path).Msg("catalog reloaded")
			})

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("catalog watcher error")
		}
	}
}
