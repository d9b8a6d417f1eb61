package config

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/pagecraft/pkg/registry"
)

// CatalogHolder provides thread-safe access to a registry built from the
// builtin catalog plus a TOML catalog file, with hot reload support.
type CatalogHolder struct {
	mu       sync.RWMutex
	reg      *registry.Registry
	path     string
	logger   *log.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*registry.Registry)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCatalogHolder loads path. An empty path holds the builtin catalog and
// never reloads.
func NewCatalogHolder(path string, logger *log.Logger) (*CatalogHolder, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	h := &CatalogHolder{logger: logger, stopCh: make(chan struct{})}
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("absolute path: %w", err)
		}
		h.path = abs
	}
	reg, err := h.load()
	if err != nil {
		return nil, err
	}
	h.reg = reg
	return h, nil
}

func (h *CatalogHolder) load() (*registry.Registry, error) {
	reg := registry.Builtin()
	if h.path == "" {
		return reg, nil
	}
	if _, err := reg.LoadFile(h.path); err != nil {
		return nil, err
	}
	return reg, nil
}

// Get returns the current registry.
func (h *CatalogHolder) Get() *registry.Registry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.reg
}

// Reload rebuilds the registry from disk. On failure the previous registry
// is kept.
func (h *CatalogHolder) Reload() error {
	reg, err := h.load()
	if err != nil {
		h.logger.Error("catalog reload failed, keeping previous catalog", "path", h.path, "err", err)
		return fmt.Errorf("reload catalog: %w", err)
	}

	h.mu.Lock()
	old := h.reg
	h.reg = reg
	callbacks := append([]func(*registry.Registry){}, h.onChange...)
	h.mu.Unlock()

	h.logger.Info("catalog reloaded", "path", h.path, "components", reg.Len(), "previous", old.Len())
	for _, fn := range callbacks {
		fn(reg)
	}
	return nil
}

// OnChange registers a callback invoked after every successful reload.
func (h *CatalogHolder) OnChange(fn func(*registry.Registry)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// Watch starts reloading the catalog whenever its file is written.
func (h *CatalogHolder) Watch() error {
	if h.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors that save atomically replace the file.
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = watcher
	go h.watchLoop()
	h.logger.Info("watching catalog for changes", "path", h.path)
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (h *CatalogHolder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *CatalogHolder) watchLoop() {
	name := filepath.Base(h.path)
	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				h.logger.Debug("catalog changed", "event", event.Op.String(), "file", event.Name)
				_ = h.Reload()
			}
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error("catalog watcher error", "err", err)
		case <-h.stopCh:
			return
		}
	}
}
