package tal

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Resolver maps a template name to its source. ok is false when the name is
// unknown.
type Resolver interface {
	Resolve(name string) (source string, ok bool)
}

type ResolverFunc func(name string) (string, bool)

func (f ResolverFunc) Resolve(name string) (string, bool) {
	return f(name)
}

// MapResolver serves templates from memory.
type MapResolver map[string]string

func (m MapResolver) Resolve(name string) (string, bool) {
	source, ok := m[name]
	return source, ok
}

// DirResolver serves templates from files under a root directory and caches
// their contents. Names must be local paths; anything escaping the root is
// reported as missing. Watch keeps the cache fresh while files change.
type DirResolver struct {
	root    string
	logger  *slog.Logger
	mu      sync.RWMutex
	cache   map[string]string
	watcher *fsnotify.Watcher
	done    chan struct{}
	changed func(name string)
}

func NewDirResolver(root string, logger *slog.Logger) (*DirResolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", root)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DirResolver{
		root:   abs,
		logger: logger.With("component", "resolver"),
		cache:  map[string]string{},
	}, nil
}

func (d *DirResolver) Resolve(name string) (string, bool) {
	key := filepath.Clean(filepath.FromSlash(name))
	if !filepath.IsLocal(key) {
		d.logger.Warn("template name escapes root", "name", name)
		return "", false
	}
	d.mu.RLock()
	source, ok := d.cache[key]
	d.mu.RUnlock()
	if ok {
		return source, true
	}
	data, err := os.ReadFile(filepath.Join(d.root, key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			d.logger.Warn("read template", "name", name, "error", err)
		}
		return "", false
	}
	source = string(data)
	d.mu.Lock()
	d.cache[key] = source
	d.mu.Unlock()
	return source, true
}

// Invalidate drops one cached template, or all of them for an empty name.
func (d *DirResolver) Invalidate(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name == "" {
		d.cache = map[string]string{}
		return
	}
	delete(d.cache, filepath.Clean(filepath.FromSlash(name)))
}

// OnChange registers fn to be called with the template name after a watched
// file changes and its cache entry is dropped. fn runs on the watch
// goroutine and replaces any earlier callback.
func (d *DirResolver) OnChange(fn func(name string)) {
	d.mu.Lock()
	d.changed = fn
	d.mu.Unlock()
}

// Watch starts invalidating cached templates when their files change. It
// watches every directory under the root as it exists when called.
func (d *DirResolver) Watch() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.watcher != nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WithStack(err)
	}
	err = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = watcher.Close()
		return errors.WithStack(err)
	}
	d.watcher = watcher
	d.done = make(chan struct{})
	go d.loop(watcher, d.done)
	return nil
}

func (d *DirResolver) loop(watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			d.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			d.logger.Warn("watch templates", "error", err)
		}
	}
}

func (d *DirResolver) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Create) {
		return
	}
	rel, err := filepath.Rel(d.root, event.Name)
	if err != nil {
		return
	}
	d.logger.Debug("template changed", "name", rel, "op", event.Op.String())
	d.Invalidate(rel)
	d.mu.RLock()
	changed := d.changed
	d.mu.RUnlock()
	if changed != nil {
		changed(filepath.ToSlash(rel))
	}
}

// Close stops the watcher, if any.
func (d *DirResolver) Close() error {
	d.mu.Lock()
	watcher, done := d.watcher, d.done
	d.watcher, d.done = nil, nil
	d.mu.Unlock()
	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	<-done
	return errors.WithStack(err)
}
