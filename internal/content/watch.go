package content

import (
	"os"
	"path/filepath"
	"time"
)

// CatalogWatcher polls a catalog directory's modification times and
// triggers a callback when a YAML file changes or appears.
type CatalogWatcher struct {
	Dir      string
	Interval time.Duration

	onChange  func(string) // called with the path that changed
	stopCh    chan struct{}
	lastMTime map[string]time.Time
}

// NewCatalogWatcher creates a watcher for the given directory.
func NewCatalogWatcher(dir string, interval time.Duration, onChange func(string)) *CatalogWatcher {
	return &CatalogWatcher{
		Dir:       dir,
		Interval:  interval,
		onChange:  onChange,
		stopCh:    make(chan struct{}),
		lastMTime: make(map[string]time.Time),
	}
}

// Start begins polling in a goroutine.
func (w *CatalogWatcher) Start() {
	ticker := time.NewTicker(w.Interval)
	go func() {
		defer ticker.Stop()
		// prime the cache so startup does not fire a spurious reload
		w.scan(true)
		for {
			select {
			case <-ticker.C:
				w.scan(false)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher.
func (w *CatalogWatcher) Stop() {
	close(w.stopCh)
}

func (w *CatalogWatcher) scan(prime bool) {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(w.Dir, entry.Name())
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		mt := fi.ModTime()
		last, seen := w.lastMTime[path]
		if !seen {
			w.lastMTime[path] = mt
			if !prime && w.onChange != nil {
				w.onChange(path)
			}
			continue
		}
		if mt.After(last) {
			w.lastMTime[path] = mt
			if !prime && w.onChange != nil {
				w.onChange(path)
			}
		}
	}
}
