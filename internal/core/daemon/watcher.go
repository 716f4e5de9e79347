// Package daemon watches a folder and ingests new lecture files into a class.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/neilberkman/lectern/internal/core/agent"
	"github.com/neilberkman/lectern/internal/core/importer"
)

// DefaultSettle is how long a file must stop changing before it is ingested
const DefaultSettle = 3 * time.Second

// Stats tracks watcher activity
type Stats struct {
	StartTime  time.Time
	Imported   int
	Skipped    int
	Failed     int
	LastImport time.Time
}

// Watcher ingests files dropped into a folder
type Watcher struct {
	importer *importer.Importer
	classID  string
	dir      string
	settle   time.Duration
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	stats   Stats
	pending map[string]*time.Timer
	ready   chan string
	done    chan struct{}
}

// NewWatcher creates a watcher for dir feeding classID
func NewWatcher(imp *importer.Importer, classID, dir string, settle time.Duration) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("watch path does not exist: %s", dir)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		importer: imp,
		classID:  classID,
		dir:      dir,
		settle:   settle,
		watcher:  fw,
		pending:  make(map[string]*time.Timer),
		ready:    make(chan string, 16),
		done:     make(chan struct{}),
		stats:    Stats{StartTime: time.Now()},
	}, nil
}

// Start imports what is already in the folder, then ingests new files
// until ctx is done
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()
	defer close(w.done)

	log.Printf("[watch] watching %s for class %s", w.dir, w.classID)
	if err := w.addTree(w.dir); err != nil {
		return fmt.Errorf("failed to setup watches: %w", err)
	}

	res, err := w.importer.ImportDirectory(ctx, w.classID, w.dir, nil)
	if err != nil {
		log.Printf("[watch] initial import failed: %v", err)
	} else {
		w.mu.Lock()
		w.stats.Imported += res.Imported
		w.stats.Skipped += res.Skipped
		w.stats.Failed += res.Failed
		w.mu.Unlock()
		log.Printf("[watch] initial import: %d imported, %d already present, %d failed", res.Imported, res.Skipped, res.Failed)
	}

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			log.Printf("[watch] shutting down")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}
			w.handleEvent(event)

		case path := <-w.ready:
			w.importFile(ctx, path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			log.Printf("[watch] watcher error: %v", err)
		}
	}
}

// Stats returns a copy of the current counters
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) addTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				log.Printf("[watch] %v", err)
			}
			return
		}
	}
	if !agent.Supported(event.Name) {
		return
	}
	w.schedule(event.Name)
}

// schedule (re)starts the settle timer for path so a file still being
// copied is ingested once, after writes stop
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	status, err := w.importer.ImportFile(ctx, w.classID, path)

	w.mu.Lock()
	defer w.mu.Unlock()
	switch status {
	case importer.StatusImported:
		w.stats.Imported++
		w.stats.LastImport = time.Now()
		log.Printf("[watch] ✓ ingested %s", filepath.Base(path))
	case importer.StatusSkipped:
		w.stats.Skipped++
	default:
		w.stats.Failed++
		log.Printf("[watch] failed to ingest %s: %v", filepath.Base(path), err)
	}
}
