// Package picker finds images the user can put into a meme.
package picker

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/fsnotify/fsnotify"

	"github.com/jask/jaskmeme/internal/render"
)

const debounceWindow = 200 * time.Millisecond

// Dir tracks the image files in one directory.
type Dir struct {
	root string

	mu    sync.RWMutex
	files []string // base names, sorted

	watcher *fsnotify.Watcher
	changes chan struct{}
}

// Open scans root for image files.
func Open(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	d := &Dir{root: abs, changes: make(chan struct{}, 1)}
	if err := d.Rescan(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dir) Root() string { return d.root }

// Files returns the image base names in sorted order.
func (d *Dir) Files() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.files))
	copy(out, d.files)
	return out
}

// Rescan rereads the directory listing.
func (d *Dir) Rescan() error {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if render.IsImageFile(e.Name()) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	d.mu.Lock()
	d.files = files
	d.mu.Unlock()
	return nil
}

// Changes fires after the listing was refreshed by the watcher.
func (d *Dir) Changes() <-chan struct{} { return d.changes }

// Watch keeps the listing current until ctx is done or Close is called.
func (d *Dir) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(d.root); err != nil {
		_ = w.Close()
		return err
	}
	d.watcher = w
	go d.watchLoop(ctx, w)
	return nil
}

func (d *Dir) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			if !render.IsImageFile(event.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			if err := d.Rescan(); err != nil {
				log.Printf("warn: picker rescan %s: %v", d.root, err)
				continue
			}
			select {
			case d.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("warn: picker watch %s: %v", d.root, err)
		}
	}
}

// Close stops the watcher.
func (d *Dir) Close() error {
	if d.watcher == nil {
		return nil
	}
	return d.watcher.Close()
}

// Resolve turns input into a path, relative names being taken from root.
func (d *Dir) Resolve(input string) string {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			input = filepath.Join(home, input[2:])
		}
	}
	if filepath.IsAbs(input) {
		return input
	}
	return filepath.Join(d.root, input)
}

// Suggest ranks known files against input: names starting with it first,
// then the rest by edit distance. Far-off names are dropped.
func (d *Dir) Suggest(input string, limit int) []string {
	files := d.Files()
	needle := strings.ToLower(filepath.Base(strings.TrimSpace(input)))
	if needle == "" || needle == "." {
		if limit > 0 && len(files) > limit {
			files = files[:limit]
		}
		return files
	}

	type scored struct {
		name   string
		prefix bool
		dist   int
	}
	maxDist := len(needle)/2 + 1
	var ranked []scored
	for _, f := range files {
		lower := strings.ToLower(f)
		if strings.HasPrefix(lower, needle) {
			ranked = append(ranked, scored{name: f, prefix: true, dist: len(lower) - len(needle)})
			continue
		}
		stem := strings.TrimSuffix(lower, filepath.Ext(lower))
		dist := min(levenshtein.ComputeDistance(needle, lower), levenshtein.ComputeDistance(needle, stem))
		if dist <= maxDist {
			ranked = append(ranked, scored{name: f, dist: dist})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].prefix != ranked[j].prefix {
			return ranked[i].prefix
		}
		if ranked[i].dist != ranked[j].dist {
			return ranked[i].dist < ranked[j].dist
		}
		return ranked[i].name < ranked[j].name
	})
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.name)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
