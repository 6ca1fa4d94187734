// Package workspace holds the meme being edited and the saved gallery, and
// exposes the commands the presentation layer invokes on them.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jask/jaskmeme/internal/gallery"
	"github.com/jask/jaskmeme/internal/render"
)

// Panel is the visible half of the UI.
type Panel string

const (
	PanelCreate  Panel = "create"
	PanelGallery Panel = "gallery"
)

// DefaultFilename is what downloads are saved as.
const DefaultFilename = "meme.png"

// Draft is the meme being composed.
type Draft struct {
	Image *render.Image
	Text  string
}

// HasImage reports whether an image has been selected.
func (d Draft) HasImage() bool { return d.Image != nil && d.Image.Pixels != nil }

// Rasterizer flattens a scene into pixels.
type Rasterizer interface {
	Rasterize(ctx context.Context, scene render.Scene) (render.Raster, error)
}

// Saver writes a finished meme to disk and returns where it ended up.
type Saver interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

// Options wires the workspace to its collaborators.
type Options struct {
	Store      gallery.Store
	Rasterizer Rasterizer
	Saver      Saver
	Filename   string
}

// Workspace owns the draft and the gallery. Methods may be called from
// multiple goroutines; at most one capture runs at a time.
type Workspace struct {
	store      gallery.Store
	rasterizer Rasterizer
	saver      Saver
	filename   string

	mu           sync.Mutex
	panel        Panel
	draft        Draft
	memes        []gallery.Meme
	lastProduced gallery.Meme
	capturing    bool
}

// New builds a workspace and loads the gallery once. A gallery that cannot
// be read (absent, corrupt, unreachable) starts out empty.
func New(ctx context.Context, opts Options) (*Workspace, error) {
	if opts.Store == nil {
		return nil, errors.New("workspace: store is required")
	}
	if opts.Rasterizer == nil {
		return nil, errors.New("workspace: rasterizer is required")
	}
	if opts.Filename == "" {
		opts.Filename = DefaultFilename
	}
	memes, err := opts.Store.Load(ctx)
	if err != nil {
		log.Printf("warn: gallery unreadable, starting empty: %v", err)
		memes = nil
	}
	return &Workspace{
		store:      opts.Store,
		rasterizer: opts.Rasterizer,
		saver:      opts.Saver,
		filename:   opts.Filename,
		panel:      PanelCreate,
		memes:      memes,
	}, nil
}

// SelectImage replaces the draft image and clears the overlay text.
func (w *Workspace) SelectImage(img *render.Image) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Image = img
	w.draft.Text = ""
}

// SetOverlayText replaces the overlay text.
func (w *Workspace) SetOverlayText(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Text = s
}

// Capture flattens the current draft.
func (w *Workspace) Capture(ctx context.Context) (render.Raster, error) {
	w.mu.Lock()
	if w.capturing {
		w.mu.Unlock()
		return render.Raster{}, ErrCaptureInProgress
	}
	if !w.draft.HasImage() {
		w.mu.Unlock()
		return render.Raster{}, &CaptureError{Reason: "no image selected", Err: render.ErrNoImage}
	}
	scene := render.Scene{Image: w.draft.Image, Text: w.draft.Text}
	w.capturing = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.capturing = false
		w.mu.Unlock()
	}()

	r, err := w.rasterizer.Rasterize(ctx, scene)
	if err != nil {
		return render.Raster{}, &CaptureError{Reason: "rasterize", Err: err}
	}
	return r, nil
}

// Download captures the draft and saves it under the fixed filename.
func (w *Workspace) Download(ctx context.Context) (string, error) {
	if w.saver == nil {
		return "", errors.New("workspace: no saver configured")
	}
	r, err := w.Capture(ctx)
	if err != nil {
		return "", err
	}
	path, err := w.saver.Save(ctx, w.filename, r.PNG)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	return path, nil
}

// SaveToGallery captures the draft, appends it to the gallery and persists
// the whole gallery. If the capture fails nothing changes. If only the write
// fails the append is kept and a *StorageWriteError is returned.
func (w *Workspace) SaveToGallery(ctx context.Context) (gallery.Meme, error) {
	r, err := w.Capture(ctx)
	if err != nil {
		return "", err
	}
	meme := gallery.Meme(r.DataURL())

	w.mu.Lock()
	defer w.mu.Unlock()
	next := make([]gallery.Meme, len(w.memes), len(w.memes)+1)
	copy(next, w.memes)
	next = append(next, meme)

	saveErr := w.store.Save(ctx, next)
	w.memes = next
	w.lastProduced = meme
	if saveErr != nil {
		log.Printf("warn: save meme: %v", saveErr)
		return meme, &StorageWriteError{Op: "save", Err: saveErr}
	}
	return meme, nil
}

// DeleteFromGallery removes the meme at pos and persists the rest in order.
func (w *Workspace) DeleteFromGallery(ctx context.Context, pos int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if pos < 0 || pos >= len(w.memes) {
		return fmt.Errorf("%w: %d (gallery has %d)", ErrPositionOutOfRange, pos, len(w.memes))
	}
	next := make([]gallery.Meme, 0, len(w.memes)-1)
	next = append(next, w.memes[:pos]...)
	next = append(next, w.memes[pos+1:]...)

	saveErr := w.store.Save(ctx, next)
	w.memes = next
	if saveErr != nil {
		log.Printf("warn: delete meme %d: %v", pos, saveErr)
		return &StorageWriteError{Op: "delete", Err: saveErr}
	}
	return nil
}

// Refresh clears the draft and the last produced meme. The gallery stays.
func (w *Workspace) Refresh() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = Draft{}
	w.lastProduced = ""
}

// SwitchPanel changes the visible panel only.
func (w *Workspace) SwitchPanel(p Panel) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.panel = p
}

func (w *Workspace) Panel() Panel {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.panel
}

func (w *Workspace) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Gallery returns a copy of the saved memes in insertion order.
func (w *Workspace) Gallery() []gallery.Meme {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]gallery.Meme, len(w.memes))
	copy(out, w.memes)
	return out
}

// LastProduced is the meme most recently saved from the current draft, or
// empty after a refresh.
func (w *Workspace) LastProduced() gallery.Meme {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastProduced
}

// Busy reports whether a capture is in flight.
func (w *Workspace) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.capturing
}
