package tui

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"github.com/jask/jaskmeme/internal/export"
	"github.com/jask/jaskmeme/internal/gallery"
	"github.com/jask/jaskmeme/internal/picker"
	"github.com/jask/jaskmeme/internal/render"
	"github.com/jask/jaskmeme/internal/share"
	"github.com/jask/jaskmeme/internal/testdata"
	"github.com/jask/jaskmeme/internal/workspace"
)

func TestMain(m *testing.M) {
	// skip asking the terminal for its background colour
	lipgloss.SetHasDarkBackground(true)
	os.Exit(m.Run())
}

type fakeOpener struct{ urls []string }

func (o *fakeOpener) Open(u string) error {
	o.urls = append(o.urls, u)
	return nil
}

type harness struct {
	app      *App
	ws       *workspace.Workspace
	store    *gallery.MemoryStore
	opener   *fakeOpener
	download string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	images := t.TempDir()
	_, err := testdata.WriteSamples(images, 60, 40, "cat.png")
	require.NoError(t, err)
	_, err = testdata.WriteSamples(images, 40, 40, "dog.png")
	require.NoError(t, err)

	comp, err := render.NewCompositor(render.DefaultStyle())
	require.NoError(t, err)
	store := gallery.NewMemoryStore("")
	downloads := t.TempDir()
	ws, err := workspace.New(ctx, workspace.Options{
		Store:      store,
		Rasterizer: comp,
		Saver:      export.NewDiskSaver(downloads),
	})
	require.NoError(t, err)
	pk, err := picker.Open(images)
	require.NoError(t, err)

	opener := &fakeOpener{}
	app := New(ctx, Options{
		Workspace:    ws,
		Picker:       pk,
		Share:        share.NewService(nil, opener),
		PreviewWidth: 10,
	})
	return &harness{app: app, ws: ws, store: store, opener: opener, download: downloads}
}

// press sends a key and runs the resulting command once, feeding its
// message back into Update.
func (h *harness) press(k tea.KeyMsg) {
	_, cmd := h.app.Update(k)
	h.run(cmd)
}

func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	switch msg.(type) {
	case nil, tea.BatchMsg:
		return
	}
	// cursor blinks and the like are not ours
	if !isAppMsg(msg) {
		return
	}
	h.app.Update(msg)
}

func isAppMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case statusMsg, errMsg, imageLoadedMsg, downloadedMsg, savedMsg, deletedMsg, sharedMsg:
		return true
	}
	return false
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) loadCat(t *testing.T) {
	t.Helper()
	h.typeText("cat.png")
	h.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, h.ws.Draft().HasImage(), h.app.status)
}

func alt(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}, Alt: true} }

func runes(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

func TestPanelSwitching(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	require.Equal(t, workspace.PanelCreate, h.ws.Panel())
	require.Contains(t, h.app.View(), "Create Meme")

	h.press(tea.KeyMsg{Type: tea.KeyF2})
	require.Equal(t, workspace.PanelGallery, h.ws.Panel())
	require.Contains(t, h.app.View(), "No memes saved yet")

	h.press(tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Equal(t, workspace.PanelCreate, h.ws.Panel())

	h.press(tea.KeyMsg{Type: tea.KeyCtrlG})
	require.Equal(t, workspace.PanelGallery, h.ws.Panel())

	_, cmd := h.app.Update(runes('q'))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTabCompletesAndLoads(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.typeText("ca")
	h.press(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, "cat.png", h.app.pathInput.Value())

	// overlay input only appears once an image is selected
	require.NotContains(t, h.app.View(), "text:")
	h.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, h.ws.Draft().HasImage())
	require.Equal(t, fieldText, h.app.focus)
	require.Contains(t, h.app.View(), "text:")
	require.Contains(t, h.app.status, "loaded cat.png (60x40)")
}

func TestLoadMissingImageSuggests(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.typeText("dgo.png")
	h.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, h.ws.Draft().HasImage())
	require.Contains(t, h.app.status, "error:")
	require.Contains(t, h.app.status, "did you mean dog.png?")
}

func TestTypingSetsOverlayText(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.loadCat(t)

	h.typeText("one does not simply")
	require.Equal(t, "one does not simply", h.ws.Draft().Text)
	require.Contains(t, h.app.View(), "one does not simply")
}

func TestSaveShareAndDelete(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.loadCat(t)
	h.typeText("hi")

	// no share bar before anything is saved
	require.NotContains(t, h.app.View(), "Share:")
	h.press(alt('f'))
	require.Equal(t, "save the meme before sharing", h.app.status)

	h.press(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Len(t, h.ws.Gallery(), 1)
	require.Equal(t, 1, h.store.Saves())
	require.Contains(t, h.app.status, "saved to gallery (1 total)")
	require.Contains(t, h.app.View(), "Share:")

	h.press(alt('t'))
	require.Len(t, h.opener.urls, 1)
	require.True(t, strings.HasPrefix(h.opener.urls[0], "https://twitter.com/intent/tweet?text=hi&url=data%3Aimage%2Fpng"))
	require.Equal(t, "shared to Twitter", h.app.status)

	h.press(alt('i'))
	require.Equal(t, share.InstagramNotice, h.app.status)
	require.Len(t, h.opener.urls, 1)

	h.press(tea.KeyMsg{Type: tea.KeyF2})
	view := h.app.View()
	require.Contains(t, view, "Gallery (1)")
	require.Contains(t, view, "> meme 1")

	h.press(runes('f'))
	require.Len(t, h.opener.urls, 2)
	require.Contains(t, h.opener.urls[1], "facebook.com/sharer")

	h.press(runes('x'))
	require.Empty(t, h.ws.Gallery())
	require.Equal(t, "meme deleted", h.app.status)
	require.Equal(t, "[]", h.store.Raw())
}

func TestDownloadWritesFile(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.press(tea.KeyMsg{Type: tea.KeyCtrlD})
	require.Equal(t, "select an image first", h.app.status)

	h.loadCat(t)
	h.press(tea.KeyMsg{Type: tea.KeyCtrlD})
	require.False(t, h.app.busy)
	want := filepath.Join(h.download, "meme.png")
	require.Equal(t, "downloaded to "+want, h.app.status)
	_, err := os.Stat(want)
	require.NoError(t, err)
}

func TestCaptureKeysIgnoredWhileBusy(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.loadCat(t)

	_, first := h.app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, first)
	require.True(t, h.app.busy)
	require.Equal(t, rendering, h.app.status)

	_, second := h.app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Nil(t, second)
	_, third := h.app.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	require.Nil(t, third)
	require.Equal(t, rendering, h.app.status)

	h.run(first)
	require.False(t, h.app.busy)
	require.Len(t, h.ws.Gallery(), 1)
}

func TestSaveStorageFailureIsNotice(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.store.FailSave = errors.New("quota exceeded")
	h.loadCat(t)

	h.press(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Len(t, h.ws.Gallery(), 1)
	require.Contains(t, h.app.status, "saved for this session")
	require.Contains(t, h.app.status, "quota exceeded")
}

func TestRefreshClearsDraft(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.loadCat(t)
	h.typeText("hi")
	h.press(tea.KeyMsg{Type: tea.KeyCtrlS})

	h.press(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.False(t, h.ws.Draft().HasImage())
	require.Empty(t, h.ws.LastProduced())
	require.Len(t, h.ws.Gallery(), 1)
	require.Empty(t, h.app.pathInput.Value())
	require.Equal(t, fieldPath, h.app.focus)
	require.NotContains(t, h.app.View(), "Share:")
}

func TestHalfBlocks(t *testing.T) {
	t.Parallel()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	out := halfBlocks(img, 4)
	require.Len(t, strings.Split(out, "\n"), 2)
	require.Equal(t, 8, strings.Count(out, upperHalfBlock))
	require.Empty(t, halfBlocks(img, 0))
}

func TestGalleryLoadedAtStartup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	comp, err := render.NewCompositor(render.DefaultStyle())
	require.NoError(t, err)
	store := gallery.NewMemoryStore("")
	_, err = testdata.SeedGallery(ctx, store, comp, "first", "second", "third")
	require.NoError(t, err)

	ws, err := workspace.New(ctx, workspace.Options{Store: store, Rasterizer: comp})
	require.NoError(t, err)
	app := New(ctx, Options{Workspace: ws, PreviewWidth: 8})

	app.Update(tea.KeyMsg{Type: tea.KeyF2})
	app.Update(runes('j'))
	app.Update(runes('j'))
	app.Update(runes('j'))
	require.Equal(t, 2, app.galleryCursor)
	view := app.View()
	require.Contains(t, view, "Gallery (3)")
	require.Contains(t, view, "> meme 3")
	require.Contains(t, view, upperHalfBlock)

	// sharing without a share service is a notice, not a crash
	_, cmd := app.Update(runes('t'))
	require.NotNil(t, cmd)
	app.Update(cmd())
	require.Equal(t, "sharing is not configured", app.status)
}

func TestDraftPreviewFollowsEachLoad(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	load := func(name string) {
		h.app.setFocus(fieldPath)
		h.app.pathInput.SetValue(name)
		h.press(tea.KeyMsg{Type: tea.KeyEnter})
		require.Equal(t, name, h.ws.Draft().Image.Name, h.app.status)
	}

	h.loadCat(t)
	first := h.app.View()
	require.Equal(t, 1, h.app.draftSeq)
	require.Equal(t, 1, h.app.previews.Len())

	load("dog.png")
	second := h.app.View()
	require.Equal(t, 2, h.app.draftSeq)
	require.Equal(t, 2, h.app.previews.Len())
	require.NotEqual(t, first, second)

	// reloading the same file gets a fresh entry
	load("cat.png")
	h.app.View()
	require.Equal(t, 3, h.app.draftSeq)
	require.Equal(t, 3, h.app.previews.Len())
}
