// Package tui is the terminal front end: a Create panel that composes a meme
// and a Gallery panel that lists the saved ones.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jask/jaskmeme/internal/gallery"
	"github.com/jask/jaskmeme/internal/picker"
	"github.com/jask/jaskmeme/internal/render"
	"github.com/jask/jaskmeme/internal/share"
	"github.com/jask/jaskmeme/internal/workspace"
)

// Options wires the App to the workspace and its helpers. Picker and Share
// may be nil.
type Options struct {
	Workspace    *workspace.Workspace
	Picker       *picker.Dir
	Share        *share.Service
	PreviewWidth int
}

// App is the bubbletea model.
type App struct {
	ctx    context.Context
	ws     *workspace.Workspace
	picker *picker.Dir
	share  *share.Service

	keys      keyMap
	help      help.Model
	pathInput textinput.Model
	textInput textinput.Model
	focus     field

	galleryCursor int
	draftSeq      int // bumped per loaded image, keys the draft preview
	busy          bool
	status        string
	width         int
	height        int

	previewWidth int
	previews     *lru.Cache[string, string]
}

type field string

const (
	fieldPath field = "path"
	fieldText field = "text"
)

const rendering = "rendering..."

func New(ctx context.Context, opts Options) *App {
	path := textinput.New()
	path.Prompt = "image: "
	path.Placeholder = "path to an image (tab completes)"
	path.Focus()

	text := textinput.New()
	text.Prompt = "text:  "
	text.Placeholder = "Enter meme text"

	width := opts.PreviewWidth
	if width <= 0 {
		width = 40
	}
	cache, _ := lru.New[string, string](64)
	return &App{
		ctx:          ctx,
		ws:           opts.Workspace,
		picker:       opts.Picker,
		share:        opts.Share,
		keys:         defaultKeys(),
		help:         help.New(),
		pathInput:    path,
		textInput:    text,
		focus:        fieldPath,
		previewWidth: width,
		previews:     cache,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.waitForPicker())
}

// messages
type statusMsg string

type errMsg struct{ error }

type imageLoadedMsg struct{ img *render.Image }

type downloadedMsg struct {
	path string
	err  error
}

type savedMsg struct {
	meme gallery.Meme
	err  error
}

type deletedMsg struct{ err error }

type sharedMsg struct {
	target share.Target
	link   string
	err    error
}

type pickerChangedMsg struct{}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.help.Width = m.Width
	case tea.KeyMsg:
		return a.handleKey(m)
	case imageLoadedMsg:
		a.draftSeq++
		a.ws.SelectImage(m.img)
		a.textInput.SetValue("")
		a.setFocus(fieldText)
		w, h := m.img.Size()
		a.status = fmt.Sprintf("loaded %s (%dx%d)", m.img.Name, w, h)
	case downloadedMsg:
		a.busy = false
		if m.err != nil {
			a.status = "error: " + m.err.Error()
			break
		}
		a.status = "downloaded to " + m.path
	case savedMsg:
		a.busy = false
		a.status = a.savedStatus(m)
		a.clampCursor()
	case deletedMsg:
		a.clampCursor()
		var swe *workspace.StorageWriteError
		switch {
		case m.err == nil:
			a.status = "meme deleted"
		case errors.As(m.err, &swe):
			a.status = "deleted, but " + swe.Error()
		default:
			a.status = "error: " + m.err.Error()
		}
	case sharedMsg:
		a.status = sharedStatus(m)
	case pickerChangedMsg:
		return a, a.waitForPicker()
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.busy = false
		a.status = "error: " + m.Error()
	}
	return a, nil
}

func (a *App) savedStatus(m savedMsg) string {
	if m.err == nil {
		return fmt.Sprintf("saved to gallery (%d total)", len(a.ws.Gallery()))
	}
	var swe *workspace.StorageWriteError
	if errors.As(m.err, &swe) {
		return "saved for this session, but " + swe.Error()
	}
	return "error: " + m.err.Error()
}

func sharedStatus(m sharedMsg) string {
	switch {
	case errors.Is(m.err, share.ErrUnsupportedTarget):
		return share.InstagramNotice
	case m.err != nil && m.link != "":
		return "open the link yourself: " + m.link
	case m.err != nil:
		return "error: " + m.err.Error()
	}
	return "shared to " + m.target.Label()
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.CreatePanel):
		a.ws.SwitchPanel(workspace.PanelCreate)
		return a, nil
	case key.Matches(m, a.keys.GalleryPanel):
		a.ws.SwitchPanel(workspace.PanelGallery)
		a.clampCursor()
		return a, nil
	}
	if a.ws.Panel() == workspace.PanelGallery {
		return a.handleGalleryKey(m)
	}
	return a.handleCreateKey(m)
}

func (a *App) handleCreateKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Download):
		if !a.ws.Draft().HasImage() {
			a.status = "select an image first"
			return a, nil
		}
		if a.busy {
			a.status = rendering
			return a, nil
		}
		a.busy = true
		a.status = rendering
		return a, a.downloadCmd()
	case key.Matches(m, a.keys.Save):
		if !a.ws.Draft().HasImage() {
			a.status = "select an image first"
			return a, nil
		}
		if a.busy {
			a.status = rendering
			return a, nil
		}
		a.busy = true
		a.status = rendering
		return a, a.saveCmd()
	case key.Matches(m, a.keys.Refresh):
		a.ws.Refresh()
		a.pathInput.SetValue("")
		a.textInput.SetValue("")
		a.setFocus(fieldPath)
		a.status = "workspace cleared"
		return a, nil
	case key.Matches(m, a.keys.ShareFacebook):
		return a, a.shareLastCmd(share.TargetFacebook)
	case key.Matches(m, a.keys.ShareTwitter):
		return a, a.shareLastCmd(share.TargetTwitter)
	case key.Matches(m, a.keys.ShareInstagram):
		return a, a.shareLastCmd(share.TargetInstagram)
	case key.Matches(m, a.keys.Complete):
		a.tabPressed()
		return a, nil
	case key.Matches(m, a.keys.Load) && a.focus == fieldPath:
		return a, a.loadImageCmd(a.pathInput.Value())
	}

	var cmd tea.Cmd
	if a.focus == fieldText {
		before := a.textInput.Value()
		a.textInput, cmd = a.textInput.Update(m)
		if v := a.textInput.Value(); v != before {
			a.ws.SetOverlayText(v)
		}
		return a, cmd
	}
	a.pathInput, cmd = a.pathInput.Update(m)
	return a, cmd
}

// tabPressed completes the path from the picker, or moves between the
// path and text fields once an image is loaded.
func (a *App) tabPressed() {
	if a.focus == fieldText {
		a.setFocus(fieldPath)
		return
	}
	if a.picker != nil {
		current := a.pathInput.Value()
		if s := a.picker.Suggest(current, 1); len(s) > 0 && s[0] != current {
			a.pathInput.SetValue(s[0])
			a.pathInput.CursorEnd()
			return
		}
	}
	if a.ws.Draft().HasImage() {
		a.setFocus(fieldText)
	}
}

func (a *App) setFocus(f field) {
	a.focus = f
	if f == fieldText {
		a.pathInput.Blur()
		a.textInput.Focus()
		return
	}
	a.textInput.Blur()
	a.pathInput.Focus()
}

func (a *App) handleGalleryKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	memes := a.ws.Gallery()
	switch {
	case key.Matches(m, a.keys.GalleryQuit):
		return a, tea.Quit
	case key.Matches(m, a.keys.Up):
		if a.galleryCursor > 0 {
			a.galleryCursor--
		}
	case key.Matches(m, a.keys.Down):
		if a.galleryCursor < len(memes)-1 {
			a.galleryCursor++
		}
	case key.Matches(m, a.keys.Delete):
		if len(memes) == 0 {
			return a, nil
		}
		return a, a.deleteCmd(a.galleryCursor)
	case key.Matches(m, a.keys.GalleryFacebook):
		return a, a.shareSelectedCmd(memes, share.TargetFacebook)
	case key.Matches(m, a.keys.GalleryTwitter):
		return a, a.shareSelectedCmd(memes, share.TargetTwitter)
	case key.Matches(m, a.keys.GalleryInstagram):
		return a, a.shareSelectedCmd(memes, share.TargetInstagram)
	}
	return a, nil
}

func (a *App) clampCursor() {
	n := len(a.ws.Gallery())
	if a.galleryCursor >= n {
		a.galleryCursor = n - 1
	}
	if a.galleryCursor < 0 {
		a.galleryCursor = 0
	}
}

// commands
func (a *App) loadImageCmd(input string) tea.Cmd {
	input = strings.TrimSpace(input)
	if input == "" {
		return func() tea.Msg { return statusMsg("type a path to an image") }
	}
	path := input
	if a.picker != nil {
		path = a.picker.Resolve(input)
	}
	return func() tea.Msg {
		img, err := render.Open(path)
		if err != nil {
			if a.picker != nil {
				if s := a.picker.Suggest(input, 1); len(s) > 0 {
					return errMsg{fmt.Errorf("%w (did you mean %s?)", err, s[0])}
				}
			}
			return errMsg{err}
		}
		return imageLoadedMsg{img: img}
	}
}

func (a *App) downloadCmd() tea.Cmd {
	return func() tea.Msg {
		path, err := a.ws.Download(a.ctx)
		return downloadedMsg{path: path, err: err}
	}
}

func (a *App) saveCmd() tea.Cmd {
	return func() tea.Msg {
		meme, err := a.ws.SaveToGallery(a.ctx)
		return savedMsg{meme: meme, err: err}
	}
}

func (a *App) deleteCmd(pos int) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{err: a.ws.DeleteFromGallery(a.ctx, pos)}
	}
}

func (a *App) shareLastCmd(target share.Target) tea.Cmd {
	meme := a.ws.LastProduced()
	if meme == "" {
		return func() tea.Msg { return statusMsg("save the meme before sharing") }
	}
	return a.shareCmd(target, meme)
}

func (a *App) shareSelectedCmd(memes []gallery.Meme, target share.Target) tea.Cmd {
	if len(memes) == 0 {
		return nil
	}
	return a.shareCmd(target, memes[a.galleryCursor])
}

func (a *App) shareCmd(target share.Target, meme gallery.Meme) tea.Cmd {
	if a.share == nil {
		return func() tea.Msg { return statusMsg("sharing is not configured") }
	}
	text := a.ws.Draft().Text
	return func() tea.Msg {
		link, err := a.share.Share(a.ctx, target, meme, text)
		return sharedMsg{target: target, link: link, err: err}
	}
}

func (a *App) waitForPicker() tea.Cmd {
	if a.picker == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-a.picker.Changes():
			return pickerChangedMsg{}
		case <-a.ctx.Done():
			return nil
		}
	}
}
