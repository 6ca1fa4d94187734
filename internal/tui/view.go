package tui

import (
	"fmt"
	"image"
	"strings"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/jaskmeme/internal/gallery"
	"github.com/jask/jaskmeme/internal/render"
	"github.com/jask/jaskmeme/internal/workspace"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).Reverse(true)
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Faint(true)
	overlayStyle   = lipgloss.NewStyle().Bold(true)
	statusStyle    = lipgloss.NewStyle().Italic(true)
)

func (a *App) View() string {
	panel := a.ws.Panel()
	var body string
	if panel == workspace.PanelGallery {
		body = a.renderGallery()
	} else {
		body = a.renderCreate()
	}
	out := a.renderTabs(panel) + "\n\n" + body
	if a.status != "" {
		out += "\n\n" + statusStyle.Render(a.truncate(a.status))
	}
	return out
}

func (a *App) renderTabs(active workspace.Panel) string {
	tab := func(p workspace.Panel, label string) string {
		if p == active {
			return activeTabStyle.Render(label)
		}
		return tabStyle.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		tab(workspace.PanelCreate, "Create Meme"),
		" ",
		tab(workspace.PanelGallery, "Open Gallery"),
	)
}

func (a *App) renderCreate() string {
	draft := a.ws.Draft()
	lines := []string{titleStyle.Render("Create Meme"), a.pathInput.View()}
	if draft.HasImage() {
		lines = append(lines, a.textInput.View(), "")
		lines = append(lines, a.renderDraft(draft))
	} else if a.picker != nil {
		if s := a.picker.Suggest(a.pathInput.Value(), 5); len(s) > 0 {
			lines = append(lines, "", a.truncate("images: "+strings.Join(s, "  ")))
		}
	}
	produced := a.ws.LastProduced() != ""
	if produced {
		lines = append(lines, "", "Share: [alt+f] Facebook  [alt+t] Twitter  [alt+i] Instagram")
	}
	lines = append(lines, "", a.help.ShortHelpView(a.keys.createHelp(draft.HasImage(), produced)))
	return strings.Join(lines, "\n")
}

func (a *App) renderDraft(d workspace.Draft) string {
	key := fmt.Sprintf("draft:%d:%s", a.draftSeq, d.Image.Name)
	out := a.preview(key, func() (image.Image, error) { return d.Image.Pixels, nil })
	if strings.TrimSpace(d.Text) != "" {
		out = overlayStyle.Render(a.truncate(d.Text)) + "\n" + out
	}
	return out
}

func (a *App) renderGallery() string {
	memes := a.ws.Gallery()
	lines := []string{titleStyle.Render(fmt.Sprintf("Gallery (%d)", len(memes)))}
	if len(memes) == 0 {
		lines = append(lines, "No memes saved yet. Press F1 to make one.")
	}
	if len(memes) > 1 {
		lines = append(lines, sizeSparkline(memes))
	}
	for i, m := range memes {
		marker := " "
		if i == a.galleryCursor {
			marker = ">"
		}
		lines = append(lines, a.truncate(fmt.Sprintf("%s meme %-3d %s", marker, i+1, memeSize(m))))
	}
	if len(memes) > 0 && a.galleryCursor < len(memes) {
		selected := memes[a.galleryCursor]
		lines = append(lines, "", a.preview("meme:"+memeKey(selected), func() (image.Image, error) {
			return render.DecodeDataURLImage(string(selected))
		}))
	}
	lines = append(lines, "", a.help.ShortHelpView(a.keys.galleryHelp()))
	return strings.Join(lines, "\n")
}

func memeSize(m gallery.Meme) string {
	kb, ok := memeKB(m)
	if !ok {
		return "(unreadable)"
	}
	return fmt.Sprintf("%.1f KB", kb)
}

func memeKB(m gallery.Meme) (float64, bool) {
	_, data, err := render.DecodeDataURL(string(m))
	if err != nil {
		return 0, false
	}
	return float64(len(data)) / 1024, true
}

// sizeSparkline charts meme sizes in gallery order, newest on the right.
func sizeSparkline(memes []gallery.Meme) string {
	width := min(len(memes), 40)
	sl := sparkline.New(width, 2)
	for _, m := range memes[len(memes)-width:] {
		kb, _ := memeKB(m)
		sl.Push(kb)
	}
	sl.Draw()
	return sl.View()
}

func (a *App) truncate(s string) string {
	if a.width <= 0 {
		return s
	}
	return ansi.Truncate(s, a.width, "…")
}
