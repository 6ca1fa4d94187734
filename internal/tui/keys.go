package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	CreatePanel  key.Binding
	GalleryPanel key.Binding
	Quit         key.Binding

	// create panel
	Complete       key.Binding
	Load           key.Binding
	Download       key.Binding
	Save           key.Binding
	Refresh        key.Binding
	ShareFacebook  key.Binding
	ShareTwitter   key.Binding
	ShareInstagram key.Binding

	// gallery panel
	Up               key.Binding
	Down             key.Binding
	Delete           key.Binding
	GalleryFacebook  key.Binding
	GalleryTwitter   key.Binding
	GalleryInstagram key.Binding
	GalleryQuit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		CreatePanel:  key.NewBinding(key.WithKeys("f1", "ctrl+n"), key.WithHelp("F1", "create meme")),
		GalleryPanel: key.NewBinding(key.WithKeys("f2", "ctrl+g"), key.WithHelp("F2", "open gallery")),
		Quit:         key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),

		Complete:       key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "complete/next")),
		Load:           key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "load image")),
		Download:       key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "download")),
		Save:           key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Refresh:        key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		ShareFacebook:  key.NewBinding(key.WithKeys("alt+f"), key.WithHelp("alt+f", "facebook")),
		ShareTwitter:   key.NewBinding(key.WithKeys("alt+t"), key.WithHelp("alt+t", "twitter")),
		ShareInstagram: key.NewBinding(key.WithKeys("alt+i"), key.WithHelp("alt+i", "instagram")),

		Up:               key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:             key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Delete:           key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		GalleryFacebook:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "facebook")),
		GalleryTwitter:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "twitter")),
		GalleryInstagram: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "instagram")),
		GalleryQuit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) createHelp(hasImage, produced bool) []key.Binding {
	out := []key.Binding{k.Complete, k.Load}
	if hasImage {
		out = append(out, k.Download, k.Save)
	}
	out = append(out, k.Refresh)
	if produced {
		out = append(out, k.ShareFacebook, k.ShareTwitter, k.ShareInstagram)
	}
	return append(out, k.GalleryPanel, k.Quit)
}

func (k keyMap) galleryHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Delete, k.GalleryFacebook, k.GalleryTwitter, k.GalleryInstagram, k.CreatePanel, k.GalleryQuit}
}
