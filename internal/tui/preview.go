package tui

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/jask/jaskmeme/internal/gallery"
)

const upperHalfBlock = "▀"

// halfBlocks renders img cols cells wide, two pixel rows per terminal row.
func halfBlocks(img image.Image, cols int) string {
	b := img.Bounds()
	if cols <= 0 || b.Dx() == 0 || b.Dy() == 0 {
		return ""
	}
	// terminal cells are roughly twice as tall as wide, which the two
	// pixels per cell cancel out
	rows := (b.Dy()*cols + b.Dx() - 1) / b.Dx()
	if rows%2 == 1 {
		rows++
	}
	small := image.NewRGBA(image.Rect(0, 0, cols, rows))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, b, draw.Src, nil)

	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		for x := 0; x < cols; x++ {
			top, _ := colorful.MakeColor(small.At(x, y))
			bottom, _ := colorful.MakeColor(small.At(x, y+1))
			cell := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top.Hex())).
				Background(lipgloss.Color(bottom.Hex()))
			sb.WriteString(cell.Render(upperHalfBlock))
		}
		if y+2 < rows {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// preview renders what load returns, cached under key.
func (a *App) preview(key string, load func() (image.Image, error)) string {
	if out, ok := a.previews.Get(key); ok {
		return out
	}
	src, err := load()
	if err != nil {
		return "(preview unavailable: " + err.Error() + ")"
	}
	out := halfBlocks(src, a.previewWidth)
	a.previews.Add(key, out)
	return out
}

func memeKey(m gallery.Meme) string {
	sum := sha256.Sum256([]byte(m))
	return hex.EncodeToString(sum[:8])
}
