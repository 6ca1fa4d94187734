package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Scene is what gets flattened: the selected image with text on top.
type Scene struct {
	Image *Image
	Text  string
}

// Raster is a flattened scene encoded as PNG.
type Raster struct {
	PNG    []byte
	Width  int
	Height int
}

// DataURL returns the raster as a data:image/png URL.
func (r Raster) DataURL() string {
	return EncodeDataURL("image/png", r.PNG)
}

// Style fixes the layout of the flattened meme.
type Style struct {
	Width        int // output width; height follows the image aspect ratio
	FontSize     float64
	OffsetX      int
	OffsetY      int
	Background   color.Color
	TextColor    color.Color
	ShadowColor  color.Color
	ShadowOffset int
	ShadowBlur   int
}

// DefaultStyle matches the classic layout: 300px wide, bold 24px black text
// at 10px/10px with a soft black shadow, on white.
func DefaultStyle() Style {
	return Style{
		Width:        300,
		FontSize:     24,
		OffsetX:      10,
		OffsetY:      10,
		Background:   color.White,
		TextColor:    color.Black,
		ShadowColor:  color.Black,
		ShadowOffset: 2,
		ShadowBlur:   4,
	}
}

// ParseColor accepts #rgb or #rrggbb (the leading # is optional).
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Compositor rasterizes scenes in process. It is safe for concurrent use.
type Compositor struct {
	style Style

	mu   sync.Mutex // font.Face is not safe for concurrent use
	face font.Face
}

// NewCompositor loads the overlay font for style.
func NewCompositor(style Style) (*Compositor, error) {
	if style.Width <= 0 {
		return nil, fmt.Errorf("render: width must be positive")
	}
	if style.Background == nil {
		style.Background = color.White
	}
	if style.TextColor == nil {
		style.TextColor = color.Black
	}
	if style.ShadowColor == nil {
		style.ShadowColor = color.Black
	}
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    style.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("render: font face: %w", err)
	}
	return &Compositor{style: style, face: face}, nil
}

// Style returns the layout the compositor draws with.
func (c *Compositor) Style() Style { return c.style }

// Rasterize flattens scene and encodes it as PNG.
func (c *Compositor) Rasterize(ctx context.Context, scene Scene) (Raster, error) {
	if err := ctx.Err(); err != nil {
		return Raster{}, err
	}
	img, err := c.Composite(scene)
	if err != nil {
		return Raster{}, err
	}
	if err := ctx.Err(); err != nil {
		return Raster{}, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Raster{}, fmt.Errorf("render: encode png: %w", err)
	}
	b := img.Bounds()
	return Raster{PNG: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// Composite draws scene into a new RGBA image.
func (c *Compositor) Composite(scene Scene) (*image.RGBA, error) {
	if scene.Image == nil || scene.Image.Pixels == nil {
		return nil, ErrNoImage
	}
	src := scene.Image.Pixels
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return nil, ErrNoImage
	}

	w := c.style.Width
	h := (sb.Dy()*w + sb.Dx()/2) / sb.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c.style.Background), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)

	if strings.TrimSpace(scene.Text) == "" {
		return dst, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lines := wrapText(c.face, scene.Text, w-c.style.OffsetX)
	m := c.face.Metrics()
	lineHeight := m.Height.Ceil()
	top := c.style.OffsetY + m.Ascent.Ceil()

	if c.style.ShadowColor != nil {
		mask := image.NewAlpha(dst.Bounds())
		c.drawLines(mask, image.Opaque, lines, c.style.OffsetX+c.style.ShadowOffset, top+c.style.ShadowOffset, lineHeight)
		blurAlpha(mask, c.style.ShadowBlur/2)
		draw.DrawMask(dst, dst.Bounds(), image.NewUniform(c.style.ShadowColor), image.Point{}, mask, image.Point{}, draw.Over)
	}
	c.drawLines(dst, image.NewUniform(c.style.TextColor), lines, c.style.OffsetX, top, lineHeight)
	return dst, nil
}

func (c *Compositor) drawLines(dst draw.Image, src image.Image, lines []string, x, baseline, lineHeight int) {
	d := &font.Drawer{Dst: dst, Src: src, Face: c.face}
	for i, line := range lines {
		d.Dot = fixed.P(x, baseline+i*lineHeight)
		d.DrawString(line)
	}
}

// wrapText breaks text on whitespace so each line fits maxWidth pixels.
// A single word wider than maxWidth keeps a line of its own.
func wrapText(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		candidate := current + " " + w
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = w
	}
	return append(lines, current)
}

// blurAlpha applies two passes of a separable box blur of the given radius,
// a cheap stand-in for a gaussian.
func blurAlpha(img *image.Alpha, radius int) {
	if radius <= 0 {
		return
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	tmp := make([]uint8, len(img.Pix))
	for pass := 0; pass < 2; pass++ {
		boxPass(img.Pix, tmp, w, h, img.Stride, radius, true)
		boxPass(tmp, img.Pix, w, h, img.Stride, radius, false)
	}
}

func boxPass(src, dst []uint8, w, h, stride, r int, horizontal bool) {
	outer, inner := h, w
	if !horizontal {
		outer, inner = w, h
	}
	at := func(o, i int) int {
		if horizontal {
			return o*stride + i
		}
		return i*stride + o
	}
	span := 2*r + 1
	for o := 0; o < outer; o++ {
		sum := 0
		for i := -r; i <= r; i++ {
			if i >= 0 && i < inner {
				sum += int(src[at(o, i)])
			}
		}
		for i := 0; i < inner; i++ {
			dst[at(o, i)] = uint8(sum / span)
			if out := i - r; out >= 0 {
				sum -= int(src[at(o, out)])
			}
			if in := i + r + 1; in < inner {
				sum += int(src[at(o, in)])
			}
		}
	}
}
