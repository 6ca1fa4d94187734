// Package render flattens a draft (image plus overlay text) into a PNG.
package render

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrNoImage is returned when a scene has no image to draw.
var ErrNoImage = errors.New("render: no image")

// Image is the handle for a user-selected picture.
type Image struct {
	Name   string
	Format string
	Pixels image.Image
}

// Size returns the source dimensions.
func (i *Image) Size() (int, int) {
	if i == nil || i.Pixels == nil {
		return 0, 0
	}
	b := i.Pixels.Bounds()
	return b.Dx(), b.Dy()
}

// Open decodes the image file at path.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(filepath.Base(path), f)
}

// Decode reads an image in any registered format (png, jpeg, gif, webp, bmp).
func Decode(name string, r io.Reader) (*Image, error) {
	px, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if b := px.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode %s: %w", name, ErrNoImage)
	}
	return &Image{Name: name, Format: format, Pixels: px}, nil
}

// IsImageFile reports whether path has an extension we can decode.
func IsImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp":
		return true
	}
	return false
}
