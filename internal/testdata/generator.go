// Package testdata produces sample images and galleries for tests and demos.
package testdata

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/jask/jaskmeme/internal/gallery"
	"github.com/jask/jaskmeme/internal/render"
)

// Gradient is a left-to-right blend from one colour to another.
func Gradient(w, h int, from, to colorful.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		t := 0.0
		if w > 1 {
			t = float64(x) / float64(w-1)
		}
		c := from.BlendLab(to, t).Clamped()
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteSamples writes one w×h gradient PNG per name into dir, each with its
// own hue, and returns the paths.
func WriteSamples(dir string, w, h int, names ...string) ([]string, error) {
	paths := make([]string, 0, len(names))
	for i, name := range names {
		hue := float64(i*67%300) + 10
		img := Gradient(w, h, colorful.Hsv(hue, 0.7, 0.9), colorful.Hsv(hue+40, 0.5, 0.4))
		path := filepath.Join(dir, name)
		if err := WritePNG(path, img); err != nil {
			return nil, fmt.Errorf("sample %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// SeedGallery renders one meme per caption and saves them all to store.
func SeedGallery(ctx context.Context, store gallery.Store, c *render.Compositor, captions ...string) ([]gallery.Meme, error) {
	memes := make([]gallery.Meme, 0, len(captions))
	for i, caption := range captions {
		hue := float64(i*53%320) + 20
		img := &render.Image{
			Name:   fmt.Sprintf("seed-%d.png", i+1),
			Format: "png",
			Pixels: Gradient(200, 120, colorful.Hsv(hue, 0.4, 1), colorful.Hsv(hue, 0.8, 0.6)),
		}
		r, err := c.Rasterize(ctx, render.Scene{Image: img, Text: caption})
		if err != nil {
			return nil, err
		}
		memes = append(memes, gallery.Meme(r.DataURL()))
	}
	if err := store.Save(ctx, memes); err != nil {
		return nil, err
	}
	return memes, nil
}
