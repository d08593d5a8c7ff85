package render

import (
	"context"
)

// Canvas is the rendering context handed to anything that draws: the surface, the
// shared image loader, and the default colors. One is created at startup and passed
// down explicitly.
type Canvas struct {
	Surface    Surface
	Images     *ImageLoader
	Foreground string
	Background string
}

func NewCanvas(surface Surface, images *ImageLoader) *Canvas {
	return &Canvas{
		Surface:    surface,
		Images:     images,
		Foreground: "black",
		Background: "white",
	}
}

func (c *Canvas) Size() (width, height float64) {
	return c.Surface.Size()
}

// DrawImage loads path (or joins its in-flight load) and blits it into r. A zero-sized
// r uses the image's natural size at r's origin.
func (c *Canvas) DrawImage(ctx context.Context, path string, r Rect) error {
	img, err := c.Images.Load(ctx, path)
	if err != nil {
		return err
	}
	if r.Width == 0 && r.Height == 0 {
		r.Width, r.Height = float64(img.Width), float64(img.Height)
	}
	c.Surface.Image(img, r)
	return nil
}

// Text draws value with the default font and the foreground color when none are given.
func (c *Canvas) Text(value string, x, y float64, font, color string) {
	if font == "" {
		font = DefaultFont
	}
	if color == "" {
		color = c.Foreground
	}
	c.Surface.Text(value, x, y, font, color)
}
