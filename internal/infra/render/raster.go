package render

import (
	"image"

	"github.com/fogleman/gg"
)

// Rasterizer turns a Scene into pixels.
type Rasterizer interface {
	Rasterize(s Scene) (image.Image, error)
}

// GGRasterizer draws scenes with fogleman/gg and its built-in bitmap font.
type GGRasterizer struct{}

func (GGRasterizer) Rasterize(s Scene) (image.Image, error) {
	dc := gg.NewContext(s.Width, s.Height)
	for _, p := range s.Primitives {
		dc.SetColor(p.Color)
		switch p.Shape {
		case ShapeFill:
			dc.Clear()
		case ShapeCircle:
			dc.SetLineWidth(p.Width)
			dc.DrawCircle(p.From.X, p.From.Y, p.Radius)
			dc.Stroke()
		case ShapeDisc:
			dc.DrawCircle(p.From.X, p.From.Y, p.Radius)
			dc.Fill()
		case ShapeLine:
			dc.SetLineWidth(p.Width)
			dc.DrawLine(p.From.X, p.From.Y, p.To.X, p.To.Y)
			dc.Stroke()
		case ShapeText:
			if p.Text != "" {
				dc.DrawStringAnchored(p.Text, p.From.X, p.From.Y, 0.5, 0.5)
			}
		}
	}
	return dc.Image(), nil
}
