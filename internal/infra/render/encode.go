package render

import (
	"image"
	"image/png"
	"io"
)

// Encoder serializes a rasterized chart.
type Encoder interface {
	Encode(w io.Writer, img image.Image) error
	MimeType() string
}

// PNGEncoder writes lossless PNG output.
type PNGEncoder struct{}

func (PNGEncoder) Encode(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

func (PNGEncoder) MimeType() string { return "image/png" }
