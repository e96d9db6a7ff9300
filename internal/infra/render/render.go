package render

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/yanqian/astrochart/internal/domain/chart"
	apperrors "github.com/yanqian/astrochart/pkg/errors"
)

// Config sizes the canvas and the rasterization pool.
type Config struct {
	Width   int
	Height  int
	Workers int
}

// Renderer implements chart.Renderer: scene -> raster -> encoded bytes.
type Renderer struct {
	canvas  Canvas
	raster  Rasterizer
	encoder Encoder
	pool    *Pool
	logger  *slog.Logger
}

// NewRenderer builds a PNG renderer drawing with gg.
func NewRenderer(cfg Config, logger *slog.Logger) *Renderer {
	canvas := DefaultCanvas
	if cfg.Width > 0 && cfg.Height > 0 {
		canvas = Canvas{Width: cfg.Width, Height: cfg.Height}
	}
	return &Renderer{
		canvas:  canvas,
		raster:  GGRasterizer{},
		encoder: PNGEncoder{},
		pool:    NewPool(cfg.Workers),
		logger:  logger.With("component", "render.renderer"),
	}
}

// Render draws c and returns the encoded image. Nothing is returned when any step fails.
func (r *Renderer) Render(ctx context.Context, c chart.Chart, kind chart.Kind, title string) ([]byte, error) {
	scene, err := r.canvas.BuildScene(c, kind, title)
	if err != nil {
		return nil, err
	}

	var out []byte
	err = r.pool.Do(ctx, func() error {
		img, err := r.raster.Rasterize(scene)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeRender, "rasterize chart", err)
		}
		var buf bytes.Buffer
		if err := r.encoder.Encode(&buf, img); err != nil {
			return apperrors.Wrap(apperrors.CodeRender, "encode chart image", err)
		}
		out = buf.Bytes()
		return nil
	})
	if err != nil {
		if ctx.Err() != nil && !apperrors.IsCode(err, apperrors.CodeRender) {
			return nil, apperrors.Wrap(apperrors.CodeRender, "render slot unavailable", err)
		}
		r.logger.Error("chart render failed", "type", kind, "error", err)
		return nil, err
	}
	r.logger.Debug("chart rendered", "type", kind, "primitives", len(scene.Primitives), "bytes", len(out))
	return out, nil
}

// MimeType is the content type of the bytes Render returns.
func (r *Renderer) MimeType() string {
	return r.encoder.MimeType()
}

var _ chart.Renderer = (*Renderer)(nil)
