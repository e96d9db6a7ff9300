package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yanqian/astrochart/internal/domain/chart"
	"github.com/yanqian/astrochart/internal/infra/render"
	"github.com/yanqian/astrochart/pkg/logger"
)

var renderFlags struct {
	in     string
	kind   string
	title  string
	out    string
	width  int
	height int
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a chart snapshot JSON file into a PNG zodiac wheel",
	RunE:  runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderFlags.in, "in", "i", "-", "chart snapshot JSON, - for stdin")
	f.StringVar(&renderFlags.kind, "kind", string(chart.KindNatal), "chart kind: natal or wheel")
	f.StringVar(&renderFlags.title, "title", "", "optional title drawn at the top")
	f.StringVarP(&renderFlags.out, "out", "o", "chart.png", "output PNG file, - for stdout")
	f.IntVar(&renderFlags.width, "width", render.DefaultCanvas.Width, "canvas width in pixels")
	f.IntVar(&renderFlags.height, "height", render.DefaultCanvas.Height, "canvas height in pixels")
}

func runRender(cmd *cobra.Command, _ []string) error {
	snapshot, err := readChart(cmd.InOrStdin(), renderFlags.in)
	if err != nil {
		return err
	}

	renderer := render.NewRenderer(render.Config{
		Width:   renderFlags.width,
		Height:  renderFlags.height,
		Workers: 1,
	}, logger.NewTo(os.Stderr))

	ctx, cancel := commandContext(cmd)
	defer cancel()
	img, err := renderer.Render(ctx, snapshot, chart.Kind(renderFlags.kind), renderFlags.title)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), renderFlags.out, func(w io.Writer) error {
		_, err := w.Write(img)
		return err
	})
}

func readChart(stdin io.Reader, path string) (chart.Chart, error) {
	var src io.Reader = stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return chart.Chart{}, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		src = f
	}
	var c chart.Chart
	if err := json.NewDecoder(src).Decode(&c); err != nil {
		return chart.Chart{}, fmt.Errorf("decode chart snapshot: %w", err)
	}
	return c, nil
}
