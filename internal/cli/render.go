package cli

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/roach88/latticeglyph/internal/glyph"
	"github.com/roach88/latticeglyph/internal/render"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions

	StyleFile   string
	Rotation    float64
	Mirror      bool
	Flip        bool
	Stroke      string
	StrokeWidth float64
	Nodes       bool
	Grid        bool
	Background  string
	Padding     float64

	PNG    bool
	Size   int
	Output string
}

// RenderResult is the JSON payload of render.
type RenderResult struct {
	Lattice string `json:"lattice"`
	Text    string `json:"text"`
	Markup  string `json:"markup"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <text>",
		Short: "Render text as an SVG glyph",
		Long: `Render text under a lattice as an SVG fragment, or as a PNG preview with --png.

Style comes from --style (YAML) and is then overridden by individual flags.
PNG output is refused on a terminal; redirect it or use --output.

Examples:
  glyph render "HELLO" > hello.svg
  glyph render "HELLO" --rotation 90 --mirror --grid
  glyph render "HELLO" --png --size 512 -o hello.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	fl := cmd.Flags()
	def := render.DefaultStyle()
	fl.StringVar(&opts.StyleFile, "style", "", "YAML style file")
	fl.Float64Var(&opts.Rotation, "rotation", 0, "rotation in degrees, clockwise")
	fl.BoolVar(&opts.Mirror, "mirror", false, "reflect horizontally")
	fl.BoolVar(&opts.Flip, "flip", false, "reflect vertically")
	fl.StringVar(&opts.Stroke, "stroke", def.Stroke, "stroke color")
	fl.Float64Var(&opts.StrokeWidth, "stroke-width", def.StrokeWidth, "stroke width")
	fl.BoolVar(&opts.Nodes, "nodes", false, "draw lattice vertices")
	fl.BoolVar(&opts.Grid, "grid", false, "draw lattice edges")
	fl.StringVar(&opts.Background, "background", def.Background, "background color")
	fl.Float64Var(&opts.Padding, "padding", def.Padding, "viewport padding")
	fl.BoolVar(&opts.PNG, "png", false, "write a PNG preview instead of SVG")
	fl.IntVar(&opts.Size, "size", 256, "PNG size in pixels")
	fl.StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")

	return cmd
}

// renderOptions builds glyph render options from the style file and the
// flags the user set.
func (o *RenderOptions) renderOptions(cmd *cobra.Command) (glyph.RenderOptions, error) {
	ro := glyph.DefaultRenderOptions()
	if o.StyleFile != "" {
		data, err := os.ReadFile(o.StyleFile)
		if err != nil {
			return ro, WrapExitError(ExitCommandError, "read style", err)
		}
		style, err := render.LoadStyle(data)
		if err != nil {
			return ro, WrapExitError(ExitCommandError, "load style", err)
		}
		ro.Style = style
	}

	fl := cmd.Flags()
	if fl.Changed("stroke") {
		ro.Style.Stroke = o.Stroke
	}
	if fl.Changed("stroke-width") {
		ro.Style.StrokeWidth = o.StrokeWidth
	}
	if fl.Changed("background") {
		ro.Style.Background = o.Background
	}
	if fl.Changed("padding") {
		ro.Style.Padding = o.Padding
	}
	if fl.Changed("nodes") {
		ro.Style.Nodes = o.Nodes
	}
	if fl.Changed("grid") {
		ro.Style.Grid = o.Grid
	}
	ro.Orientation.Rotation = o.Rotation
	ro.Orientation.Mirror = o.Mirror
	ro.Orientation.FlipVertical = o.Flip

	if err := ro.Validate(); err != nil {
		return ro, WrapExitError(ExitCommandError, "render options", err)
	}
	return ro, nil
}

func runRender(opts *RenderOptions, text string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ro, err := opts.renderOptions(cmd)
	if err != nil {
		return f.Fail(err, nil)
	}
	if opts.PNG && opts.Size <= 0 {
		return f.Fail(NewExitError(ExitCommandError, fmt.Sprintf("size must be positive, got %d", opts.Size)), nil)
	}

	svc, done, err := opts.openService(cmd)
	if err != nil {
		return f.Fail(err, nil)
	}
	defer done()

	if opts.PNG {
		return renderPNG(opts, svc, text, ro, cmd)
	}

	markup, err := svc.GlyphMarkupWith(cmd.Context(), opts.Lattice, text, ro)
	if err != nil {
		return f.Fail(err, nil)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(markup+"\n"), 0o644); err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "write output", err), nil)
		}
		f.VerboseLog("Wrote %s", opts.Output)
		return nil
	}
	if opts.Format == "json" {
		rev, err := svc.Lattice(cmd.Context(), opts.Lattice)
		if err != nil {
			return f.Fail(err, nil)
		}
		return f.Success(RenderResult{
			Lattice: rev.Lattice.ID,
			Text:    rev.Lattice.Rules.Normalize(text),
			Markup:  markup,
		})
	}
	_, err = fmt.Fprintln(f.Writer, markup)
	return err
}

func renderPNG(opts *RenderOptions, svc *glyph.Service, text string, ro glyph.RenderOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	var w io.Writer = cmd.OutOrStdout()
	if opts.Output == "" && isTerminal(w) {
		return f.Fail(NewExitError(ExitCommandError,
			"refusing to write PNG to a terminal; redirect stdout or use --output"), nil)
	}

	img, err := svc.Rasterize(cmd.Context(), opts.Lattice, text, ro, opts.Size)
	if err != nil {
		return f.Fail(err, nil)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return f.Fail(err, nil)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "write output", err), nil)
		}
		f.VerboseLog("Wrote %d byte PNG to %s", buf.Len(), opts.Output)
		return nil
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// isTerminal reports whether w is a file attached to a terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
