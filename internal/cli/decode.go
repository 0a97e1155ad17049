package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Markup  bool // input is SVG markup, decoded under --lattice
	Current bool // decode under the current revision of --lattice
}

// DecodeResult is the JSON payload of decode.
type DecodeResult struct {
	Lattice string `json:"lattice"`
	Text    string `json:"text"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode an encoding or a rendered glyph back to text",
		Long: `Decode an encoding envelope (from encode) or, with --markup, SVG markup
(from render). Reads stdin when no file or "-" is given.

An envelope decodes under the lattice revision it records, after its
digests are checked. --current decodes its path under the current
revision of --lattice instead.

Examples:
  glyph encode "HELLO" | glyph decode
  glyph render "HELLO" --rotation 30 | glyph decode --markup`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runDecode(opts, name, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Markup, "markup", false, "input is SVG markup")
	cmd.Flags().BoolVar(&opts.Current, "current", false, "decode under the current lattice revision")
	cmd.MarkFlagsMutuallyExclusive("markup", "current")

	return cmd
}

func runDecode(opts *DecodeOptions, name string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	svc, done, err := opts.openService(cmd)
	if err != nil {
		return f.Fail(err, nil)
	}
	defer done()

	var latticeID, text string
	switch {
	case opts.Markup:
		data, err := readInput(cmd, name)
		if err != nil {
			return f.Fail(err, nil)
		}
		text, err = svc.DecodeMarkup(ctx, opts.Lattice, string(data))
		if err != nil {
			return f.Fail(err, nil)
		}
		latticeID = opts.Lattice

	case opts.Current:
		enc, err := readEncoding(cmd, name)
		if err != nil {
			return f.Fail(err, nil)
		}
		text, err = svc.DecodePath(ctx, opts.Lattice, enc.Path)
		if err != nil {
			return f.Fail(err, nil)
		}
		latticeID = opts.Lattice

	default:
		enc, err := readEncoding(cmd, name)
		if err != nil {
			return f.Fail(err, nil)
		}
		text, err = svc.DecodeEncoding(ctx, enc)
		if err != nil {
			return f.Fail(err, nil)
		}
		latticeID = enc.LatticeID
	}

	if opts.Format == "json" {
		return f.Success(DecodeResult{Lattice: latticeID, Text: text})
	}
	_, err = fmt.Fprintln(f.Writer, text)
	return err
}
