package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/latticeglyph/internal/glyph"
)

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <text>",
		Short: "Encode text as a stroke path",
		Long: `Encode text under a lattice and print the encoding envelope: lattice id,
version and digest, normalized text, path events and path digest.

The envelope is the input of decode and verify.

Examples:
  glyph encode "HELLO WORLD"
  glyph encode --db glyphs.db --lattice square "abcd" > abcd.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runEncode(opts *RootOptions, text string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	svc, done, err := opts.openService(cmd)
	if err != nil {
		return f.Fail(err, nil)
	}
	defer done()

	enc, err := svc.Encode(cmd.Context(), opts.Lattice, text)
	if err != nil {
		return f.Fail(err, nil)
	}
	f.VerboseLog("Encoded %d character(s) as %d event(s) under %s v%d",
		len([]rune(enc.Text)), len(enc.Path), enc.LatticeID, enc.LatticeVersion)

	if opts.Format == "json" {
		return f.Success(enc)
	}
	data, err := enc.MarshalIndent()
	if err != nil {
		return f.Fail(err, nil)
	}
	_, err = fmt.Fprintln(f.Writer, string(data))
	return err
}

// readInput reads the named file, or stdin when name is empty or "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if name == "" || name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read input", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, NewExitError(ExitCommandError, "input is empty")
	}
	return data, nil
}

// readEncoding reads an encoding envelope. It accepts the bare envelope or
// a JSON response from encode --format json.
func readEncoding(cmd *cobra.Command, name string) (*glyph.Encoding, error) {
	data, err := readInput(cmd, name)
	if err != nil {
		return nil, err
	}
	enc, err := glyph.ParseEncoding(data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "parse encoding", err)
	}
	return enc, nil
}
