package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Digest string // expected digest; defaults to the envelope's own
}

// VerifyResult is the JSON payload of verify.
type VerifyResult struct {
	Match    bool   `json:"match"`
	Expected string `json:"expected"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify [file]",
		Short: "Check an encoding's path against a digest",
		Long: `Recompute the digest of an encoding's path and compare it with --digest or,
by default, the digest recorded in the envelope.

Exit codes:
  0 - digest matches
  1 - digest does not match
  2 - command error

Examples:
  glyph encode "HELLO" | glyph verify
  glyph verify hello.json --digest 4a0a1d02...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runVerify(opts, name, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Digest, "digest", "", "expected digest")
	return cmd
}

func runVerify(opts *VerifyOptions, name string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	enc, err := readEncoding(cmd, name)
	if err != nil {
		return f.Fail(err, nil)
	}
	expected := enc.Digest
	if opts.Digest != "" {
		expected = opts.Digest
	}

	svc, done, err := opts.openService(cmd)
	if err != nil {
		return f.Fail(err, nil)
	}
	defer done()

	ok, err := svc.VerifyEncoding(enc.Path, expected)
	if err != nil {
		return f.Fail(err, nil)
	}

	if opts.Format == "json" {
		if err := f.Success(VerifyResult{Match: ok, Expected: expected}); err != nil {
			return err
		}
	} else if ok {
		fmt.Fprintln(f.Writer, "✓ digest matches")
	} else {
		fmt.Fprintln(f.Writer, "✗ digest does not match")
	}

	if !ok {
		return NewExitError(ExitFailure, "digest does not match")
	}
	return nil
}
