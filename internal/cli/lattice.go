package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/latticeglyph/internal/compiler"
	"github.com/roach88/latticeglyph/internal/lattice"
	"github.com/roach88/latticeglyph/internal/store"
)

// LatticeInfo is the JSON payload of lattice create, show and update.
type LatticeInfo struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Version  int64            `json:"version"`
	Builtin  bool             `json:"builtin"`
	Digest   string           `json:"digest"`
	Versions []int            `json:"versions,omitempty"`
	Lattice  *lattice.Lattice `json:"lattice,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewLatticeCommand creates the lattice command group.
func NewLatticeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lattice",
		Short: "Manage lattices",
		Long: `Create, inspect, update and delete lattices in the --db database.

Lattice files are CUE (.cue), YAML (.yaml, .yml) or JSON (.json) with the
fields id (optional), name, rules, vertices, edges and character_map.
The built-in "default" lattice cannot be changed.`,
	}

	cmd.AddCommand(newLatticeCreateCommand(rootOpts))
	cmd.AddCommand(newLatticeListCommand(rootOpts))
	cmd.AddCommand(newLatticeShowCommand(rootOpts))
	cmd.AddCommand(newLatticeUpdateCommand(rootOpts))
	cmd.AddCommand(newLatticeDeleteCommand(rootOpts))
	cmd.AddCommand(newLatticeValidateCommand(rootOpts))
	return cmd
}

func newLatticeCreateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <file>",
		Short: "Create a lattice from a definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			l, err := loadLattice(args[0])
			if err != nil {
				return f.Fail(err, loadDetails(err))
			}

			svc, done, err := opts.openService(cmd)
			if err != nil {
				return f.Fail(err, nil)
			}
			defer done()

			id, err := svc.CreateLattice(cmd.Context(), l)
			if err != nil {
				return f.Fail(err, nil)
			}
			rev, err := svc.Lattice(cmd.Context(), id)
			if err != nil {
				return f.Fail(err, nil)
			}
			return outputLattice(f, opts, rev, nil, false, "created")
		},
	}
}

func newLatticeListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List lattices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			svc, done, err := opts.openService(cmd)
			if err != nil {
				return f.Fail(err, nil)
			}
			defer done()

			list, err := svc.Lattices(cmd.Context())
			if err != nil {
				return f.Fail(err, nil)
			}
			if opts.Format == "json" {
				return f.Success(list)
			}

			tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tVERSION\tCHARS\tDIGEST")
			for _, s := range list {
				name := s.Name
				if s.Builtin {
					name += " (builtin)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", s.ID, name, s.Version, s.Characters, shortDigest(s.Digest))
			}
			return tw.Flush()
		},
	}
}

func newLatticeShowCommand(opts *RootOptions) *cobra.Command {
	var version int
	cmd := &cobra.Command{
		Use:   "show [ref]",
		Short: "Show a lattice revision",
		Long:  "Show the current (or --version) revision of a lattice. Defaults to --lattice.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			ref := opts.Lattice
			if len(args) == 1 {
				ref = args[0]
			}

			svc, done, err := opts.openService(cmd)
			if err != nil {
				return f.Fail(err, nil)
			}
			defer done()

			rev, err := svc.Lattice(cmd.Context(), ref)
			if err != nil {
				return f.Fail(err, nil)
			}
			if version > 0 {
				rev, err = svc.LatticeRevision(cmd.Context(), rev.Lattice.ID, version)
				if err != nil {
					return f.Fail(err, nil)
				}
			}
			versions, err := svc.LatticeVersions(cmd.Context(), rev.Lattice.ID)
			if err != nil {
				return f.Fail(err, nil)
			}
			return outputLattice(f, opts, rev, versions, true, "")
		},
	}
	cmd.Flags().IntVar(&version, "version", 0, "revision to show (default current)")
	return cmd
}

func newLatticeUpdateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <ref> <file>",
		Short: "Store a definition file as the next revision of a lattice",
		Long: `Store a definition file as the next revision of a lattice. The lattice id
is kept; an id in the file must match it. Cached glyphs of the lattice are
dropped and encodings made earlier keep decoding under their revision.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			l, err := loadLattice(args[1])
			if err != nil {
				return f.Fail(err, loadDetails(err))
			}

			svc, done, err := opts.openService(cmd)
			if err != nil {
				return f.Fail(err, nil)
			}
			defer done()

			cur, err := svc.Lattice(cmd.Context(), args[0])
			if err != nil {
				return f.Fail(err, nil)
			}
			if l.ID != "" && l.ID != cur.Lattice.ID {
				return f.Fail(NewExitError(ExitCommandError,
					fmt.Sprintf("file id %q does not match lattice %q", l.ID, cur.Lattice.ID)), nil)
			}
			l.ID = cur.Lattice.ID

			rev, err := svc.UpdateLattice(cmd.Context(), l)
			if err != nil {
				return f.Fail(err, nil)
			}
			return outputLattice(f, opts, rev, nil, false, "updated")
		},
	}
}

func newLatticeDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ref>",
		Short: "Delete a lattice and all of its revisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			svc, done, err := opts.openService(cmd)
			if err != nil {
				return f.Fail(err, nil)
			}
			defer done()

			rev, err := svc.Lattice(cmd.Context(), args[0])
			if err != nil {
				return f.Fail(err, nil)
			}
			if err := svc.DeleteLattice(cmd.Context(), rev.Lattice.ID); err != nil {
				return f.Fail(err, nil)
			}
			if opts.Format == "json" {
				return f.Success(map[string]string{"deleted": rev.Lattice.ID})
			}
			return f.Success(fmt.Sprintf("✓ deleted %s", rev.Lattice.ID))
		},
	}
}

func newLatticeValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a lattice definition file without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			def, err := compiler.CompileFile(args[0])
			if err != nil {
				return f.Fail(WrapExitError(ExitFailure, "compile lattice", err), compileDetails(err))
			}
			f.VerboseLog("Compiled %s: %d vertices, %d edges, %d characters",
				args[0], len(def.Lattice.Vertices), len(def.Lattice.Edges), len(def.Lattice.CharacterMap))

			errs := compiler.Validate(def)
			if len(errs) > 0 {
				return outputValidationErrors(f, errs)
			}
			return f.Success(validationSuccess(opts.Format))
		},
	}
}

func validationSuccess(format string) any {
	if format == "json" {
		return ValidationResult{Valid: true}
	}
	return "✓ lattice is valid"
}

// outputValidationErrors reports validation errors and returns exit code 1.
func outputValidationErrors(f *OutputFormatter, errs []compiler.ValidationError) error {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Line < errs[j].Line })

	if f.Format == "json" {
		if err := f.Error(ErrCodeInvalidLattice, fmt.Sprintf("%d validation error(s)", len(errs)),
			ValidationResult{Valid: false, Errors: errs}); err != nil {
			return err
		}
	} else {
		for _, e := range errs {
			fmt.Fprintln(f.Writer, e.Error())
		}
		fmt.Fprintf(f.Writer, "\n%d validation error(s)\n", len(errs))
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(errs)))
}

// loadLattice compiles and validates a lattice file. Compile errors are
// command failures; validation errors keep their LoadError.
func loadLattice(path string) (*lattice.Lattice, error) {
	l, err := compiler.Load(path)
	switch {
	case err == nil, compiler.IsLoadError(err):
		return l, err
	case errors.Is(err, os.ErrNotExist):
		return nil, WrapExitError(ExitCommandError, "read lattice", err)
	}
	return nil, WrapExitError(ExitFailure, "compile lattice", err)
}

func loadDetails(err error) any {
	var le *compiler.LoadError
	if errors.As(err, &le) {
		return le.Errors
	}
	return compileDetails(err)
}

func compileDetails(err error) any {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}

func outputLattice(f *OutputFormatter, opts *RootOptions, rev store.Revision, versions []int, full bool, verb string) error {
	l := rev.Lattice
	if opts.Format == "json" {
		info := LatticeInfo{
			ID:       l.ID,
			Name:     l.Name,
			Version:  l.Version,
			Builtin:  l.Builtin,
			Digest:   rev.Digest,
			Versions: versions,
		}
		if full {
			info.Lattice = l
		}
		return f.Success(info)
	}

	w := f.Writer
	if verb != "" {
		fmt.Fprintf(w, "✓ %s %s v%d (%s)\n", verb, l.ID, l.Version, shortDigest(rev.Digest))
		return nil
	}
	fmt.Fprintf(w, "id:       %s\n", l.ID)
	fmt.Fprintf(w, "name:     %s\n", l.Name)
	fmt.Fprintf(w, "version:  %d\n", l.Version)
	if len(versions) > 0 {
		fmt.Fprintf(w, "versions: %v\n", versions)
	}
	fmt.Fprintf(w, "builtin:  %v\n", l.Builtin)
	fmt.Fprintf(w, "digest:   %s\n", rev.Digest)
	fmt.Fprintf(w, "rules:    case=%s whitespace=%s\n", l.Rules.WithDefaults().Case, l.Rules.WithDefaults().Whitespace)
	fmt.Fprintf(w, "vertices: %d\n", len(l.Vertices))
	fmt.Fprintf(w, "edges:    %d\n", len(l.Edges))

	keys := make([]string, 0, len(l.CharacterMap))
	for k := range l.CharacterMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "characters (%d):\n", len(keys))
	for _, k := range keys {
		ce := l.CharacterMap[k]
		fmt.Fprintf(w, "  %q %d->%d\n", k, ce.Start, ce.End)
	}
	return nil
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
