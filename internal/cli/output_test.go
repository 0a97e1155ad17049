package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/latticeglyph/internal/codec"
	"github.com/roach88/latticeglyph/internal/glyph"
	"github.com/roach88/latticeglyph/internal/lattice"
	"github.com/roach88/latticeglyph/internal/store"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"markup": "<svg/>"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"<svg/>"`)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeUnmapped, "unmapped character", map[string]int{"index": 1})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E010", resp.Error.Code)
	assert.Equal(t, "unmapped character", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "text",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	require.NoError(t, formatter.Error("E001", "broken", "context"))
	assert.Empty(t, out.String())
	assert.Equal(t, "Error [E001]: broken\nDetails: context\n", errOut.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}

	formatter.VerboseLog("hidden %d", 1)
	assert.Empty(t, errOut.String())

	formatter.Verbose = true
	formatter.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestOutputFormatter_Fail(t *testing.T) {
	out := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out}

	cause := fmt.Errorf("resolve: %w", store.ErrNotFound)
	err := formatter.Fail(cause, nil)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrNotFound)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestClassify(t *testing.T) {
	_, unmapped := codec.Encode("A?", lattice.Default())
	require.Error(t, unmapped)

	tests := []struct {
		name string
		err  error
		code string
		exit int
	}{
		{"unmapped", unmapped, ErrCodeUnmapped, ExitFailure},
		{"not found", fmt.Errorf("x: %w", store.ErrNotFound), ErrCodeNotFound, ExitCommandError},
		{"immutable", store.ErrImmutable, ErrCodeImmutable, ExitCommandError},
		{"exists", store.ErrExists, ErrCodeConflict, ExitCommandError},
		{"name taken", store.ErrNameTaken, ErrCodeConflict, ExitCommandError},
		{"invalid", lattice.Validate(&lattice.Lattice{}), ErrCodeInvalidLattice, ExitFailure},
		{"digest", glyph.ErrDigestMismatch, ErrCodeMismatch, ExitFailure},
		{"changed", glyph.ErrLatticeChanged, ErrCodeLatticeChanged, ExitFailure},
		{"plain exit", NewExitError(ExitCommandError, "bad flag"), ErrCodeGeneric, ExitCommandError},
		{"wrapped exit", WrapExitError(ExitCommandError, "read", errors.New("boom")), ErrCodeGeneric, ExitCommandError},
		{"other", errors.New("boom"), ErrCodeGeneric, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, exit := Classify(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.exit, exit)
		})
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "write output", inner)
	assert.Equal(t, "write output: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	assert.Equal(t, "plain", NewExitError(ExitFailure, "plain").Error())
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("x")))
}
