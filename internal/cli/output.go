package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/latticeglyph/internal/codec"
	"github.com/roach88/latticeglyph/internal/compiler"
	"github.com/roach88/latticeglyph/internal/glyph"
	"github.com/roach88/latticeglyph/internal/lattice"
	"github.com/roach88/latticeglyph/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (unmapped text, digest mismatch, failed scenarios)
	ExitCommandError = 2 // Command error (bad flags, unreadable files, missing lattice)
)

// Error codes in JSON output.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeInput          = "E002" // Unreadable or malformed input
	ErrCodeNotFound       = "E005" // Lattice or file not found
	ErrCodeUnmapped       = "E010" // Character not in the lattice
	ErrCodeNoMatch        = "E011" // Path does not decode
	ErrCodeAmbiguous      = "E012" // Path decodes more than one way
	ErrCodeInvalidLattice = "E020" // Lattice fails validation
	ErrCodeImmutable      = "E021" // Built-in lattice cannot change
	ErrCodeConflict       = "E022" // Lattice id or name in use
	ErrCodeMismatch       = "E030" // Digest does not match
	ErrCodeLatticeChanged = "E031" // Recorded lattice revision differs
	ErrCodeTestFailed     = "E040" // Scenario failures
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Classify maps a domain error to its JSON error code and exit code.
func Classify(err error) (string, int) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return ErrCodeGeneric, exitErr.Code
	}
	switch codec.KindOf(err) {
	case codec.ErrKindUnmappedCharacter:
		return ErrCodeUnmapped, ExitFailure
	case codec.ErrKindNoMatch:
		return ErrCodeNoMatch, ExitFailure
	case codec.ErrKindAmbiguousMatch:
		return ErrCodeAmbiguous, ExitFailure
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrCodeNotFound, ExitCommandError
	case errors.Is(err, store.ErrImmutable):
		return ErrCodeImmutable, ExitCommandError
	case errors.Is(err, store.ErrExists), errors.Is(err, store.ErrNameTaken):
		return ErrCodeConflict, ExitCommandError
	case lattice.IsInvalid(err), compiler.IsLoadError(err):
		return ErrCodeInvalidLattice, ExitFailure
	case errors.Is(err, glyph.ErrDigestMismatch):
		return ErrCodeMismatch, ExitFailure
	case errors.Is(err, glyph.ErrLatticeChanged):
		return ErrCodeLatticeChanged, ExitFailure
	}
	return ErrCodeGeneric, GetExitCode(err)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E010", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.GetErrWriter(), "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.GetErrWriter(), "Details: %v\n", details)
	}
	return nil
}

// Fail reports err in the configured format and returns the ExitError the
// command should return.
func (f *OutputFormatter) Fail(err error, details interface{}) error {
	code, exit := Classify(err)
	if outErr := f.Error(code, err.Error(), details); outErr != nil {
		return outErr
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return WrapExitError(exit, code, err)
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false) // markup is returned verbatim
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
