package compiler

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/roach88/latticeglyph/internal/lattice"
)

// Validation error codes (E100-E199). Lattice invariant problems keep
// their own E2xx codes from the lattice package.
const (
	ErrInvalidID = "E101" // id is not a lowercase slug
)

// idPattern is the accepted lattice id shape: a lowercase slug.
var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled definition against every lattice invariant.
// Returns all errors found (does not fail-fast), each with the source
// line when it is known.
func Validate(def *Definition) []ValidationError {
	var errs []ValidationError

	// E101: ids are optional, but must be slugs when given
	if id := def.Lattice.ID; id != "" && !idPattern.MatchString(id) {
		errs = append(errs, ValidationError{
			Field:   "id",
			Message: fmt.Sprintf("id %q must match %s", id, idPattern),
			Code:    ErrInvalidID,
			Line:    def.Line("id"),
		})
	}

	err := lattice.Validate(def.Lattice)
	var ie *lattice.InvalidLatticeError
	if errors.As(err, &ie) {
		for _, p := range ie.Problems {
			errs = append(errs, ValidationError{
				Field:   p.Field,
				Message: p.Message,
				Code:    p.Code,
				Line:    def.Line(p.Field),
			})
		}
	}
	return errs
}

// LoadError reports every validation error of a lattice file.
type LoadError struct {
	File   string
	Errors []ValidationError
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s: %d validation error(s)", e.File, len(e.Errors))
	for _, ve := range e.Errors {
		msg += "\n  " + ve.Error()
	}
	return msg
}

// Load compiles and validates a lattice file. The returned lattice passes
// lattice.Validate.
func Load(path string) (*lattice.Lattice, error) {
	def, err := CompileFile(path)
	if err != nil {
		return nil, err
	}
	if errs := Validate(def); len(errs) > 0 {
		return nil, &LoadError{File: path, Errors: errs}
	}
	return def.Lattice, nil
}

// IsLoadError returns true if err is or wraps a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
