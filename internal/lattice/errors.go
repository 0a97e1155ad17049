package lattice

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLattice is matched by errors.Is for every InvalidLatticeError.
var ErrInvalidLattice = errors.New("invalid lattice")

// Problem codes (E200-E299).
const (
	ErrNameEmpty         = "E201" // name is required
	ErrNoVertices        = "E202" // at least one vertex required
	ErrVertexID          = "E203" // ids must be unique and dense 0..N-1
	ErrVertexNotFinite   = "E204" // coordinates must be finite
	ErrVertexCoincident  = "E205" // two vertices share coordinates
	ErrEdgeSelfLoop      = "E206" // edge joins a vertex to itself
	ErrEdgeUnknownVertex = "E207" // edge references a missing vertex
	ErrEdgeDuplicate     = "E208" // same undirected edge listed twice
	ErrCharacterMapEmpty = "E209" // at least one character required
	ErrCharacterKey      = "E210" // key is not one normalized rune
	ErrCharacterEdge     = "E211" // character references a missing edge
	ErrDirectedCollision = "E212" // two characters on the same directed edge
	ErrRules             = "E213" // unknown normalization rule
)

// Problem is one violated invariant.
type Problem struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (p Problem) Error() string {
	return fmt.Sprintf("[%s] %s: %s", p.Code, p.Field, p.Message)
}

// InvalidLatticeError reports every invariant a lattice violates.
type InvalidLatticeError struct {
	Problems []Problem
}

// Error implements the error interface.
func (e *InvalidLatticeError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid lattice: " + e.Problems[0].Error()
	}
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("invalid lattice: %d problems: %s", len(e.Problems), strings.Join(msgs, "; "))
}

// Is makes errors.Is(err, ErrInvalidLattice) true.
func (e *InvalidLatticeError) Is(target error) bool {
	return target == ErrInvalidLattice
}

// HasCode reports whether any problem carries code.
func (e *InvalidLatticeError) HasCode(code string) bool {
	for _, p := range e.Problems {
		if p.Code == code {
			return true
		}
	}
	return false
}

// IsInvalid returns true if err is or wraps an InvalidLatticeError.
func IsInvalid(err error) bool {
	var ie *InvalidLatticeError
	return errors.As(err, &ie)
}
