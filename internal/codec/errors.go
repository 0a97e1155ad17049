package codec

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes codec failures. None of them are retryable: the
// same input always fails the same way.
type ErrorKind string

const (
	// ErrKindUnmappedCharacter: the text holds a character the lattice
	// does not map.
	ErrKindUnmappedCharacter ErrorKind = "UNMAPPED_CHARACTER"

	// ErrKindNoMatch: a path segment does not correspond to any mapped edge.
	ErrKindNoMatch ErrorKind = "NO_MATCH"

	// ErrKindAmbiguousMatch: the lattice maps several characters to one
	// directed edge, or several vertices sit within the match tolerance.
	ErrKindAmbiguousMatch ErrorKind = "AMBIGUOUS_MATCH"
)

// CodecError is a typed encode or decode failure.
type CodecError struct {
	// Kind identifies the failure category.
	Kind ErrorKind

	// Message is a human-readable description.
	Message string

	// Char is the offending character (UNMAPPED_CHARACTER) or the
	// conflicting characters (AMBIGUOUS_MATCH).
	Char string

	// Index is the rune offset of Char in the normalized text, or -1.
	Index int

	// Segment is the index of the offending event in the path, or -1.
	Segment int
}

// Error implements the error interface.
func (e *CodecError) Error() string {
	if e.Segment >= 0 {
		return fmt.Sprintf("%s: %s (event=%d)", e.Kind, e.Message, e.Segment)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newUnmappedError(ch string, index int) *CodecError {
	return &CodecError{
		Kind:    ErrKindUnmappedCharacter,
		Message: fmt.Sprintf("character %q at index %d is not in the lattice alphabet", ch, index),
		Char:    ch,
		Index:   index,
		Segment: -1,
	}
}

func newNoMatchError(segment int, format string, args ...any) *CodecError {
	return &CodecError{
		Kind:    ErrKindNoMatch,
		Message: fmt.Sprintf(format, args...),
		Index:   -1,
		Segment: segment,
	}
}

func newAmbiguousError(segment int, chars string, format string, args ...any) *CodecError {
	return &CodecError{
		Kind:    ErrKindAmbiguousMatch,
		Message: fmt.Sprintf(format, args...),
		Char:    chars,
		Index:   -1,
		Segment: segment,
	}
}

// IsUnmappedCharacter returns true if err is an UNMAPPED_CHARACTER error.
// Uses errors.As to handle wrapped errors.
func IsUnmappedCharacter(err error) bool {
	return KindOf(err) == ErrKindUnmappedCharacter
}

// IsNoMatch returns true if err is a NO_MATCH error.
func IsNoMatch(err error) bool {
	return KindOf(err) == ErrKindNoMatch
}

// IsAmbiguousMatch returns true if err is an AMBIGUOUS_MATCH error.
func IsAmbiguousMatch(err error) bool {
	return KindOf(err) == ErrKindAmbiguousMatch
}

// KindOf returns the kind of a CodecError anywhere in err's chain, or ""
// for other errors.
func KindOf(err error) ErrorKind {
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
