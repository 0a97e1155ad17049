// Package verify computes and checks integrity digests of encoded paths
// and lattices.
//
// A digest is SHA-256 over a canonical serialization, so semantically
// identical paths always hash identically. It detects tampering of stored
// or transmitted encodings. It is not an authentication or
// confidentiality mechanism.
package verify

import (
	"crypto/subtle"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/latticeglyph/internal/codec"
	"github.com/roach88/latticeglyph/internal/geometry"
	"github.com/roach88/latticeglyph/internal/ir"
	"github.com/roach88/latticeglyph/internal/lattice"
)

// Result is the outcome of Verify.
type Result string

const (
	Match    Result = "match"
	Mismatch Result = "mismatch"
)

// PathValue converts a path to its canonical value: an array of objects
// with op, x, y and, for ticks, tx and ty, coordinates in micro-units.
func PathValue(path codec.Path) (ir.IRArray, error) {
	arr := make(ir.IRArray, 0, len(path))
	for i, e := range path {
		obj := ir.IRObject{"op": ir.IRString(e.Kind())}
		if err := putPoint(obj, "x", "y", e.End()); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		if t, ok := e.(codec.Tick); ok {
			if err := putPoint(obj, "tx", "ty", t.Mark); err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
		}
		arr = append(arr, obj)
	}
	return arr, nil
}

func putPoint(obj ir.IRObject, kx, ky string, p geometry.Point) error {
	x, err := ir.Quantize(p.X)
	if err != nil {
		return err
	}
	y, err := ir.Quantize(p.Y)
	if err != nil {
		return err
	}
	obj[kx], obj[ky] = x, y
	return nil
}

// CanonicalPath returns the canonical bytes a path digest is computed over.
func CanonicalPath(path codec.Path) ([]byte, error) {
	v, err := PathValue(path)
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(v)
}

// Digest returns the hex SHA-256 digest of a path.
func Digest(path codec.Path) (string, error) {
	v, err := PathValue(path)
	if err != nil {
		return "", err
	}
	return ir.Digest(ir.DomainPath, v)
}

// Verify recomputes the digest of path and compares it with expected.
// Malformed expected digests are a Mismatch, not an error; errors are
// reserved for paths that cannot be serialized.
func Verify(path codec.Path, expected string) (Result, error) {
	got, err := Digest(path)
	if err != nil {
		return Mismatch, err
	}
	expected = strings.ToLower(strings.TrimSpace(expected))
	if !ir.IsDigest(expected) {
		return Mismatch, nil
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
		return Mismatch, nil
	}
	return Match, nil
}

// LatticeValue converts the content of a lattice (rules, vertices, edges
// and character map) to its canonical value. Identity and presentation
// fields (id, name, version) are excluded, so two lattices share a digest
// exactly when they encode identically.
func LatticeValue(l *lattice.Lattice) (ir.IRObject, error) {
	rules := l.Rules.WithDefaults()

	vertices := make(ir.IRArray, 0, len(l.Vertices))
	sorted := slices.Clone(l.Vertices)
	slices.SortFunc(sorted, func(a, b lattice.Vertex) int { return a.ID - b.ID })
	for _, v := range sorted {
		obj := ir.IRObject{"id": ir.IRInt(v.ID)}
		if err := putPoint(obj, "x", "y", v.Point()); err != nil {
			return nil, fmt.Errorf("vertex %d: %w", v.ID, err)
		}
		vertices = append(vertices, obj)
	}

	canon := make([]lattice.Edge, len(l.Edges))
	for i, e := range l.Edges {
		canon[i] = e.Canonical()
	}
	slices.SortFunc(canon, func(a, b lattice.Edge) int {
		if a.A != b.A {
			return a.A - b.A
		}
		return a.B - b.B
	})
	edges := make(ir.IRArray, 0, len(canon))
	for _, e := range canon {
		edges = append(edges, ir.IRArray{ir.IRInt(e.A), ir.IRInt(e.B)})
	}

	chars := make(ir.IRObject, len(l.CharacterMap))
	for ch, ce := range l.CharacterMap {
		chars[ch] = ir.IRArray{ir.IRInt(ce.Start), ir.IRInt(ce.End)}
	}

	return ir.IRObject{
		"rules": ir.IRObject{
			"case":       ir.IRString(rules.Case),
			"whitespace": ir.IRString(rules.Whitespace),
		},
		"vertices":      vertices,
		"edges":         edges,
		"character_map": chars,
	}, nil
}

// LatticeDigest returns the content digest of a lattice.
func LatticeDigest(l *lattice.Lattice) (string, error) {
	v, err := LatticeValue(l)
	if err != nil {
		return "", err
	}
	return ir.Digest(ir.DomainLattice, v)
}
