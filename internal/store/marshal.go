package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/latticeglyph/internal/lattice"
)

// content is the serialized form of one lattice revision.
type content struct {
	rules        string
	vertices     string
	edges        string
	characterMap string
}

// marshalContent converts a lattice's content to JSON TEXT columns.
// Map keys are sorted by encoding/json, so equal lattices produce equal
// rows.
func marshalContent(l *lattice.Lattice) (content, error) {
	var c content
	var err error
	if c.rules, err = marshalJSON(l.Rules.WithDefaults()); err != nil {
		return content{}, fmt.Errorf("marshal rules: %w", err)
	}
	if c.vertices, err = marshalJSON(l.Vertices); err != nil {
		return content{}, fmt.Errorf("marshal vertices: %w", err)
	}
	if c.edges, err = marshalJSON(l.Edges); err != nil {
		return content{}, fmt.Errorf("marshal edges: %w", err)
	}
	if c.characterMap, err = marshalJSON(l.CharacterMap); err != nil {
		return content{}, fmt.Errorf("marshal character map: %w", err)
	}
	return c, nil
}

// marshalJSON encodes v with HTML escaping disabled so characters such as
// "<" and "&" are stored as themselves.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalContent fills l from JSON TEXT columns.
func unmarshalContent(c content, l *lattice.Lattice) error {
	if err := json.Unmarshal([]byte(c.rules), &l.Rules); err != nil {
		return fmt.Errorf("unmarshal rules: %w", err)
	}
	if err := json.Unmarshal([]byte(c.vertices), &l.Vertices); err != nil {
		return fmt.Errorf("unmarshal vertices: %w", err)
	}
	if err := json.Unmarshal([]byte(c.edges), &l.Edges); err != nil {
		return fmt.Errorf("unmarshal edges: %w", err)
	}
	if err := json.Unmarshal([]byte(c.characterMap), &l.CharacterMap); err != nil {
		return fmt.Errorf("unmarshal character map: %w", err)
	}
	return nil
}
