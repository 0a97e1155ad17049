package lattice

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/latticeglyph/internal/geometry"
)

// Vertex is a labeled anchor point.
type Vertex struct {
	ID int     `json:"id" yaml:"id"`
	X  float64 `json:"x" yaml:"x"`
	Y  float64 `json:"y" yaml:"y"`
}

// Point returns the vertex coordinates.
func (v Vertex) Point() geometry.Point {
	return geometry.Point{X: v.X, Y: v.Y}
}

// Edge is an undirected vertex pair. Serialized as [a, b].
type Edge struct {
	A, B int
}

// Canonical returns the edge with the smaller id first.
func (e Edge) Canonical() Edge {
	if e.B < e.A {
		return Edge{A: e.B, B: e.A}
	}
	return e
}

// MarshalJSON encodes the edge as a two element array.
func (e Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{e.A, e.B})
}

// UnmarshalJSON decodes a two element array.
func (e *Edge) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("edge: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("edge: want 2 vertex ids, got %d", len(pair))
	}
	e.A, e.B = pair[0], pair[1]
	return nil
}

// MarshalYAML encodes the edge as a flow sequence.
func (e Edge) MarshalYAML() (any, error) {
	return flowPair(e.A, e.B), nil
}

// UnmarshalYAML decodes a two element sequence.
func (e *Edge) UnmarshalYAML(node *yaml.Node) error {
	a, b, err := decodeYAMLPair(node)
	if err != nil {
		return fmt.Errorf("edge: %w", err)
	}
	e.A, e.B = a, b
	return nil
}

// CharEdge is the directed edge a character is drawn along.
// Serialized as [start, end].
type CharEdge struct {
	Start, End int
}

// Reverse returns the edge traversed the other way.
func (c CharEdge) Reverse() CharEdge {
	return CharEdge{Start: c.End, End: c.Start}
}

// Undirected returns the canonical undirected edge c runs along.
func (c CharEdge) Undirected() Edge {
	return Edge{A: c.Start, B: c.End}.Canonical()
}

// SameSegment reports whether c and o cover the same edge in either
// direction.
func (c CharEdge) SameSegment(o CharEdge) bool {
	return c == o || c == o.Reverse()
}

// String formats the edge as "start->end".
func (c CharEdge) String() string {
	return fmt.Sprintf("%d->%d", c.Start, c.End)
}

// MarshalJSON encodes the edge as a two element array.
func (c CharEdge) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.Start, c.End})
}

// UnmarshalJSON decodes a two element array.
func (c *CharEdge) UnmarshalJSON(data []byte) error {
	var e Edge
	if err := e.UnmarshalJSON(data); err != nil {
		return err
	}
	c.Start, c.End = e.A, e.B
	return nil
}

// MarshalYAML encodes the edge as a flow sequence.
func (c CharEdge) MarshalYAML() (any, error) {
	return flowPair(c.Start, c.End), nil
}

// UnmarshalYAML decodes a two element sequence.
func (c *CharEdge) UnmarshalYAML(node *yaml.Node) error {
	a, b, err := decodeYAMLPair(node)
	if err != nil {
		return fmt.Errorf("character edge: %w", err)
	}
	c.Start, c.End = a, b
	return nil
}

// Lattice is one encoding scheme.
type Lattice struct {
	ID           string              `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string              `json:"name" yaml:"name"`
	Version      int64               `json:"version,omitempty" yaml:"version,omitempty"`
	Builtin      bool                `json:"builtin,omitempty" yaml:"builtin,omitempty"`
	Rules        Rules               `json:"rules" yaml:"rules"`
	Vertices     []Vertex            `json:"vertices" yaml:"vertices"`
	Edges        []Edge              `json:"edges" yaml:"edges"`
	CharacterMap map[string]CharEdge `json:"character_map" yaml:"character_map"`
}

// Clone returns a deep copy.
func (l *Lattice) Clone() *Lattice {
	c := *l
	c.Vertices = slices.Clone(l.Vertices)
	c.Edges = slices.Clone(l.Edges)
	c.CharacterMap = make(map[string]CharEdge, len(l.CharacterMap))
	for k, v := range l.CharacterMap {
		c.CharacterMap[k] = v
	}
	return &c
}

// Characters returns the mapped characters in sorted order.
func (l *Lattice) Characters() []string {
	keys := make([]string, 0, len(l.CharacterMap))
	for k := range l.CharacterMap {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Alphabet returns every mapped character concatenated in sorted order.
func (l *Lattice) Alphabet() string {
	return strings.Join(l.Characters(), "")
}

func flowPair(a, b int) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.SequenceNode,
		Style: yaml.FlowStyle,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(a)},
			{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(b)},
		},
	}
}

func decodeYAMLPair(node *yaml.Node) (int, int, error) {
	var pair []int
	if err := node.Decode(&pair); err != nil {
		return 0, 0, err
	}
	if len(pair) != 2 {
		return 0, 0, fmt.Errorf("line %d: want 2 vertex ids, got %d", node.Line, len(pair))
	}
	return pair[0], pair[1], nil
}
