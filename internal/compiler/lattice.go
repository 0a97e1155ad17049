package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/latticeglyph/internal/lattice"
)

// Definition is a lattice compiled from a source file, with the source
// line of each field for error reporting.
type Definition struct {
	Lattice *lattice.Lattice
	File    string
	lines   map[string]int
}

// Line returns the source line of field (as named in lattice problems,
// e.g. "vertices[2]"), or 0 if unknown. Falls back to the enclosing
// top-level field.
func (d *Definition) Line(field string) int {
	if line, ok := d.lines[field]; ok {
		return line
	}
	for i := 0; i < len(field); i++ {
		if field[i] == '[' {
			return d.lines[field[:i]]
		}
	}
	return 0
}

func newDefinition(file string) *Definition {
	return &Definition{
		Lattice: &lattice.Lattice{},
		File:    file,
		lines:   make(map[string]int),
	}
}

// topLevelFields are the fields a lattice definition may carry.
var topLevelFields = map[string]bool{
	"id":            true,
	"name":          true,
	"rules":         true,
	"vertices":      true,
	"edges":         true,
	"character_map": true,
}

// CompileLattice parses a CUE value into a lattice Definition.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is the lattice struct itself:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`name: "square", vertices: [...], ...`)
//	def, err := CompileLattice(v)
//
// Hidden fields and comprehensions are resolved by CUE before the walk,
// so rings and edge sets may be computed.
func CompileLattice(v cue.Value) (*Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	def := newDefinition(v.Pos().Filename())
	l := def.Lattice

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Selector().Unquoted()
		if !topLevelFields[label] {
			return nil, newCompileError(label, "unknown field", iter.Value().Pos())
		}
		def.lines[label] = iter.Value().Pos().Line()
	}

	// id (optional)
	if idVal := v.LookupPath(cue.ParsePath("id")); idVal.Exists() {
		if l.ID, err = idVal.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	// name (required)
	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, newCompileError("name", "name is required", v.Pos())
	}
	if l.Name, err = nameVal.String(); err != nil {
		return nil, formatCUEError(err)
	}

	if l.Rules, err = parseRules(v); err != nil {
		return nil, err
	}
	if l.Vertices, err = parseVertices(v, def); err != nil {
		return nil, err
	}
	if l.Edges, err = parseEdges(v, def); err != nil {
		return nil, err
	}
	if l.CharacterMap, err = parseCharacterMap(v, def); err != nil {
		return nil, err
	}
	return def, nil
}

// parseRules reads the optional rules struct. Missing fields stay empty
// and resolve to the defaults.
func parseRules(v cue.Value) (lattice.Rules, error) {
	var rules lattice.Rules
	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return rules, nil
	}

	iter, err := rulesVal.Fields()
	if err != nil {
		return rules, formatCUEError(err)
	}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return rules, formatCUEError(err)
		}
		switch iter.Selector().Unquoted() {
		case "case":
			rules.Case = lattice.CaseRule(s)
		case "whitespace":
			rules.Whitespace = lattice.WhitespaceRule(s)
		default:
			return rules, newCompileError("rules."+iter.Selector().Unquoted(), "unknown rule", iter.Value().Pos())
		}
	}
	return rules, nil
}

// parseVertices reads the vertices list of {id, x, y} structs.
func parseVertices(v cue.Value, def *Definition) ([]lattice.Vertex, error) {
	listVal := v.LookupPath(cue.ParsePath("vertices"))
	if !listVal.Exists() {
		return nil, newCompileError("vertices", "vertices are required", v.Pos())
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var vertices []lattice.Vertex
	for i := 0; iter.Next(); i++ {
		item := iter.Value()
		field := fmt.Sprintf("vertices[%d]", i)
		def.lines[field] = item.Pos().Line()

		var vx lattice.Vertex
		idVal, err := lookup(item, field, "id")
		if err != nil {
			return nil, err
		}
		id, err := idVal.Int64()
		if err != nil {
			return nil, fieldError(field+".id", err, idVal.Pos())
		}
		vx.ID = int(id)
		if vx.X, err = coordinate(item, field, "x"); err != nil {
			return nil, err
		}
		if vx.Y, err = coordinate(item, field, "y"); err != nil {
			return nil, err
		}
		vertices = append(vertices, vx)
	}
	return vertices, nil
}

// parseEdges reads the edges list of [a, b] pairs.
func parseEdges(v cue.Value, def *Definition) ([]lattice.Edge, error) {
	listVal := v.LookupPath(cue.ParsePath("edges"))
	if !listVal.Exists() {
		return nil, newCompileError("edges", "edges are required", v.Pos())
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var edges []lattice.Edge
	for i := 0; iter.Next(); i++ {
		field := fmt.Sprintf("edges[%d]", i)
		def.lines[field] = iter.Value().Pos().Line()
		a, b, err := parsePair(iter.Value(), field)
		if err != nil {
			return nil, err
		}
		edges = append(edges, lattice.Edge{A: a, B: b})
	}
	return edges, nil
}

// parseCharacterMap reads the character_map struct of "X": [start, end]
// fields. Labels may be quoted, so a space maps as " ": [2, 0].
func parseCharacterMap(v cue.Value, def *Definition) (map[string]lattice.CharEdge, error) {
	mapVal := v.LookupPath(cue.ParsePath("character_map"))
	if !mapVal.Exists() {
		return nil, newCompileError("character_map", "character_map is required", v.Pos())
	}
	iter, err := mapVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	cm := make(map[string]lattice.CharEdge)
	for iter.Next() {
		ch := iter.Selector().Unquoted()
		field := fmt.Sprintf("character_map[%q]", ch)
		def.lines[field] = iter.Value().Pos().Line()
		start, end, err := parsePair(iter.Value(), field)
		if err != nil {
			return nil, err
		}
		cm[ch] = lattice.CharEdge{Start: start, End: end}
	}
	return cm, nil
}

// parsePair reads a two element list of vertex ids.
func parsePair(v cue.Value, field string) (int, int, error) {
	iter, err := v.List()
	if err != nil {
		return 0, 0, fieldError(field, err, v.Pos())
	}
	var ids []int
	for iter.Next() {
		id, err := iter.Value().Int64()
		if err != nil {
			return 0, 0, fieldError(field, err, iter.Value().Pos())
		}
		ids = append(ids, int(id))
	}
	if len(ids) != 2 {
		return 0, 0, newCompileError(field, fmt.Sprintf("want 2 vertex ids, got %d", len(ids)), v.Pos())
	}
	return ids[0], ids[1], nil
}

// lookup returns the named child of v, failing if it is absent.
func lookup(v cue.Value, parent, name string) (cue.Value, error) {
	child := v.LookupPath(cue.ParsePath(name))
	if !child.Exists() {
		return child, newCompileError(parent+"."+name, name+" is required", v.Pos())
	}
	return child, nil
}

// coordinate reads a numeric field. Integers are accepted.
func coordinate(v cue.Value, parent, name string) (float64, error) {
	child, err := lookup(v, parent, name)
	if err != nil {
		return 0, err
	}
	f, err := child.Float64()
	if err != nil {
		return 0, fieldError(parent+"."+name, err, child.Pos())
	}
	return f, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	File    string
	Line    int
	Column  int
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.File, e.Line, e.Column,
			e.Field, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newCompileError(field, message string, pos token.Pos) *CompileError {
	e := &CompileError{Field: field, Message: message}
	if pos.IsValid() {
		e.File = pos.Filename()
		e.Line = pos.Line()
		e.Column = pos.Column()
	}
	return e
}

// fieldError attaches a field name to a CUE accessor error.
func fieldError(field string, err error, pos token.Pos) error {
	if positions := errors.Positions(err); len(positions) > 0 {
		pos = positions[0]
	}
	return newCompileError(field, err.Error(), pos)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return newCompileError("cue", firstErr.Error(), positions[0])
	}

	return err
}
