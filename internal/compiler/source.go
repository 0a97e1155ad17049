package compiler

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
	"gopkg.in/yaml.v3"

	"github.com/roach88/latticeglyph/internal/lattice"
)

// CompileFile reads a lattice definition, choosing the format by
// extension: .cue, .yaml/.yml or .json.
func CompileFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lattice definition: %w", err)
	}
	return Compile(data, path)
}

// Compile parses data as the format implied by filename's extension.
func Compile(data []byte, filename string) (*Definition, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".cue":
		return CompileCUE(data, filename)
	case ".json":
		return CompileJSON(data, filename)
	case ".yaml", ".yml":
		return CompileYAML(data, filename)
	default:
		return nil, &CompileError{
			Field:   "file",
			Message: fmt.Sprintf("unsupported lattice format %q (want .cue, .yaml, .yml or .json)", ext),
			File:    filename,
		}
	}
}

// CompileCUE compiles CUE source whose top level is the lattice.
func CompileCUE(data []byte, filename string) (*Definition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	def, err := CompileLattice(v)
	if err != nil {
		return nil, err
	}
	def.File = filename
	return def, nil
}

// CompileJSON compiles a JSON lattice. The document is extracted through
// CUE so errors carry positions.
func CompileJSON(data []byte, filename string) (*Definition, error) {
	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return nil, formatCUEError(err)
	}
	v := cuecontext.New().BuildExpr(expr)
	def, err := CompileLattice(v)
	if err != nil {
		return nil, err
	}
	def.File = filename
	return def, nil
}

// yamlLattice is the YAML document shape. Unknown fields are rejected.
type yamlLattice struct {
	ID           string                      `yaml:"id"`
	Name         string                      `yaml:"name"`
	Rules        lattice.Rules               `yaml:"rules"`
	Vertices     []lattice.Vertex            `yaml:"vertices"`
	Edges        []lattice.Edge              `yaml:"edges"`
	CharacterMap map[string]lattice.CharEdge `yaml:"character_map"`
}

// CompileYAML compiles a YAML lattice.
func CompileYAML(data []byte, filename string) (*Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &CompileError{Field: "yaml", Message: err.Error(), File: filename}
	}
	if len(doc.Content) == 0 {
		return nil, &CompileError{Field: "yaml", Message: "empty document", File: filename}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &CompileError{Field: "yaml", Message: "lattice must be a mapping", File: filename, Line: root.Line, Column: root.Column}
	}

	var src yamlLattice
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&src); err != nil {
		return nil, &CompileError{Field: "yaml", Message: err.Error(), File: filename}
	}

	def := newDefinition(filename)
	recordYAMLLines(root, def.lines)
	for _, field := range []string{"name", "vertices", "edges", "character_map"} {
		if _, ok := def.lines[field]; !ok {
			return nil, &CompileError{Field: field, Message: field + " is required", File: filename, Line: root.Line, Column: root.Column}
		}
	}

	*def.Lattice = lattice.Lattice{
		ID:           src.ID,
		Name:         src.Name,
		Rules:        src.Rules,
		Vertices:     src.Vertices,
		Edges:        src.Edges,
		CharacterMap: src.CharacterMap,
	}
	return def, nil
}

// recordYAMLLines maps top-level keys and list/map entries to their lines
// using the same field names lattice problems use.
func recordYAMLLines(root *yaml.Node, lines map[string]int) {
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		lines[key.Value] = key.Line

		switch key.Value {
		case "vertices", "edges":
			for j, item := range val.Content {
				lines[fmt.Sprintf("%s[%d]", key.Value, j)] = item.Line
			}
		case "character_map":
			for j := 0; j+1 < len(val.Content); j += 2 {
				ch := val.Content[j]
				lines[fmt.Sprintf("character_map[%q]", ch.Value)] = ch.Line
			}
		}
	}
}
