package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/latticeglyph/internal/geometry"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Lattices lists lattice definition files to create before the steps.
	// Paths are relative to the scenario file location.
	Lattices []string `yaml:"lattices,omitempty"`

	// Steps run in order against one service.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one service operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Lattice is a lattice id or name. Empty means "default" except for
	// decode, where it means the encoding's recorded revision.
	Lattice string `yaml:"lattice,omitempty"`

	// Text is the input of encode and render.
	Text string `yaml:"text,omitempty"`

	// Orientation is the render orientation.
	Orientation geometry.Orientation `yaml:"orientation,omitempty"`

	// Digest overrides the expected digest of verify.
	Digest string `yaml:"digest,omitempty"`

	// File is the lattice definition of create_lattice and update_lattice,
	// relative to the scenario file.
	File string `yaml:"file,omitempty"`

	// Expect specifies the expected outcome. If nil, the step only has to
	// succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is a subset match on a step's trace event. Only fields that are
// set are compared.
type Expect struct {
	Kinds    []string `yaml:"kinds,omitempty"`
	Text     *string  `yaml:"text,omitempty"`
	Digest   string   `yaml:"digest,omitempty"`
	Version  int64    `yaml:"version,omitempty"`
	Match    *bool    `yaml:"match,omitempty"`
	CacheHit *bool    `yaml:"cache_hit,omitempty"`
	// Error is the expected error kind, e.g. UNMAPPED_CHARACTER.
	Error string `yaml:"error,omitempty"`
}

// Operation names.
const (
	OpEncode        = "encode"
	OpDecode        = "decode"
	OpRender        = "render"
	OpVerify        = "verify"
	OpCreateLattice = "create_lattice"
	OpUpdateLattice = "update_lattice"
)

var validOps = map[string]bool{
	OpEncode:        true,
	OpDecode:        true,
	OpRender:        true,
	OpVerify:        true,
	OpCreateLattice: true,
	OpUpdateLattice: true,
}

// Assertion validates the final trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Op is the operation counted by trace_count.
	Op string `yaml:"op,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Ops is the expected operation order (trace_order).
	Ops []string `yaml:"ops,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount = "trace_count"
	AssertTraceOrder = "trace_order"
	AssertRoundTrip  = "round_trip"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Lattice file paths are resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, p := range scenario.Lattices {
		scenario.Lattices[i] = resolve(base, p)
	}
	for i := range scenario.Steps {
		if f := scenario.Steps[i].File; f != "" {
			scenario.Steps[i].File = resolve(base, f)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without resolving file paths.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if !validOps[step.Op] {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		switch step.Op {
		case OpCreateLattice, OpUpdateLattice:
			if step.File == "" {
				return fmt.Errorf("steps[%d]: %s requires file", i, step.Op)
			}
		}
		if step.Op == OpUpdateLattice && step.Lattice == "" {
			return fmt.Errorf("steps[%d]: update_lattice requires lattice", i)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertTraceCount:
			if a.Op == "" {
				return fmt.Errorf("assertions[%d]: trace_count requires op", i)
			}
		case AssertTraceOrder:
			if len(a.Ops) < 2 {
				return fmt.Errorf("assertions[%d]: trace_order requires at least two ops", i)
			}
		case AssertRoundTrip:
		default:
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
	}
	return nil
}
