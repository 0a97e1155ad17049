// Package harness runs conformance scenarios against the glyph service.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: af_discontinuity
//	description: "What this scenario validates"
//	lattices:
//	  - ../lattices/square.yaml
//	steps:
//	  - op: encode
//	    text: "AF"
//	    expect:
//	      kinds: [move, line, move, line]
//	      digest: "4a0a1d02..."
//	  - op: decode
//	    expect: { text: "AF" }
//	  - op: render
//	    text: "AF"
//	    orientation: { rotation: 90, mirror: true }
//	    expect: { text: "AF", cache_hit: false }
//	assertions:
//	  - type: trace_count
//	    op: render
//	    count: 1
//
// # Operations
//
//   - encode: encode text under a lattice and remember the encoding
//   - decode: decode the last encoding, under its recorded revision or,
//     when the step names a lattice, under that lattice's current revision
//   - render: render text to markup (through the cache) and decode the
//     markup back
//   - verify: check the last encoding against its digest or step.digest
//   - create_lattice: compile a lattice file and store it
//   - update_lattice: compile a lattice file and store it as the next
//     revision of step.lattice
//
// Steps without a lattice use the built-in "default" lattice.
//
// # Assertion Types
//
//   - trace_count: an operation appears exactly N times
//   - trace_order: operations appear in the given order
//   - round_trip: every decode and render recovered the text it encoded
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory store with sequential
// lattice ids (testutil.SequenceGenerator), so traces are byte-identical
// across runs and can be compared against golden files.
package harness
