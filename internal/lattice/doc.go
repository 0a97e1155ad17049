// Package lattice defines the graphs that text is encoded onto.
//
// A Lattice is an ordered vertex list in a normalized coordinate space, a
// set of undirected edges, and a character map assigning each supported
// character a direction over one edge. Two characters may share an edge
// only in opposite directions.
//
// Lattices are values. Editing a stored lattice produces a new revision
// with a new content digest rather than mutating the one in use, so
// encoders and decoders holding a *Lattice never observe a change.
//
// Invariants enforced by Validate:
//   - vertex ids are unique and dense (0..N-1), coordinates finite and distinct
//   - edges join two different existing vertices, each pair at most once
//   - every character is a single rune already in normalized form
//   - every character references an existing edge
//   - no two characters map to the same directed edge
package lattice
