// Package store provides SQLite-backed persistence for lattices.
//
// Every lattice has a stable id and an append-only list of revisions:
//   - lattices: id, unique name, builtin flag, current version
//   - lattice_revisions: (lattice_id, version) → content and its digest
//
// Writes enforce the lattice invariants (lattice.Validate) so an invalid
// lattice never reaches the database. Updating a lattice writes a new
// revision instead of mutating the one that encodings were produced under.
// The built-in default lattice is seeded by the first migration and can
// be neither updated nor deleted.
//
// Reads recompute the content digest and fail if it differs from the
// stored one, so a corrupted row is reported instead of silently decoding
// glyphs differently.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Revisions are deleted with their lattice
package store
