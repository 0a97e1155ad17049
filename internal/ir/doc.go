// Package ir provides the canonical serialization and hashing primitives
// behind glyph digests and lattice content digests.
//
// ir imports nothing internal. Callers convert their own types into the
// constrained value set defined here and hash the canonical bytes.
//
// Key design constraints:
//   - NO float types in canonical form - coordinates are quantized to
//     integer micro-units with Quantize before serialization
//   - Object keys sorted by UTF-16 code units (RFC 8785)
//   - Strings NFC normalized at the serialization boundary
//   - Domain-separated SHA-256 so a path digest can never equal a
//     lattice digest over the same bytes
package ir
