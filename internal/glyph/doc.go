// Package glyph is the in-process interface application code uses to
// encode text as lattice glyphs.
//
// A Service ties the pure codec, renderer and verifier to a lattice store
// and a glyph cache:
//
//	svc := glyph.New(st, glyph.WithLogger(logger))
//	enc, err := svc.Encode(ctx, "default", "hello world")
//	markup, err := svc.GlyphMarkup(ctx, "default", "hello world")
//	text, err := svc.DecodeMarkup(ctx, "default", markup)
//	ok, err := svc.VerifyEncoding(enc.Path, enc.Digest)
//
// Lattices are referenced by id or name. Every encoding records the
// lattice id, version and content digest it was produced under, so it stays
// decodable after the lattice is edited.
//
// Thread-safety: Service is safe for concurrent use. Lattice edits write
// new revisions instead of mutating old ones, and cache keys carry the
// lattice content digest, so in-flight operations never observe a
// half-edited lattice.
package glyph
