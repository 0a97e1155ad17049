// Package codec converts text to an encoded path over a lattice and back.
//
// An encoded path is an ordered list of Move, Line and Tick events in the
// lattice's native coordinate space. Encoding is deterministic: the same
// normalized text and lattice always produce the same events, so digests
// computed over a path are stable.
//
// Encoding rules, per character of the normalized text:
//   - the first character emits Move(start) then a segment to its end
//   - a character whose start vertex is the current vertex continues the
//     stroke; any other character lifts with Move(start) first
//   - a character whose directed edge equals, or reverses, the edge of the
//     preceding character is drawn with a Tick instead of a Line
//
// Decode inverts Encode. It is strict: a Tick that does not repeat the
// preceding edge, or a Line that does, is rejected as NO_MATCH.
package codec
