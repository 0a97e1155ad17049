// Package render turns encoded paths into vector glyphs and back.
//
// Render produces a self-contained SVG fragment with the fixed viewBox
// "0 0 100 100". Each run of Line/Tick events after a Move becomes one
// stroke path; each Tick adds a secondary cross-stroke path whose
// endpoints are the transformed tick coordinates; the final segment gets a
// perpendicular end cap.
//
// Orientation and padding are recorded as data-* attributes on the root
// element so that ParseMarkup can rebuild the event list and Unproject can
// map it back into lattice space for decoding.
package render
