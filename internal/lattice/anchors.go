package lattice

import "slices"

// AdhocName names lattices built by FromAnchors.
const AdhocName = "adhoc"

// FromAnchors builds a transient lattice from caller-supplied anchors and
// a character map. The edge set is derived from the map, one edge per
// distinct undirected pair, sorted. The result still has to pass Validate.
func FromAnchors(anchors []Vertex, mapping map[string]CharEdge, rules Rules) *Lattice {
	seen := make(map[Edge]struct{}, len(mapping))
	edges := make([]Edge, 0, len(mapping))
	for _, ce := range mapping {
		e := ce.Undirected()
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		edges = append(edges, e)
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.A != b.A {
			return a.A - b.A
		}
		return a.B - b.B
	})

	cm := make(map[string]CharEdge, len(mapping))
	for k, v := range mapping {
		cm[k] = v
	}

	return &Lattice{
		Name:         AdhocName,
		Rules:        rules,
		Vertices:     slices.Clone(anchors),
		Edges:        edges,
		CharacterMap: cm,
	}
}
