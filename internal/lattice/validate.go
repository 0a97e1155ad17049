package lattice

// Validate checks every invariant of l and returns an InvalidLatticeError
// listing all problems, or nil.
func Validate(l *Lattice) error {
	ix, _ := build(l)
	if len(ix.problems) > 0 {
		return &InvalidLatticeError{Problems: ix.problems}
	}
	return nil
}
