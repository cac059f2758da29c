package walker

// VisitedSet records the canonical paths of directories already entered
// during one walk.
type VisitedSet struct {
	seen map[string]struct{}
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// MarkAndCheck records canonical and reports whether it was already present.
func (v *VisitedSet) MarkAndCheck(canonical string) bool {
	if _, ok := v.seen[canonical]; ok {
		return true
	}
	v.seen[canonical] = struct{}{}
	return false
}

// Len returns the number of distinct directories recorded.
func (v *VisitedSet) Len() int {
	return len(v.seen)
}
