package walker

// Unlimited disables the depth limit.
const Unlimited = -1

// Options configures a single traversal. It is read-only once Walk starts.
type Options struct {
	// ShowHidden includes entries whose name starts with "."
	ShowHidden bool
	// MaxDepth limits descent below the root (Unlimited = no limit, 0 = root only)
	MaxDepth int
	// ShowDetails enables long format: permission column and symlink targets
	ShowDetails bool
	// NaturalSort orders children with natural (numeric-aware) ordering
	// instead of byte-wise ordering.
	NaturalSort bool
}

// DefaultOptions returns the options used when no flags are given.
func DefaultOptions() Options {
	return Options{
		ShowHidden:  false,
		MaxDepth:    Unlimited,
		ShowDetails: false,
		NaturalSort: false,
	}
}

// expands reports whether a directory at the given depth is descended into.
func (o Options) expands(depth int) bool {
	return o.MaxDepth < 0 || depth < o.MaxDepth
}
