package walker

import (
	"sort"

	"github.com/maruel/natural"
)

// listChildren returns the names to render below dir, filtered and sorted.
func listChildren(fsys FileSystem, dir string, opts Options) ([]string, error) {
	names, err := fsys.ReadDirNames(dir)
	if err != nil {
		return nil, err
	}

	kept := make([]string, 0, len(names))
	for _, name := range names {
		if name == "." || name == ".." || name == "" {
			continue
		}
		if !opts.ShowHidden && isHidden(name) {
			continue
		}
		kept = append(kept, name)
	}

	sortNames(kept, opts.NaturalSort)
	return kept, nil
}

// sortNames orders names byte-wise, or naturally when requested. Natural
// ordering falls back to byte order for names it considers equal so the
// output stays deterministic.
func sortNames(names []string, naturalOrder bool) {
	if !naturalOrder {
		sort.Strings(names)
		return
	}
	sort.SliceStable(names, func(i, j int) bool {
		a, b := names[i], names[j]
		if natural.Less(a, b) {
			return true
		}
		if natural.Less(b, a) {
			return false
		}
		return a < b
	})
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
