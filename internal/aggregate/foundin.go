package aggregate

import "strings"

// addSource appends name to set unless an equal (case-insensitive) name is already present.
func addSource(set []string, name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return set
	}
	for _, s := range set {
		if strings.EqualFold(s, name) {
			return set
		}
	}
	return append(set, name)
}

// unionSources merges the names of b into a, keeping a's order.
func unionSources(a []string, b ...string) []string {
	for _, s := range b {
		a = addSource(a, s)
	}
	return a
}

// seedSources builds the found_in set of a record seen for the first time.
func seedSources(existing []string, source string) []string {
	out := make([]string, 0, len(existing)+1)
	out = addSource(out, source)
	return unionSources(out, existing...)
}
