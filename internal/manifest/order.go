package manifest

import (
	"sort"
	"strings"
)

// PriorityGroups are filename prefixes imported ahead of everything else, in
// this order: definitions first, then the data that depends on them.
var PriorityGroups = []string{"import", "catalog", "goods"}

// Order returns names sorted case-insensitively, then regrouped so files
// starting with each priority prefix come first (group by group), followed by
// the rest. Relative order inside a group is the sorted order. names is not modified.
func Order(names []string) []string {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i]) < strings.ToLower(sorted[j])
	})

	placed := make([]bool, len(sorted))
	out := make([]string, 0, len(sorted))

	for _, prefix := range PriorityGroups {
		for i, name := range sorted {
			if !placed[i] && strings.HasPrefix(strings.ToLower(name), prefix) {
				placed[i] = true
				out = append(out, name)
			}
		}
	}
	for i, name := range sorted {
		if !placed[i] {
			out = append(out, name)
		}
	}
	return out
}
