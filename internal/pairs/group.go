package pairs

import "sort"

// GroupByBaseType partitions examples into ToM/non-ToM buckets keyed by
// base question type. Memory and reality controls are dropped.
func GroupByBaseType(examples []Example) map[string]*Group {
	groups := make(map[string]*Group)

	for _, ex := range examples {
		if ex.QuestionType == typeMemory || ex.QuestionType == typeReality {
			continue
		}
		g, ok := groups[ex.BaseType]
		if !ok {
			g = &Group{}
			groups[ex.BaseType] = g
		}
		if ex.RequiresToM {
			g.ToM = append(g.ToM, ex)
		} else {
			g.NoToM = append(g.NoToM, ex)
		}
	}
	return groups
}

// SortedKeys returns group keys in deterministic order.
func SortedKeys(groups map[string]*Group) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flatten concatenates every group's examples into a single ToM slice and a
// single non-ToM slice, in key order.
func Flatten(groups map[string]*Group) (tom, noTom []Example) {
	for _, key := range SortedKeys(groups) {
		g := groups[key]
		tom = append(tom, g.ToM...)
		noTom = append(noTom, g.NoToM...)
	}
	return tom, noTom
}
