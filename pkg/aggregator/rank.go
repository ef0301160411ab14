package aggregator

import (
	"cmp"
	"slices"
)

// RankUnion ranks the union of labels in a and b by combined count, then by
// a's count, then by b's count, all descending, and returns the first topK.
// Labels that tie on all three sort alphabetically so the result is stable.
func RankUnion(a, b map[string]int64, topK int) []string {
	if topK <= 0 {
		return nil
	}
	labels := make([]string, 0, len(a)+len(b))
	for label := range a {
		labels = append(labels, label)
	}
	for label := range b {
		if _, ok := a[label]; !ok {
			labels = append(labels, label)
		}
	}

	slices.SortFunc(labels, func(x, y string) int {
		return cmp.Or(
			cmp.Compare(a[y]+b[y], a[x]+b[x]),
			cmp.Compare(a[y], a[x]),
			cmp.Compare(b[y], b[x]),
			cmp.Compare(x, y),
		)
	})
	if len(labels) > topK {
		labels = labels[:topK]
	}
	return labels
}
