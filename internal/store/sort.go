package store

import (
	"sort"
	"strconv"
)

// sortStrings sorts items in place. numeric parses each element as a
// float64 and compares numerically, returning false without sorting if
// any element fails to parse. Non-numeric sorts are lexical.
func sortStrings(items []string, numeric, descending bool) bool {
	if numeric {
		values := make([]float64, len(items))
		for i, it := range items {
			v, err := strconv.ParseFloat(it, 64)
			if err != nil {
				return false
			}
			values[i] = v
		}
		idx := make([]int, len(items))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			if descending {
				return values[idx[a]] > values[idx[b]]
			}
			return values[idx[a]] < values[idx[b]]
		})
		sorted := make([]string, len(items))
		for i, j := range idx {
			sorted[i] = items[j]
		}
		copy(items, sorted)
		return true
	}

	sort.SliceStable(items, func(a, b int) bool {
		if descending {
			return items[a] > items[b]
		}
		return items[a] < items[b]
	})
	return true
}
