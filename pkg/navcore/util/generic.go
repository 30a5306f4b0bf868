// Package util provides small generic helpers and the diagnostics
// accumulator shared by the route pipeline and the data repository.
package util

import (
	"maps"
	"slices"

	"golang.org/x/exp/constraints"
)

// Select returns a if sel is true, otherwise b.
func Select[T any](sel bool, a, b T) T {
	if sel {
		return a
	}
	return b
}

// SortedMapKeys returns the keys of m sorted ascending.
func SortedMapKeys[K constraints.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}

// MapSlice applies xform to every element of from.
func MapSlice[F, T any](from []F, xform func(F) T) []T {
	to := make([]T, len(from))
	for i := range from {
		to[i] = xform(from[i])
	}
	return to
}

// FilterSlice returns a new slice holding the elements of s for which
// pred returns true.
func FilterSlice[V any](s []V, pred func(V) bool) []V {
	var filtered []V
	for i := range s {
		if pred(s[i]) {
			filtered = append(filtered, s[i])
		}
	}
	return filtered
}

// DuplicateSlice returns a newly allocated copy of s.
func DuplicateSlice[V any](s []V) []V {
	dupe := make([]V, len(s))
	copy(dupe, s)
	return dupe
}
