package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	require.Equal(t, "a", Select(true, "a", "b"))
	require.Equal(t, "b", Select(false, "a", "b"))
}

func TestSortedMapKeys(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}
	require.Equal(t, []string{"a", "b", "c"}, SortedMapKeys(m))
}

func TestMapSlice(t *testing.T) {
	got := MapSlice([]int{1, 2, 3}, func(v int) int { return v * 2 })
	require.Equal(t, []int{2, 4, 6}, got)
}

func TestFilterSlice(t *testing.T) {
	got := FilterSlice([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	require.Equal(t, []int{2, 4}, got)
}

func TestFilterSliceNoMatchesReturnsNil(t *testing.T) {
	got := FilterSlice([]int{1, 3}, func(v int) bool { return v%2 == 0 })
	require.Nil(t, got)
}

func TestDuplicateSliceIsIndependentCopy(t *testing.T) {
	src := []int{1, 2, 3}
	dupe := DuplicateSlice(src)
	dupe[0] = 99
	require.Equal(t, 1, src[0])
}
