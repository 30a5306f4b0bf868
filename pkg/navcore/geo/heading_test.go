package geo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeHeading(t *testing.T) {
	require.Equal(t, 0.0, NormalizeHeading(360))
	require.Equal(t, 350.0, NormalizeHeading(-10))
	require.Equal(t, 10.0, NormalizeHeading(370))
	require.Equal(t, 180.0, NormalizeHeading(180))
}

func TestHeadingDifference(t *testing.T) {
	require.Equal(t, 10.0, HeadingDifference(350, 0))
	require.Equal(t, 0.0, HeadingDifference(90, 90))
	require.Equal(t, 180.0, HeadingDifference(0, 180))
	require.Equal(t, 20.0, HeadingDifference(10, 350))
}
