package similarity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRatio_Identical(t *testing.T) {
	require.Equal(t, 1.0, Ratio("Type of place of residence", "Type of place of residence"))
}

func TestRatio_Empty(t *testing.T) {
	require.Equal(t, 1.0, Ratio("", ""))
	require.Equal(t, 0.0, Ratio("abc", ""))
}

func TestRatio_SimilarAboveThreshold(t *testing.T) {
	// abbreviated valueset label vs the fuller item label it should attach to
	r := Ratio("Type of place of residence", "Type place residence")
	require.Greater(t, r, 0.7)
}

func TestRatio_Dissimilar(t *testing.T) {
	r := Ratio("Age of respondent", "Wealth index quintile")
	require.Less(t, r, 0.5)
}
