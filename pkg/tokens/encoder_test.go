package tokens

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicEstimator(t *testing.T) {
	est := NewHeuristicEstimator()

	count, err := est.Count("")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = est.Count("ab")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "short non-empty text still costs at least one token")

	count, err = est.Count("twelve chars")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

type failingEstimator struct{}

func (failingEstimator) Count(string) (int, error) {
	return 0, fmt.Errorf("no vocabulary")
}

func TestCountBatch(t *testing.T) {
	total := CountBatch(NewHeuristicEstimator(), []string{"abcd", "efgh", ""})
	assert.Equal(t, 2, total)

	// A failing estimator falls back to the heuristic per input.
	total = CountBatch(failingEstimator{}, []string{"abcd", "efgh"})
	assert.Equal(t, 2, total)
}
