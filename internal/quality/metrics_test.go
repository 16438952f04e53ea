package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassFor_BoundaryAcrossRange(t *testing.T) {
	for v := 0; v <= 100; v++ {
		want := Orange
		if v >= 70 {
			want = Green
		}
		if got := ClassFor(v); got != want {
			t.Fatalf("ClassFor(%d) = %q, want %q", v, got, want)
		}
	}
}

func TestCriteria_ExactNames(t *testing.T) {
	require.Len(t, Criteria, 13)
	assert.Equal(t, "clarity", Criteria[0])
	assert.Equal(t, "relevance", Criteria[12])
	assert.Contains(t, Criteria, "unambiguity")
	assert.Contains(t, Criteria, "understandability")
}

func TestFromScores_MissingCriteriaAreZero(t *testing.T) {
	metrics := FromScores(map[string]float64{"clarity": 81.6, "relevance": 69.4})
	require.Len(t, metrics, 13)

	assert.Equal(t, "Clarity", metrics[0].Name)
	assert.Equal(t, 82, metrics[0].Value)
	assert.Equal(t, Green, metrics[0].ColorClass)

	assert.Equal(t, 69, metrics[12].Value)
	assert.Equal(t, Orange, metrics[12].ColorClass)

	assert.Equal(t, 0, metrics[1].Value)
	assert.Equal(t, Orange, metrics[1].ColorClass)
}

func TestNewMetric_ClampsOutOfRange(t *testing.T) {
	assert.Equal(t, 100, NewMetric("clarity", 140).Value)
	assert.Equal(t, 0, NewMetric("clarity", -3).Value)
}

func TestCountByClass(t *testing.T) {
	green, orange := CountByClass([]Metric{NewMetric("a", 70), NewMetric("b", 69), NewMetric("c", 10)})
	assert.Equal(t, 1, green)
	assert.Equal(t, 2, orange)
}
