package gemini

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), "")
	assert.Error(t, err)
}

func TestNormalize_UnitNorm(t *testing.T) {
	vec := []float64{3, 4}
	normalize(vec)

	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-12)
	assert.InDelta(t, 0.6, vec[0], 1e-12)
	assert.InDelta(t, 0.8, vec[1], 1e-12)
}

func TestNormalize_ZeroVectorUnchanged(t *testing.T) {
	vec := []float64{0, 0, 0}
	normalize(vec)
	assert.Equal(t, []float64{0, 0, 0}, vec)
}

func TestStripCodeFences(t *testing.T) {
	require.Equal(t, `{"a": 1}`, stripCodeFences(`{"a": 1}`))
	require.Equal(t, `{"a": 1}`, stripCodeFences("```json\n{\"a\": 1}\n```"))
	require.Equal(t, `{"a": 1}`, stripCodeFences("```\n{\"a\": 1}\n```"))
	require.Equal(t, `{"a": 1}`, stripCodeFences("  ```json\n{\"a\": 1}\n```  "))
}

func TestJurisdictionClause(t *testing.T) {
	assert.Equal(t, "", jurisdictionClause(""))
	assert.Equal(t, " in or applicable to switzerland", jurisdictionClause("switzerland"))
}
