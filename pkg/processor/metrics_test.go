package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricCandidates(t *testing.T) {
	p := NewWithConfig(ProcessorConfig{})

	candidates := p.MetricCandidates("員工人數共 1200 人，碳排放減少 15%。")
	require.Len(t, candidates, 2)

	assert.Equal(t, "員工", candidates[0].Keyword)
	assert.Equal(t, "1200", candidates[0].Value)
	assert.Equal(t, "人", candidates[0].Unit)
	assert.Contains(t, candidates[0].Context, "員工人數共 1200")

	assert.Equal(t, "碳排", candidates[1].Keyword)
	assert.Equal(t, "15", candidates[1].Value)
	assert.Equal(t, "%", candidates[1].Unit)
}

func TestMetricCandidatesDecimal(t *testing.T) {
	p := NewWithConfig(ProcessorConfig{})

	candidates := p.MetricCandidates("能源使用下降 3.5%")
	require.Len(t, candidates, 1)

	assert.Equal(t, "能源", candidates[0].Keyword)
	assert.Equal(t, "3.5", candidates[0].Value)
	assert.Equal(t, "%", candidates[0].Unit)
}

func TestMetricCandidatesNoUnit(t *testing.T) {
	p := NewWithConfig(ProcessorConfig{})

	candidates := p.MetricCandidates("培訓時數達 520")
	require.Len(t, candidates, 1)

	assert.Equal(t, "培訓", candidates[0].Keyword)
	assert.Equal(t, "520", candidates[0].Value)
	assert.Empty(t, candidates[0].Unit)
}

func TestMetricCandidatesNoNumber(t *testing.T) {
	p := NewWithConfig(ProcessorConfig{})

	// Keyword present but no numeric value in the sentence.
	assert.Empty(t, p.MetricCandidates("本公司重視環境保護。"))
	assert.Empty(t, p.MetricCandidates(""))
}

func TestMetricCandidatesSentenceBounded(t *testing.T) {
	p := NewWithConfig(ProcessorConfig{})

	// The number lives in the next sentence, out of the keyword's reach.
	assert.Empty(t, p.MetricCandidates("薪資持續調整。調幅為 3%。"))
}

func TestMetricCandidatesRepeatedKeyword(t *testing.T) {
	p := NewWithConfig(ProcessorConfig{})

	candidates := p.MetricCandidates("員工共 1200 人。\n新進員工 85 人。")
	require.Len(t, candidates, 2)

	assert.Equal(t, "1200", candidates[0].Value)
	assert.Equal(t, "85", candidates[1].Value)
}
