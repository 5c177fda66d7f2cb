package processor

import (
	"regexp"

	"github.com/esglab/reportrag/internal/models"
)

// esgKeywords are the domain terms whose nearby numbers are worth keeping
// as metric candidates.
var esgKeywords = []string{"員工", "環境", "碳排", "能源", "培訓", "薪資", "安全", "事故"}

// metricPatterns holds one compiled pattern per keyword: the keyword, then
// anything up to the next number within the same sentence (bounded by 。 or
// newline), capturing the value and an optional unit symbol.
var metricPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(esgKeywords))
	for _, kw := range esgKeywords {
		patterns[kw] = regexp.MustCompile(kw + `[^。\n]*?(\d+(?:\.\d+)?)\s*(%|％|萬|億|個|人|元|小時|分鐘)?`)
	}
	return patterns
}()

// MetricCandidates finds, for every keyword occurrence, the nearest
// following numeric value in the same sentence. Overlapping matches for
// different keywords are all emitted and never deduplicated. The scan has
// no failure mode: no matches yields an empty result.
func (p *Processor) MetricCandidates(text string) []models.MetricCandidate {
	var candidates []models.MetricCandidate

	for _, kw := range esgKeywords {
		for _, m := range metricPatterns[kw].FindAllStringSubmatch(text, -1) {
			candidates = append(candidates, models.MetricCandidate{
				Keyword: kw,
				Context: m[0],
				Value:   m[1],
				Unit:    m[2],
			})
		}
	}

	return candidates
}
