// Package processor splits merged report text into bounded, section-aware
// chunks and scans chunk text for ESG metric candidates.
package processor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/esglab/reportrag/internal/models"
)

type ProcessorConfig struct {
	// ChunkSize is the soft upper bound on chunk length, in runes.
	ChunkSize int

	// ChunkOverlap is reserved as a trailing margin: a chunk breaks early
	// once it would exceed ChunkSize-ChunkOverlap. No text is duplicated
	// between chunks.
	ChunkOverlap int

	// SectionMatcher reports whether a line starts a new section and must
	// begin a new chunk. Defaults to IsSectionStart.
	SectionMatcher func(line string) bool
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}
	if config.SectionMatcher == nil {
		config.SectionMatcher = IsSectionStart
	}

	return Processor{
		config: config,
	}
}

// sectionPattern matches report heading lines: a Chinese numeral followed
// by 、, a decimal-numbered heading, or 第<numeral>章.
var sectionPattern = regexp.MustCompile(`^(?:[一二三四五六七八九十]+、|\d+\.|第[一二三四五六七八九十]+章)`)

// IsSectionStart is the default section predicate.
func IsSectionStart(line string) bool {
	return sectionPattern.MatchString(line)
}

// Process chunks each document's content and records the chunk count in its
// metadata.
func (p *Processor) Process(docs []models.Document) ([]models.ProcessedDocument, error) {
	var processed []models.ProcessedDocument

	for _, doc := range docs {
		chunks := p.SplitText(doc.Content)

		processed = append(processed, models.ProcessedDocument{
			Document: doc,
			Chunks:   chunks,
			Meta: models.Metadata{
				FileName:    doc.Name,
				TotalChunks: len(chunks),
			},
		})
	}

	return processed, nil
}

// SplitText scans the text line by line and accumulates lines into chunks.
// A section-start line closes the current chunk; so does growing past
// ChunkSize-ChunkOverlap. Lines are never split, so a single long line can
// exceed the bound. Chunks are trimmed and empty ones dropped. The split is
// a pure function of (text, config).
func (p *Processor) SplitText(text string) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0
	limit := p.config.ChunkSize - p.config.ChunkOverlap

	flush := func() {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		currentLen = 0
	}

	for _, line := range strings.Split(text, "\n") {
		lineLen := utf8.RuneCountInString(line)

		switch {
		case currentLen > 0 && p.config.SectionMatcher(line):
			flush()
			current.WriteString(line)
			currentLen = lineLen
		case currentLen+lineLen > limit:
			flush()
			current.WriteString(line)
			currentLen = lineLen
		default:
			current.WriteByte('\n')
			current.WriteString(line)
			currentLen += 1 + lineLen
		}
	}
	flush()

	return chunks
}
