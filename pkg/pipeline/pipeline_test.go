package pipeline_test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esglab/reportrag/pkg/extractor"
	"github.com/esglab/reportrag/pkg/pipeline"
	"github.com/esglab/reportrag/pkg/processor"
)

// reportFixture writes a small DOCX report with two sections and one table.
func reportFixture(t *testing.T, dir string) string {
	t.Helper()

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>第一章 緣起</w:t></w:r></w:p>
<w:p><w:r><w:t>本報告涵蓋 2023 年度。</w:t></w:r></w:p>
<w:p><w:r><w:t>第二章 員工概況</w:t></w:r></w:p>
<w:p><w:r><w:t>員工人數共 1200 人，碳排放減少 15%。</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>指標</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>數值</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>員工人數</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>1200</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
</w:body>
</w:document>`

	path := filepath.Join(dir, "esg-2023.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	fw, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = fw.Write([]byte(docXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return path
}

func newTestPipeline() *pipeline.Pipeline {
	return pipeline.NewWithConfig(pipeline.PipelineConfig{
		Extractor: extractor.NewWithConfig(extractor.Config{}),
		Processor: processor.NewWithConfig(processor.ProcessorConfig{}),
	})
}

func TestProcessDocument(t *testing.T) {
	path := reportFixture(t, t.TempDir())
	p := newTestPipeline()

	chunks, meta, err := p.ProcessDocument(path)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assert.Equal(t, "esg-2023.docx", meta.FileName)
	assert.Equal(t, ".docx", meta.FileType)
	assert.Equal(t, 1, meta.TablesFound)
	assert.Equal(t, len(chunks), meta.TotalChunks)

	_, err = time.Parse(time.RFC3339, meta.ProcessTime)
	assert.NoError(t, err, "process_time must be RFC 3339")

	// Section headings open their own chunks; linearized table text is
	// chunked along with the body.
	assert.Contains(t, chunks[0], "第一章 緣起")
	joined := ""
	for _, c := range chunks {
		joined += c + "\n"
	}
	assert.Contains(t, joined, "第二章 員工概況")
	assert.Contains(t, joined, "表格 1:")
	assert.Contains(t, joined, "欄位: 指標, 數值")
}

func TestProcessDocumentUnsupported(t *testing.T) {
	p := newTestPipeline()

	chunks, meta, err := p.ProcessDocument("notes.txt")
	require.Error(t, err)

	var ufe *extractor.UnsupportedFormatError
	assert.ErrorAs(t, err, &ufe)

	// No partial results on failure.
	assert.Nil(t, chunks)
	assert.Zero(t, meta)
}

func TestProcessDocumentMissingFile(t *testing.T) {
	p := newTestPipeline()

	chunks, meta, err := p.ProcessDocument(filepath.Join(t.TempDir(), "gone.pdf"))
	require.Error(t, err)

	var re *extractor.ReadError
	assert.ErrorAs(t, err, &re)
	assert.Nil(t, chunks)
	assert.Zero(t, meta)
}

func TestMetricCandidatesAcrossChunks(t *testing.T) {
	p := newTestPipeline()

	candidates := p.MetricCandidates([]string{
		"員工人數共 1200 人。",
		"能源使用下降 3.5%。",
	})
	require.Len(t, candidates, 2)

	assert.Equal(t, "員工", candidates[0].Keyword)
	assert.Equal(t, "能源", candidates[1].Keyword)
}
