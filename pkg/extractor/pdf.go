package extractor

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/esglab/reportrag/internal/models"
)

// extractPDF walks the pages in document order, appending each page's text
// layer and collecting best-effort tables. Only the embedded text layer is
// read; scanned (image-only) PDFs yield no text.
func (e *Extractor) extractPDF(path string) (*models.Extraction, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	fonts := make(map[string]*pdf.Font)
	var text strings.Builder
	var tables []models.Table

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				ft := p.Font(name)
				fonts[name] = &ft
			}
		}

		pageText, err := p.GetPlainText(fonts)
		if err != nil {
			e.logger.Warn("text extraction failed on pdf page", "page", i, "error", err)
		} else {
			text.WriteString(pageText)
			text.WriteByte('\n')
		}

		pageTables, err := pdfPageTables(p)
		if err != nil {
			e.logger.Warn("table extraction failed on pdf page", "page", i, "error", err)
			continue
		}
		tables = append(tables, pageTables...)
	}

	return &models.Extraction{Text: text.String(), Tables: tables}, nil
}

// cellGap is the horizontal whitespace, in points, that separates two text
// fragments into different table cells.
const cellGap = 12.0

// pdfPageTables groups the page's positioned text rows into tables: a run
// of two or more consecutive rows with the same cell count, at least two
// cells wide, becomes a table with its first row as header. The pdf content
// walker panics on malformed streams, so failures surface as errors here.
func pdfPageTables(p pdf.Page) (tables []models.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page content: %v", r)
		}
	}()

	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, err
	}

	var run [][]string
	flush := func() {
		if len(run) >= 2 {
			t, terr := tableFromRows(run)
			if terr == nil && t != nil {
				tables = append(tables, *t)
			}
		}
		run = nil
	}

	for _, row := range rows {
		cells := rowCells(row)
		if len(cells) < 2 {
			flush()
			continue
		}
		if len(run) > 0 && len(cells) != len(run[0]) {
			flush()
		}
		run = append(run, cells)
	}
	flush()

	return tables, nil
}

// rowCells merges one row's text fragments left to right, starting a new
// cell whenever the gap to the previous fragment exceeds cellGap.
func rowCells(row *pdf.Row) []string {
	var cells []string
	var cur strings.Builder
	lastEnd := 0.0

	for _, t := range row.Content {
		if cur.Len() > 0 && t.X-lastEnd > cellGap {
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		cur.WriteString(t.S)
		lastEnd = t.X + t.W
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		cells = append(cells, s)
	}
	return cells
}
