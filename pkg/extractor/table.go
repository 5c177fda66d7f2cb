package extractor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/esglab/reportrag/internal/models"
)

// LinearizeTables renders every table as a descriptive text block: a
// 1-based heading, the column list, then the aligned rows. An empty table
// still gets its heading and column line.
func LinearizeTables(tables []models.Table) string {
	var sb strings.Builder
	for i, t := range tables {
		fmt.Fprintf(&sb, "\n表格 %d:\n", i+1)
		fmt.Fprintf(&sb, "欄位: %s\n", strings.Join(t.Columns, ", "))
		if r := renderTable(t); r != "" {
			sb.WriteString(r)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// renderTable prints header and rows as right-aligned columns with no
// row-index column, two spaces between columns.
func renderTable(t models.Table) string {
	if len(t.Columns) == 0 && len(t.Rows) == 0 {
		return ""
	}

	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := utf8.RuneCountInString(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				sb.WriteString("  ")
			}
			pad := widths[i] - utf8.RuneCountInString(cell)
			if pad > 0 {
				sb.WriteString(strings.Repeat(" ", pad))
			}
			sb.WriteString(cell)
		}
		sb.WriteByte('\n')
	}

	if len(t.Columns) > 0 {
		writeRow(t.Columns)
	}
	for _, row := range t.Rows {
		writeRow(row)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// tableFromRows builds a Table treating the first row as the header. Body
// rows whose width differs from the header make the table malformed.
func tableFromRows(rows [][]string) (*models.Table, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	t := &models.Table{Columns: rows[0]}
	for i, row := range rows[1:] {
		if len(row) != len(t.Columns) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(row), len(t.Columns))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
