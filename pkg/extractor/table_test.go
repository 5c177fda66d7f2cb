package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esglab/reportrag/internal/models"
)

func TestLinearizeTables(t *testing.T) {
	tables := []models.Table{
		{
			Columns: []string{"指標", "數值"},
			Rows: [][]string{
				{"員工人數", "1200"},
				{"碳排放", "15"},
			},
		},
		{
			Columns: []string{"年度"},
			Rows:    [][]string{{"2023"}},
		},
	}

	text := LinearizeTables(tables)

	assert.Contains(t, text, "\n表格 1:\n")
	assert.Contains(t, text, "\n表格 2:\n")
	assert.Contains(t, text, "欄位: 指標, 數值\n")
	assert.Contains(t, text, "欄位: 年度\n")

	// Table numbering is 1-based and ordered.
	assert.Less(t, strings.Index(text, "表格 1:"), strings.Index(text, "表格 2:"))

	// Every cell value survives linearization.
	for _, cell := range []string{"員工人數", "1200", "碳排放", "15", "2023"} {
		assert.Contains(t, text, cell)
	}
}

func TestLinearizeTablesEmpty(t *testing.T) {
	assert.Empty(t, LinearizeTables(nil))
	assert.Empty(t, LinearizeTables([]models.Table{}))
}

func TestLinearizeTablesHeaderOnly(t *testing.T) {
	text := LinearizeTables([]models.Table{{Columns: []string{"指標", "數值"}}})

	assert.Contains(t, text, "表格 1:")
	assert.Contains(t, text, "欄位: 指標, 數值")
}

func TestRenderTableAlignment(t *testing.T) {
	table := models.Table{
		Columns: []string{"指標", "數值"},
		Rows:    [][]string{{"員工人數", "1200"}},
	}

	rendered := renderTable(table)
	lines := strings.Split(rendered, "\n")
	require.Len(t, lines, 2)

	// Cells are right-aligned to the widest cell in each column,
	// measured in runes, with a two-space separator.
	assert.Equal(t, "  指標    數值", lines[0])
	assert.Equal(t, "員工人數  1200", lines[1])
}

func TestTableFromRows(t *testing.T) {
	table, err := tableFromRows([][]string{
		{"指標", "數值"},
		{"員工人數", "1200"},
	})
	require.NoError(t, err)
	require.NotNil(t, table)

	assert.Equal(t, []string{"指標", "數值"}, table.Columns)
	assert.Equal(t, [][]string{{"員工人數", "1200"}}, table.Rows)
}

func TestTableFromRowsEmpty(t *testing.T) {
	table, err := tableFromRows(nil)
	require.NoError(t, err)
	assert.Nil(t, table)
}

func TestTableFromRowsWidthMismatch(t *testing.T) {
	_, err := tableFromRows([][]string{
		{"指標", "數值"},
		{"員工人數"},
	})
	assert.Error(t, err)
}
