package extractor

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/esglab/reportrag/internal/models"
)

type xlsxWorkbook struct {
	Sheets []xlsxSheetRef `xml:"sheets>sheet"`
}

type xlsxSheetRef struct {
	Name string `xml:"name,attr"`
	RID  string `xml:"id,attr"`
}

type xlsxRels struct {
	Rels []xlsxRel `xml:"Relationship"`
}

type xlsxRel struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
}

type xlsxSharedStrings struct {
	Strings []xlsxString `xml:"si"`
}

type xlsxString struct {
	Text     string `xml:"t"`
	RichText []struct {
		Text string `xml:"t"`
	} `xml:"r"`
}

type xlsxWorksheet struct {
	Rows []xlsxRow `xml:"sheetData>row"`
}

type xlsxRow struct {
	Cells []xlsxCell `xml:"c"`
}

type xlsxCell struct {
	Ref    string `xml:"r,attr"`
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline string `xml:"is>t"`
}

// extractXLSX loads every worksheet in workbook order as a table (first row
// as header) and also renders each sheet into the raw text, prefixed with
// its name.
func (e *Extractor) extractXLSX(path string) (*models.Extraction, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files[f.Name] = f
	}

	var wb xlsxWorkbook
	if err := decodeZipXML(files, "xl/workbook.xml", &wb); err != nil {
		return nil, err
	}

	var rels xlsxRels
	if err := decodeZipXML(files, "xl/_rels/workbook.xml.rels", &rels); err != nil {
		return nil, err
	}
	sheetPaths := make(map[string]string, len(rels.Rels))
	for _, rel := range rels.Rels {
		sheetPaths[rel.ID] = resolveSheetTarget(rel.Target)
	}

	var shared []string
	if _, ok := files["xl/sharedStrings.xml"]; ok {
		var sst xlsxSharedStrings
		if err := decodeZipXML(files, "xl/sharedStrings.xml", &sst); err != nil {
			return nil, err
		}
		shared = make([]string, len(sst.Strings))
		for i, s := range sst.Strings {
			if s.Text != "" {
				shared[i] = s.Text
				continue
			}
			var sb strings.Builder
			for _, rt := range s.RichText {
				sb.WriteString(rt.Text)
			}
			shared[i] = sb.String()
		}
	}

	var text strings.Builder
	var tables []models.Table

	for _, ref := range wb.Sheets {
		target, ok := sheetPaths[ref.RID]
		if !ok {
			return nil, fmt.Errorf("no relationship for sheet %q", ref.Name)
		}

		var ws xlsxWorksheet
		if err := decodeZipXML(files, target, &ws); err != nil {
			return nil, err
		}

		table := sheetTable(ws, shared)
		tables = append(tables, table)

		fmt.Fprintf(&text, "\n工作表: %s\n", ref.Name)
		if rendered := renderTable(table); rendered != "" {
			text.WriteString(rendered)
			text.WriteByte('\n')
		}
	}

	return &models.Extraction{Text: text.String(), Tables: tables}, nil
}

func decodeZipXML(files map[string]*zip.File, name string, v interface{}) error {
	f, ok := files[name]
	if !ok {
		return fmt.Errorf("%s not found in archive", name)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// resolveSheetTarget normalizes a workbook relationship target ("worksheets/
// sheet1.xml" or "/xl/worksheets/sheet1.xml") to its archive path.
func resolveSheetTarget(target string) string {
	target = strings.TrimPrefix(target, "/")
	if strings.HasPrefix(target, "xl/") {
		return target
	}
	return path.Join("xl", target)
}

// sheetTable converts one worksheet into a Table: the first row becomes the
// header and every row is padded to the sheet's widest row.
func sheetTable(ws xlsxWorksheet, shared []string) models.Table {
	var rows [][]string
	width := 0
	for _, row := range ws.Rows {
		var cells []string
		for i, c := range row.Cells {
			idx := cellColumn(c.Ref)
			if idx < 0 {
				idx = i
			}
			for len(cells) <= idx {
				cells = append(cells, "")
			}
			cells[idx] = cellValue(c, shared)
		}
		if len(cells) > width {
			width = len(cells)
		}
		rows = append(rows, cells)
	}
	for i := range rows {
		for len(rows[i]) < width {
			rows[i] = append(rows[i], "")
		}
	}

	if len(rows) == 0 {
		return models.Table{}
	}
	return models.Table{Columns: rows[0], Rows: rows[1:]}
}

func cellValue(c xlsxCell, shared []string) string {
	switch c.Type {
	case "s":
		idx, err := strconv.Atoi(c.Value)
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	case "inlineStr":
		return c.Inline
	default:
		return c.Value
	}
}

// cellColumn converts the letter prefix of a cell reference ("B12") to a
// zero-based column index, or -1 when the reference is absent.
func cellColumn(ref string) int {
	col := 0
	seen := false
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		col = col*26 + int(r-'A') + 1
		seen = true
	}
	if !seen {
		return -1
	}
	return col - 1
}
