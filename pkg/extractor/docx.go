package extractor

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/esglab/reportrag/internal/models"
)

// extractDocx streams word/document.xml out of the ZIP archive, emitting
// body paragraphs one per line and every <w:tbl> as a table whose first row
// is the header. A malformed table is logged and skipped.
func (e *Extractor) extractDocx(path string) (*models.Extraction, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)

	var (
		text   strings.Builder
		tables []models.Table

		para   strings.Builder
		inPara bool
		inText bool

		tableDepth int
		tableRows  [][]string
		curRow     []string
		cell       strings.Builder
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					tableRows = nil
				}
			case "tr":
				if tableDepth == 1 {
					curRow = nil
				}
			case "tc":
				if tableDepth == 1 {
					cell.Reset()
				}
			case "p":
				if tableDepth == 0 {
					inPara = true
					para.Reset()
				}
			case "t":
				inText = true
			}

		case xml.CharData:
			if !inText {
				continue
			}
			if tableDepth > 0 {
				cell.Write(t)
			} else if inPara {
				para.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tableDepth == 0 && inPara {
					inPara = false
					text.WriteString(para.String())
					text.WriteByte('\n')
				}
			case "tc":
				if tableDepth == 1 {
					curRow = append(curRow, strings.TrimSpace(cell.String()))
					cell.Reset()
				}
			case "tr":
				if tableDepth == 1 && len(curRow) > 0 {
					tableRows = append(tableRows, curRow)
					curRow = nil
				}
			case "tbl":
				tableDepth--
				if tableDepth == 0 {
					tbl, terr := tableFromRows(tableRows)
					if terr != nil {
						e.logger.Warn("skipping malformed docx table", "path", path, "error", terr)
					} else if tbl != nil {
						tables = append(tables, *tbl)
					}
					tableRows = nil
				}
			}
		}
	}

	return &models.Extraction{Text: text.String(), Tables: tables}, nil
}
