package models

// Document is one report file discovered for ingestion.
type Document struct {
	ID       string
	Path     string
	Name     string
	Title    string
	Content  string
	Metadata map[string]interface{}
}

// Table is one extracted tabular dataset: an ordered header plus ordered
// rows of string cells. Column names are not required to be unique.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Extraction holds the per-document output of a format reader: the raw
// paragraph text plus every table found, in document order.
type Extraction struct {
	Text   string
	Tables []Table
}

// Metadata describes one processed document. TablesFound and TotalChunks
// are filled in as the counts become known during processing.
type Metadata struct {
	FileName    string `json:"file_name"`
	FileType    string `json:"file_type"`
	ProcessTime string `json:"process_time"`
	TablesFound int    `json:"tables_found"`
	TotalChunks int    `json:"total_chunks"`
}

// MetricCandidate is a weakly-structured (keyword, value, unit) tuple found
// near an ESG keyword, kept for later refinement.
type MetricCandidate struct {
	Keyword string
	Context string
	Value   string
	Unit    string
}

type ProcessedDocument struct {
	Document
	Chunks    []string
	Meta      Metadata
	Embedding [][]float32
}
