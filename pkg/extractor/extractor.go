// Package extractor turns PDF, DOCX and XLSX report files into raw text
// plus the tables found inside them. Extraction is best-effort and
// line-oriented: a failure on one page or one table is logged and skipped,
// while an unreadable file fails the whole document.
package extractor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/esglab/reportrag/internal/models"
)

// Format identifies a supported document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDocx Format = "docx"
	FormatXLSX Format = "xlsx"
)

// UnsupportedFormatError is returned when a file extension is not in the
// supported set. It is raised before any file I/O happens.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %q", e.Ext)
}

// ReadError wraps a decoder failure on an otherwise supported file. The
// original cause is preserved for diagnostics.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Config configures an Extractor.
type Config struct {
	// MaxFileSize is the largest file the extractor will open (default 100 MB).
	MaxFileSize int64

	// Logger receives per-unit extraction warnings and document-level errors.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Extractor reads report files and produces raw text plus tables.
// It holds no mutable state; concurrent Extract calls on different files
// are safe.
type Extractor struct {
	config Config
	logger *slog.Logger
}

func NewWithConfig(config Config) *Extractor {
	config.defaults()
	return &Extractor{
		config: config,
		logger: config.Logger,
	}
}

// Detect maps a file path to its Format by extension, case-insensitively.
// No file I/O is performed.
func (e *Extractor) Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDocx, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", &UnsupportedFormatError{Ext: ext}
	}
}

// Extract reads the file and returns its raw text and tables. A failure of
// a single page or table is logged and skipped; an unreadable file returns
// a *ReadError and no partial result.
func (e *Extractor) Extract(path string) (*models.Extraction, error) {
	format, err := e.Detect(path)
	if err != nil {
		e.logger.Error("cannot extract document", "path", path, "error", err)
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, e.readError(path, err)
	}
	if info.Size() > e.config.MaxFileSize {
		return nil, e.readError(path, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), e.config.MaxFileSize))
	}

	var result *models.Extraction
	switch format {
	case FormatPDF:
		result, err = e.extractPDF(path)
	case FormatDocx:
		result, err = e.extractDocx(path)
	case FormatXLSX:
		result, err = e.extractXLSX(path)
	}
	if err != nil {
		return nil, e.readError(path, err)
	}
	return result, nil
}

func (e *Extractor) readError(path string, cause error) error {
	err := &ReadError{Path: path, Err: cause}
	e.logger.Error("error reading document", "path", path, "error", cause)
	return err
}

// SupportedExtensions returns the extensions Extract accepts.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".xlsx"}
}
