// Package parser provides document parsing adapters.
// It exposes every supported format to the core as plain text: markdown and
// text pass through verbatim, tabular and structured formats are rewritten
// into chunk-friendly renderings, PDFs are extracted in-process.
package parser

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// FileParser dispatches to a format-specific parser based on file extension.
type FileParser struct{}

// NewFileParser creates a parser covering txt, md, csv, json and pdf input.
func NewFileParser() *FileParser {
	return &FileParser{}
}

// SupportedExtensions returns the extensions this parser handles.
func (p *FileParser) SupportedExtensions() []string {
	return []string{".txt", ".md", ".markdown", ".csv", ".json", ".pdf"}
}

// Parse returns the text content of the file at path.
func (p *FileParser) Parse(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSV(path)
	case ".json":
		return parseJSON(path)
	case ".pdf":
		return parsePDF(path)
	default:
		// Plain text and markdown pass through verbatim.
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// parseCSV renders each data row as "column: value" lines. Raw delimited
// text chunks poorly; a row-oriented rendering keeps each record readable
// and retrievable on its own.
func parseCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := r.Read()
	if err == io.EOF {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading csv header: %w", err)
	}

	var sb strings.Builder
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading csv row: %w", err)
		}
		for i, field := range row {
			name := fmt.Sprintf("column %d", i+1)
			if i < len(header) {
				name = strings.TrimSpace(header[i])
			}
			fmt.Fprintf(&sb, "%s: %s\n", name, strings.TrimSpace(field))
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// parseJSON pretty-prints the document before chunking.
func parseJSON(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		// Not valid JSON; fall back to the raw text.
		return string(data), nil
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(data), nil
	}
	return string(pretty), nil
}

// parsePDF extracts plain text from every page.
func parsePDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue // skip unreadable pages rather than failing the file
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
