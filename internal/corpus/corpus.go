// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus loads documents for batch processing from CSV files, plain
// text files, and directories.
package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/extract-engine/pkg/types"
)

// CSVOptions control how a CSV file maps to documents.
type CSVOptions struct {
	// TextColumn names the column holding document text. Required.
	TextColumn string

	// IDColumn optionally names the column holding document IDs. When
	// empty, IDs are generated as doc_<row index>.
	IDColumn string

	// MetadataColumns lists extra columns carried into document metadata.
	MetadataColumns []string

	// MaxRows caps the number of loaded rows; zero means no cap.
	MaxRows int
}

// LoadCSV reads one document per row. Rows with an empty text cell are
// skipped. Every document gets source and row_index metadata.
func LoadCSV(path string, opts CSVOptions) ([]types.Document, error) {
	if opts.TextColumn == "" {
		return nil, fmt.Errorf("corpus: text column is required")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	textIdx, ok := col[opts.TextColumn]
	if !ok {
		return nil, fmt.Errorf("corpus: column %q not in header %v", opts.TextColumn, header)
	}
	idIdx := -1
	if opts.IDColumn != "" {
		if idIdx, ok = col[opts.IDColumn]; !ok {
			return nil, fmt.Errorf("corpus: column %q not in header %v", opts.IDColumn, header)
		}
	}
	for _, name := range opts.MetadataColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("corpus: column %q not in header %v", name, header)
		}
	}

	var docs []types.Document
	for row := 0; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}
		if opts.MaxRows > 0 && len(docs) >= opts.MaxRows {
			break
		}

		text := cell(record, textIdx)
		if strings.TrimSpace(text) == "" {
			continue
		}

		id := ""
		if idIdx >= 0 {
			id = strings.TrimSpace(cell(record, idIdx))
		}
		if id == "" {
			id = "doc_" + strconv.Itoa(row)
		}

		metadata := map[string]string{
			"source":    path,
			"row_index": strconv.Itoa(row),
		}
		for _, name := range opts.MetadataColumns {
			metadata[name] = cell(record, col[name])
		}

		docs = append(docs, types.Document{ID: id, Text: text, Metadata: metadata})
	}
	return docs, nil
}

// LoadTextFile reads one whole file as a single document. The document ID is
// the file name without its extension.
func LoadTextFile(path string) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("read text file: %w", err)
	}
	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))
	return types.Document{
		ID:       id,
		Text:     string(data),
		Metadata: map[string]string{"source": path},
	}, nil
}

// LoadDir loads every *.txt and *.md file directly under dir, in file name
// order.
func LoadDir(dir string) ([]types.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}

	var docs []types.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".txt", ".md":
		default:
			continue
		}
		doc, err := LoadTextFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
