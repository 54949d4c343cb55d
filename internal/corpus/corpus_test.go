// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "corpus.csv",
		"id,text,category\n"+
			"a1,John Smith founded TechCorp.,business\n"+
			"a2,The merger closed in 2019.,finance\n")

	docs, err := LoadCSV(path, CSVOptions{
		TextColumn:      "text",
		IDColumn:        "id",
		MetadataColumns: []string{"category"},
	})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}

	if docs[0].ID != "a1" {
		t.Errorf("ID = %q, want a1", docs[0].ID)
	}
	if docs[0].Text != "John Smith founded TechCorp." {
		t.Errorf("text = %q", docs[0].Text)
	}
	if docs[0].Metadata["category"] != "business" {
		t.Errorf("category = %q, want business", docs[0].Metadata["category"])
	}
	if docs[0].Metadata["source"] != path {
		t.Errorf("source = %q, want %q", docs[0].Metadata["source"], path)
	}
	if docs[0].Metadata["row_index"] != "0" {
		t.Errorf("row_index = %q, want 0", docs[0].Metadata["row_index"])
	}
}

func TestLoadCSVGeneratedIDs(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "corpus.csv", "text\nfirst doc\nsecond doc\n")

	docs, err := LoadCSV(path, CSVOptions{TextColumn: "text"})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].ID != "doc_0" || docs[1].ID != "doc_1" {
		t.Errorf("IDs = %q, %q, want doc_0, doc_1", docs[0].ID, docs[1].ID)
	}
}

func TestLoadCSVSkipsEmptyText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "corpus.csv", "text\nkeep me\n   \nalso keep\n")

	docs, err := LoadCSV(path, CSVOptions{TextColumn: "text"})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("got %d documents, want 2 (blank row skipped)", len(docs))
	}
}

func TestLoadCSVMaxRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "corpus.csv", "text\none\ntwo\nthree\nfour\n")

	docs, err := LoadCSV(path, CSVOptions{TextColumn: "text", MaxRows: 2})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("got %d documents, want 2", len(docs))
	}
}

func TestLoadCSVErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "corpus.csv", "id,text\na1,hello\n")

	if _, err := LoadCSV(path, CSVOptions{}); err == nil {
		t.Error("missing text column option should fail")
	}
	if _, err := LoadCSV(path, CSVOptions{TextColumn: "body"}); err == nil {
		t.Error("unknown text column should fail")
	}
	if _, err := LoadCSV(path, CSVOptions{TextColumn: "text", IDColumn: "uuid"}); err == nil {
		t.Error("unknown ID column should fail")
	}
	if _, err := LoadCSV(path, CSVOptions{TextColumn: "text", MetadataColumns: []string{"missing"}}); err == nil {
		t.Error("unknown metadata column should fail")
	}
	if _, err := LoadCSV(filepath.Join(dir, "absent.csv"), CSVOptions{TextColumn: "text"}); err == nil {
		t.Error("missing file should fail")
	}
}

func TestLoadTextFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "report.txt", "John Smith founded TechCorp.")

	doc, err := LoadTextFile(path)
	if err != nil {
		t.Fatalf("LoadTextFile: %v", err)
	}
	if doc.ID != "report" {
		t.Errorf("ID = %q, want report", doc.ID)
	}
	if doc.Text != "John Smith founded TechCorp." {
		t.Errorf("text = %q", doc.Text)
	}
	if doc.Metadata["source"] != path {
		t.Errorf("source = %q, want %q", doc.Metadata["source"], path)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "second")
	writeFile(t, dir, "a.md", "first")
	writeFile(t, dir, "ignored.json", "{}")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	docs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].ID != "a" || docs[1].ID != "b" {
		t.Errorf("IDs = %q, %q, want a, b (sorted)", docs[0].ID, docs[1].ID)
	}
}
