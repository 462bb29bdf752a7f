package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDoc = `---
title: Garden Guide
---
Planting happens in spring. ![soil chart](https://img.example.com/soil.png) Water daily.`

func TestBuildRecordsTextChunks(t *testing.T) {
	records, err := BuildRecords("garden.md", sampleDoc)
	if err != nil {
		t.Fatal(err)
	}

	var textRecords, imageRecords []Record
	for _, r := range records {
		switch r.ElementType {
		case ElementText:
			textRecords = append(textRecords, r)
		case ElementImageRef:
			imageRecords = append(imageRecords, r)
		}
	}

	if len(textRecords) == 0 {
		t.Fatal("expected at least one text record")
	}
	first := textRecords[0]
	if first.Category != "Garden Guide" {
		t.Errorf("category should come from frontmatter title, got %q", first.Category)
	}
	if first.DocType != "md" {
		t.Errorf("expected doc type md, got %q", first.DocType)
	}
	if !strings.HasPrefix(first.ChunkText, "FILE: garden.md\nCATEGORY: Garden Guide\nCONTENT:\n") {
		t.Errorf("text chunk should carry the contextual header, got %q", first.ChunkText)
	}
	if first.ChunkIndex != 1 {
		t.Errorf("chunk indices start at 1, got %d", first.ChunkIndex)
	}

	if len(imageRecords) != 1 {
		t.Fatalf("expected 1 image record, got %d", len(imageRecords))
	}
	img := imageRecords[0]
	if img.ImageAlt != "soil chart" {
		t.Errorf("expected image alt, got %q", img.ImageAlt)
	}
	if !strings.Contains(img.ChunkText, "MD IMAGE:") || !strings.Contains(img.ChunkText, "alt_text: soil chart") {
		t.Errorf("image chunk should carry the image header, got %q", img.ChunkText)
	}
	if !strings.Contains(img.ChunkText, "nearby_context:") {
		t.Error("image chunk should include nearby context")
	}
}

func TestBuildRecordsIDsAreStable(t *testing.T) {
	a, err := BuildRecords("garden.md", sampleDoc)
	if err != nil {
		t.Fatal(err)
	}
	b, err := BuildRecords("garden.md", sampleDoc)
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != len(b) {
		t.Fatalf("expected identical record counts, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("record %d: IDs differ across runs: %s vs %s", i, a[i].ID, b[i].ID)
		}
	}
	if !strings.HasPrefix(a[0].ID, "md:") {
		t.Errorf("doc IDs should be md:-prefixed hashes, got %s", a[0].ID)
	}
	if !strings.Contains(a[0].ID, "#text#c0001") {
		t.Errorf("first text record should be chunk c0001, got %s", a[0].ID)
	}
}

func TestBuildRecordsCategoryDefaultsToUnknown(t *testing.T) {
	records, err := BuildRecords("untitled.md", "no frontmatter at all")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) == 0 || records[0].Category != "unknown" {
		t.Fatalf("expected unknown category, got %v", records)
	}
}

func TestBuildRecordsMDXDocType(t *testing.T) {
	records, err := BuildRecords("page.mdx", "content here")
	if err != nil {
		t.Fatal(err)
	}
	if records[0].DocType != "mdx" {
		t.Errorf("expected mdx doc type, got %q", records[0].DocType)
	}
}

func TestBuildRecordsLongDocumentChunks(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 400; i++ {
		fmt.Fprintf(&sb, "sentence number %d about gardens. ", i)
	}

	records, err := BuildRecords("long.md", sb.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) < 2 {
		t.Fatalf("long document should produce multiple chunks, got %d", len(records))
	}
	for i, r := range records {
		if r.ChunkIndex != i+1 {
			t.Errorf("record %d: expected chunk index %d, got %d", i, i+1, r.ChunkIndex)
		}
	}
}

func TestBuildFromDir(t *testing.T) {
	dir := t.TempDir()
	writeFile := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	writeFile("a.md", "---\ntitle: A\n---\nalpha content")
	writeFile("b.mdx", "beta content")
	writeFile("ignore.txt", "not markdown")

	records, err := BuildFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	sources := map[string]bool{}
	for _, r := range records {
		sources[r.SourceFile] = true
	}
	if !sources["a.md"] || !sources["b.mdx"] {
		t.Errorf("expected records from both markdown files, got %v", sources)
	}
	if sources["ignore.txt"] {
		t.Error("non-markdown files should be skipped")
	}
}
