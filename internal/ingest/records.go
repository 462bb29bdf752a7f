package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/driveshelf/driveshelf/internal/catalog"
	"github.com/driveshelf/driveshelf/internal/markdown"
	"github.com/driveshelf/driveshelf/internal/metrics"
	"github.com/driveshelf/driveshelf/internal/remote"
)

// Element types for records.
const (
	ElementText     = "markdown_text"
	ElementImageRef = "markdown_image_ref"
)

// Record is one embedding-ready chunk for upsert into the index store.
type Record struct {
	ID          string `json:"id"`
	ChunkText   string `json:"chunk_text"`
	Category    string `json:"category"`
	SourceFile  string `json:"source_file"`
	DocType     string `json:"doc_type"` // "md" or "mdx"
	ElementType string `json:"element_type"`
	ChunkIndex  int    `json:"chunk_index"`
	ImageAlt    string `json:"image_alt,omitempty"`
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func isMarkdownName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".mdx")
}

// BuildRecords converts one markdown document into text and image-ref
// records. The frontmatter title becomes the category.
func BuildRecords(fileName, raw string) ([]Record, error) {
	fm, body, err := markdown.SplitFrontmatter(raw)
	if err != nil {
		return nil, fmt.Errorf("build records for %s: %w", fileName, err)
	}

	category := "unknown"
	if title, ok := fm["title"].(string); ok && title != "" {
		category = title
	}

	docType := "md"
	if strings.HasSuffix(strings.ToLower(fileName), ".mdx") {
		docType = "mdx"
	}
	docID := "md:" + sha1Hex(fileName)

	var records []Record

	for idx, chunk := range ChunkText(body, ChunkSize, ChunkOverlap) {
		chunkIndex := idx + 1
		records = append(records, Record{
			ID:          fmt.Sprintf("%s#text#c%04d", docID, chunkIndex),
			ChunkText:   fmt.Sprintf("FILE: %s\nCATEGORY: %s\nCONTENT:\n%s", fileName, category, chunk),
			Category:    category,
			SourceFile:  fileName,
			DocType:     docType,
			ElementType: ElementText,
			ChunkIndex:  chunkIndex,
		})
	}

	for i, ref := range ExtractImages(body) {
		ctxText := ContextWindow(body, ref.StartIdx, ImageContextWindow)
		imageBlock := fmt.Sprintf(
			"FILE: %s\nCATEGORY: %s\nMD IMAGE:\nalt_text: %s\nnearby_context: %s",
			fileName, category, ref.Alt, ctxText)

		for chunkIdx, chunk := range ChunkText(imageBlock, ChunkSize, ImageChunkOverlap) {
			chunkIndex := chunkIdx + 1
			records = append(records, Record{
				ID:          fmt.Sprintf("%s#img%04d#c%03d", docID, i+1, chunkIndex),
				ChunkText:   chunk,
				Category:    category,
				SourceFile:  fileName,
				DocType:     docType,
				ElementType: ElementImageRef,
				ChunkIndex:  chunkIndex,
				ImageAlt:    ref.Alt,
			})
		}
	}

	countByType(records)
	return records, nil
}

func countByType(records []Record) {
	text, image := 0, 0
	for _, r := range records {
		if r.ElementType == ElementText {
			text++
		} else {
			image++
		}
	}
	metrics.RecordIngestRecords(ElementText, text)
	metrics.RecordIngestRecords(ElementImageRef, image)
}

// BuildFromDir builds records from all markdown files directly in a local
// directory.
func BuildFromDir(dir string) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || !isMarkdownName(entry.Name()) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		rs, err := BuildRecords(entry.Name(), string(raw))
		if err != nil {
			return nil, err
		}
		records = append(records, rs...)
	}
	return records, nil
}

// BuildFromCatalog builds records from all markdown locators in a walked
// catalog, downloading each document through the remote client.
func BuildFromCatalog(ctx context.Context, client remote.Client, locators []catalog.Locator) ([]Record, error) {
	var records []Record
	for _, locator := range locators {
		if !isMarkdownName(locator.Name) {
			continue
		}
		raw, err := client.DownloadText(ctx, locator.ID)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", locator.Slug(), err)
		}
		rs, err := BuildRecords(locator.Name, raw)
		if err != nil {
			return nil, err
		}
		records = append(records, rs...)
	}
	return records, nil
}
