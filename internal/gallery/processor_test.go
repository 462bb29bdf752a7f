package gallery

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/driveshelf/driveshelf/internal/catalog"
	"github.com/driveshelf/driveshelf/internal/remote"
)

func TestIsImageLocator(t *testing.T) {
	tests := []struct {
		name string
		mime string
		want bool
	}{
		{"photo.jpg", "", true},
		{"photo.JPEG", "", true},
		{"scan.png", "image/png", true},
		{"anim.webp", "", true},
		{"shot.gif", "", true},
		{"notes.md", "text/markdown", false},
		{"raw.bin", "image/x-raw", true},
		{"clip.mp4", "video/mp4", false},
	}
	for _, tt := range tests {
		got := IsImageLocator(catalog.Locator{Name: tt.name, MimeType: tt.mime})
		if got != tt.want {
			t.Errorf("IsImageLocator(%q, %q) = %v, want %v", tt.name, tt.mime, got, tt.want)
		}
	}
}

func TestThumbKey(t *testing.T) {
	if got := ThumbKey("trips/rome/photo_1.jpg"); got != "_thumbs/trips/rome/photo_1.jpg.jpg" {
		t.Errorf("ThumbKey = %q", got)
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestGenerateThumbnailFits(t *testing.T) {
	data, w, h, err := GenerateThumbnail(bytes.NewReader(testPNG(t, 800, 600)), 0)
	if err != nil {
		t.Fatal(err)
	}
	if w != 400 || h != 300 {
		t.Errorf("thumbnail is %dx%d, want 400x300", w, h)
	}
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("output should be a valid JPEG: %v", err)
	}
}

func TestGenerateThumbnailSmallImageKeepsSize(t *testing.T) {
	_, w, h, err := GenerateThumbnail(bytes.NewReader(testPNG(t, 100, 50)), 0)
	if err != nil {
		t.Fatal(err)
	}
	if w != 100 || h != 50 {
		t.Errorf("small image should not be upscaled, got %dx%d", w, h)
	}
}

func TestGenerateThumbnailOrientationSwapsAxes(t *testing.T) {
	_, w, h, err := GenerateThumbnail(bytes.NewReader(testPNG(t, 200, 100)), 6)
	if err != nil {
		t.Fatal(err)
	}
	if w != 100 || h != 200 {
		t.Errorf("orientation 6 should rotate, got %dx%d", w, h)
	}
}

func TestGenerateThumbnailGarbage(t *testing.T) {
	if _, _, _, err := GenerateThumbnail(bytes.NewReader([]byte("not an image")), 0); err == nil {
		t.Fatal("expected decode error")
	}
}

type fakeDownloader struct {
	data map[string][]byte
}

func (f *fakeDownloader) ListChildren(ctx context.Context, folderID string) ([]remote.File, error) {
	return nil, nil
}

func (f *fakeDownloader) GetFile(ctx context.Context, fileID string) (*remote.File, error) {
	return nil, nil
}

func (f *fakeDownloader) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	data, ok := f.data[fileID]
	if !ok {
		return nil, fmt.Errorf("no object %s", fileID)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeDownloader) DownloadText(ctx context.Context, fileID string) (string, error) {
	return "", fmt.Errorf("not text")
}

func (f *fakeDownloader) PreviewURL(ctx context.Context, fileID, mimeType string) (string, error) {
	return "https://preview.example.com/" + fileID, nil
}

type fakeUploader struct {
	keys []string
}

func (f *fakeUploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	if contentType != "image/jpeg" {
		return fmt.Errorf("unexpected content type %s", contentType)
	}
	f.keys = append(f.keys, key)
	return nil
}

func TestProcessAll(t *testing.T) {
	client := &fakeDownloader{data: map[string][]byte{
		"img1": testPNG(t, 800, 600),
		"img2": []byte("corrupt"),
	}}
	uploader := &fakeUploader{}
	p := NewProcessor(client, uploader)

	locators := []catalog.Locator{
		{ID: "img1", Name: "one.png", Path: []string{"one.png"}, MimeType: "image/png"},
		{ID: "img2", Name: "two.png", Path: []string{"two.png"}, MimeType: "image/png"},
		{ID: "doc", Name: "notes.md", Path: []string{"notes.md"}, MimeType: "text/markdown"},
	}

	done, err := p.ProcessAll(context.Background(), locators)
	if err != nil {
		t.Fatal(err)
	}
	if done != 1 {
		t.Errorf("processed %d images, want 1 (corrupt one skipped)", done)
	}
	if len(uploader.keys) != 1 || uploader.keys[0] != "_thumbs/one.png.jpg" {
		t.Errorf("uploaded keys = %v", uploader.keys)
	}
}
