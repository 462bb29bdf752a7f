package render

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveshelf/driveshelf/internal/bundle"
	"github.com/driveshelf/driveshelf/internal/catalog"
)

func TestDocumentAdapter(t *testing.T) {
	source := "---\ntitle: Setup Guide\ndescription: How to set up\n---\n# Install\n\nRun the installer.\n\n## Verify\n\nCheck the version."
	client := &fakeClient{texts: map[string]string{"id-setup.md": source}}
	modified := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	target := LocatorTarget(catalog.Locator{
		ID: "id-setup.md", Name: "setup.md", Path: []string{"guides", "setup.md"},
		MimeType: "text/markdown", ModifiedTime: modified,
	})

	result, err := (&documentAdapter{}).Load(context.Background(), target, testContext(client))
	require.NoError(t, err)

	assert.Equal(t, KindMDX, result.Kind)
	assert.Equal(t, "Setup Guide", result.Meta.Title)
	assert.Equal(t, "How to set up", result.Meta.Description)
	assert.Equal(t, modified, result.Meta.ModifiedTime)
	assert.Equal(t, 30, result.CachePolicy.Revalidate)

	doc := result.Spec.Document
	require.NotNil(t, doc)
	assert.Contains(t, doc.HTML, "<h1>")
	assert.Equal(t, source, doc.Source)
	require.Len(t, doc.TOC, 2)
	assert.Equal(t, "Install", doc.TOC[0].Title)
	assert.Equal(t, "install", doc.TOC[0].ID)
	assert.Equal(t, 1, doc.TOC[0].Depth)
	assert.Equal(t, 2, doc.TOC[1].Depth)
}

func TestDocumentAdapterTitleFallsBackToName(t *testing.T) {
	client := &fakeClient{texts: map[string]string{"id-plain.md": "no frontmatter here"}}
	result, err := (&documentAdapter{}).Load(context.Background(), locatorFor("plain.md", ""), testContext(client))
	require.NoError(t, err)
	assert.Equal(t, "plain.md", result.Meta.Title)
}

func TestPDFAdapter(t *testing.T) {
	client := &fakeClient{}
	target := LocatorTarget(catalog.Locator{
		ID: "id-paper.pdf", Name: "paper.pdf", Path: []string{"paper.pdf"},
		MimeType: "application/pdf", WebViewLink: "https://view.example.com/paper",
	})

	result, err := (&pdfAdapter{}).Load(context.Background(), target, testContext(client))
	require.NoError(t, err)

	assert.Equal(t, KindPDF, result.Kind)
	assert.Equal(t, 60, result.CachePolicy.Revalidate)
	require.NotNil(t, result.Spec.PDF)
	assert.Equal(t, "https://preview.example.com/id-paper.pdf", result.Spec.PDF.PDFURL)
	assert.Equal(t, "https://export.example.com/id-paper.pdf", result.Spec.PDF.DownloadURL)
}

func TestTextAdapter(t *testing.T) {
	client := &fakeClient{texts: map[string]string{"id-notes.txt": "plain text body"}}
	result, err := (&textAdapter{}).Load(context.Background(), locatorFor("notes.txt", "text/plain"), testContext(client))
	require.NoError(t, err)

	assert.Equal(t, KindText, result.Kind)
	assert.Equal(t, 30, result.CachePolicy.Revalidate)
	require.NotNil(t, result.Spec.Text)
	assert.Equal(t, "plain text body", result.Spec.Text.Text)
}

func TestImageAdapter(t *testing.T) {
	client := &fakeClient{}
	result, err := (&imageAdapter{}).Load(context.Background(), locatorFor("photo.jpg", "image/jpeg"), testContext(client))
	require.NoError(t, err)

	assert.Equal(t, KindImage, result.Kind)
	assert.Equal(t, 300, result.CachePolicy.Revalidate)
	require.NotNil(t, result.Spec.Image)
	require.Len(t, result.Spec.Image.Images, 1)
	img := result.Spec.Image.Images[0]
	assert.Equal(t, "https://preview.example.com/id-photo.jpg", img.URL)
	assert.Equal(t, "photo.jpg", img.Alt)
	assert.Equal(t, "id-photo.jpg", img.ID)
}

func TestJSONAdapterValid(t *testing.T) {
	client := &fakeClient{texts: map[string]string{"id-data.json": `{"answer": 42}`}}
	result, err := (&jsonAdapter{}).Load(context.Background(), locatorFor("data.json", "application/json"), testContext(client))
	require.NoError(t, err)

	assert.Equal(t, KindJSON, result.Kind)
	assert.Equal(t, 15, result.CachePolicy.Revalidate)
	require.NotNil(t, result.Spec.JSON)
	assert.Equal(t, `{"answer": 42}`, result.Spec.JSON.Raw)
	parsed, ok := result.Spec.JSON.Parsed.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(42), parsed["answer"])
}

func TestJSONAdapterMalformedKeepsRaw(t *testing.T) {
	client := &fakeClient{texts: map[string]string{"id-data.json": `{not json`}}
	result, err := (&jsonAdapter{}).Load(context.Background(), locatorFor("data.json", "application/json"), testContext(client))
	require.NoError(t, err)

	require.NotNil(t, result.Spec.JSON)
	assert.Equal(t, `{not json`, result.Spec.JSON.Raw)
	assert.Nil(t, result.Spec.JSON.Parsed)
}

func TestMediaAdapterKindFollowsMime(t *testing.T) {
	client := &fakeClient{}

	audio, err := (&mediaAdapter{}).Load(context.Background(), locatorFor("song.mp3", "audio/mpeg"), testContext(client))
	require.NoError(t, err)
	assert.Equal(t, KindAudio, audio.Kind)
	assert.Equal(t, KindAudio, audio.Spec.Kind)

	video, err := (&mediaAdapter{}).Load(context.Background(), locatorFor("clip.mp4", "video/mp4"), testContext(client))
	require.NoError(t, err)
	assert.Equal(t, KindVideo, video.Kind)
	assert.Equal(t, 120, video.CachePolicy.Revalidate)
	require.Len(t, video.Spec.Media.Sources, 1)
	assert.Equal(t, "video/mp4", video.Spec.Media.Sources[0].Type)
}

func bundleDescriptor() bundle.Descriptor {
	primary := catalog.Locator{ID: "p", Name: "trip_data.json", MimeType: "application/json"}
	img1 := catalog.Locator{ID: "i1", Name: "trip_photo_1.jpg", MimeType: "image/jpeg"}
	img2 := catalog.Locator{ID: "i2", Name: "trip_photo_2.jpg", MimeType: "image/jpeg"}
	med := catalog.Locator{ID: "m1", Name: "trip_clip_1.mp4", MimeType: "video/mp4"}
	att := catalog.Locator{ID: "a1", Name: "trip_notes.txt", MimeType: "text/plain"}

	return bundle.Descriptor{
		Key:         "trip",
		Label:       "trip",
		PrimaryData: &primary,
		Assets: []bundle.Asset{
			{Locator: primary, Role: bundle.RolePrimary},
			{Locator: img1, Role: bundle.RoleImage},
			{Locator: img2, Role: bundle.RoleImage},
			{Locator: med, Role: bundle.RoleMedia},
			{Locator: att, Role: bundle.RoleAttachment},
		},
		Attachments: []catalog.Locator{att},
	}
}

func TestBundleAdapter(t *testing.T) {
	client := &fakeClient{texts: map[string]string{
		"p":  `{"spot": "beach"}`,
		"a1": "remember sunscreen",
	}}

	result, err := (&bundleAdapter{}).Load(context.Background(), BundleTarget(bundleDescriptor()), testContext(client))
	require.NoError(t, err)

	assert.Equal(t, KindSmartBundle, result.Kind)
	assert.Equal(t, 120, result.CachePolicy.Revalidate)

	spec := result.Spec.Bundle
	require.NotNil(t, spec)
	assert.Equal(t, "trip", spec.Key)

	require.NotNil(t, spec.PrimaryData)
	assert.Equal(t, KindJSON, spec.PrimaryData.Kind)
	parsed := spec.PrimaryData.JSON.Parsed.(map[string]any)
	assert.Equal(t, "beach", parsed["spot"])

	require.NotNil(t, spec.Gallery)
	require.Len(t, spec.Gallery.Images, 2)
	// Gallery order follows asset order
	assert.Equal(t, "i1", spec.Gallery.Images[0].ID)
	assert.Equal(t, "i2", spec.Gallery.Images[1].ID)

	require.NotNil(t, spec.Media)
	require.Len(t, spec.Media.Sources, 1)

	require.Len(t, spec.Attachments, 1)
	assert.Equal(t, "remember sunscreen", spec.Attachments[0].Text)
}

func TestBundleAdapterMalformedPrimaryFails(t *testing.T) {
	client := &fakeClient{texts: map[string]string{
		"p":  `{broken`,
		"a1": "notes",
	}}

	_, err := (&bundleAdapter{}).Load(context.Background(), BundleTarget(bundleDescriptor()), testContext(client))
	require.Error(t, err)
}

func TestBundleAdapterSubFetchFailureAborts(t *testing.T) {
	client := &fakeClient{failText: true}
	_, err := (&bundleAdapter{}).Load(context.Background(), BundleTarget(bundleDescriptor()), testContext(client))
	require.Error(t, err)
}

func TestBundleAdapterTextPrimary(t *testing.T) {
	primary := catalog.Locator{ID: "p", Name: "trip_notes.txt", MimeType: "text/plain"}
	desc := bundle.Descriptor{
		Key:         "trip",
		Label:       "trip",
		PrimaryData: &primary,
		Assets:      []bundle.Asset{{Locator: primary, Role: bundle.RolePrimary}},
	}
	client := &fakeClient{texts: map[string]string{"p": "plain primary"}}

	result, err := (&bundleAdapter{}).Load(context.Background(), BundleTarget(desc), testContext(client))
	require.NoError(t, err)
	require.NotNil(t, result.Spec.Bundle.PrimaryData)
	assert.Equal(t, KindText, result.Spec.Bundle.PrimaryData.Kind)
	assert.Equal(t, "plain primary", result.Spec.Bundle.PrimaryData.Text.Text)
}
