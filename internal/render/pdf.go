package render

import (
	"context"
	"fmt"
	"strings"
)

// pdfAdapter produces a preview URL (and download URL when the client can
// export) for PDF files.
type pdfAdapter struct{}

func (a *pdfAdapter) Kind() Kind { return KindPDF }

func (a *pdfAdapter) Match(t Target) bool {
	return t.Locator != nil && strings.HasSuffix(strings.ToLower(t.Locator.Name), ".pdf")
}

func (a *pdfAdapter) Load(ctx context.Context, t Target, actx *Context) (*Result, error) {
	locator := t.Locator
	previewURL, err := actx.Client.PreviewURL(ctx, locator.ID, locator.MimeType)
	if err != nil {
		return nil, fmt.Errorf("load pdf %s: %w", locator.Slug(), err)
	}

	meta := Meta{
		Title:        locator.Name,
		Description:  locator.WebViewLink,
		ModifiedTime: locator.ModifiedTime,
	}

	return &Result{
		Kind:        KindPDF,
		Meta:        meta,
		CachePolicy: &CachePolicy{Revalidate: actx.revalidate(60)},
		Spec: Spec{
			Kind: KindPDF,
			Meta: &meta,
			PDF: &PDFSpec{
				PDFURL:      previewURL,
				DownloadURL: actx.exportURL(ctx, locator.ID, locator.MimeType),
			},
		},
	}, nil
}
