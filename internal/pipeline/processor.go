// Package pipeline turns PDF order sheets into dispatch spreadsheet rows.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	derrors "github.com/a3tai/dispatch-ocr/internal/errors"
	"github.com/a3tai/dispatch-ocr/internal/extract"
	"github.com/a3tai/dispatch-ocr/internal/pdf"
)

// PageRenderer produces the pages of one PDF
type PageRenderer interface {
	Render(ctx context.Context, path string) ([]pdf.Page, error)
}

// TextRecognizer reads the text of one page image
type TextRecognizer interface {
	Text(ctx context.Context, id string, page int, img image.Image) (string, error)
}

// Document is one order sheet after render, OCR and extraction
type Document struct {
	Path     string              `json:"path"`
	Pages    int                 `json:"pages"`
	Text     string              `json:"text,omitempty"`
	Record   extract.OrderRecord `json:"record"`
	Products []extract.Product   `json:"products,omitempty"`
	Gaps     []extract.Field     `json:"gaps,omitempty"`
}

// Processor runs the read-only half of the pipeline
type Processor struct {
	renderer  PageRenderer
	ocr       TextRecognizer
	extractor *extract.Extractor
	log       logrus.FieldLogger
}

// NewProcessor creates a new processor
func NewProcessor(renderer PageRenderer, ocr TextRecognizer, extractor *extract.Extractor, log logrus.FieldLogger) *Processor {
	return &Processor{
		renderer:  renderer,
		ocr:       ocr,
		extractor: extractor,
		log:       log,
	}
}

// ProcessFile renders, reads and extracts one PDF. Pages whose OCR fails are
// skipped; the document fails only when no page produced text.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Document, error) {
	log := p.log.WithField("file", filepath.Base(path))

	pages, err := p.renderer.Render(ctx, path)
	if err != nil {
		return nil, err
	}

	var (
		texts   []string
		lastErr error
	)
	for _, page := range pages {
		if !page.NeedsOCR() {
			texts = append(texts, page.Text)
			continue
		}

		id := fmt.Sprintf("%s#%d", filepath.Base(path), page.Number)
		text, err := p.ocr.Text(ctx, id, page.Number, page.Image)
		if err != nil {
			if derrors.IsFatal(err) {
				return nil, err
			}
			log.WithError(err).WithField("page", page.Number).Warn("OCR failed for page")
			lastErr = err
			continue
		}
		texts = append(texts, text)
	}

	if len(texts) == 0 {
		if lastErr == nil {
			lastErr = derrors.New(derrors.ErrorTypeOCR, "no text recognised").WithFile(path)
		}
		return nil, lastErr
	}

	res := p.extractor.ExtractPages(texts)
	doc := &Document{
		Path:     path,
		Pages:    len(pages),
		Text:     strings.Join(texts, "\n"),
		Record:   res.Record,
		Products: res.Products,
		Gaps:     res.Gaps,
	}
	log.WithFields(logrus.Fields{
		"pages":   doc.Pages,
		"invoice": doc.Record.InvoiceNumber,
		"gaps":    len(doc.Gaps),
	}).Debug("document extracted")
	return doc, nil
}
