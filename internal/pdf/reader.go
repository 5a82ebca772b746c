package pdf

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// minTextLayerChars is the number of non-space characters a page's native
// text needs before it is trusted over OCR.
const minTextLayerChars = 20

// TextLayer reads the native text of each page, if the PDF has one
type TextLayer interface {
	PageTexts(path string) (map[int]string, error)
}

// Reader extracts native page text with ledongthuc/pdf
type Reader struct{}

// NewReader creates a new text layer reader
func NewReader() *Reader {
	return &Reader{}
}

// PageTexts returns the plain text of every page that has a usable text
// layer, keyed by 1-based page number.
func (r *Reader) PageTexts(path string) (texts map[int]string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("text layer extraction panicked: %v", rec)
		}
	}()

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	texts = make(map[int]string)
	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			// Continue with other pages even if one fails
			continue
		}

		if meaningfulChars(content) >= minTextLayerChars {
			texts[pageNum] = content
		}
	}

	return texts, nil
}

func meaningfulChars(s string) int {
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
