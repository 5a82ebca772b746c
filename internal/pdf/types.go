package pdf

import "image"

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// PageSource records how a page's content was obtained
type PageSource string

const (
	SourceEmbedded  PageSource = "embedded"
	SourcePdftoppm  PageSource = "pdftoppm"
	SourceTextLayer PageSource = "text-layer"
)

// Page is one rendered page of an order sheet. Exactly one of Image or Text
// is set: Text only when the native text layer was used instead of OCR.
type Page struct {
	Number int         `json:"number"`
	Image  image.Image `json:"-"`
	Text   string      `json:"text,omitempty"`
	Source PageSource  `json:"source"`
}

// NeedsOCR reports whether the page still has to go through the OCR engine
func (p Page) NeedsOCR() bool {
	return p.Image != nil
}

// RenderOptions controls how PDF pages become raster images
type RenderOptions struct {
	MaxFileSize     int64
	Scale           int
	DPI             int
	PdftoppmPath    string
	PreferTextLayer bool
}

// PageSize is a page's displayed size in PDF points, after rotation
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Known reports whether the page geometry could be read
func (s PageSize) Known() bool {
	return s.Width > 0 && s.Height > 0
}
