// Package ocr turns rendered order sheet pages into raw text.
package ocr

import "context"

// Engine backends selectable by name
const (
	EngineGosseract = "gosseract"
	EngineCLI       = "cli"
)

// Input is a single page image submitted for recognition.
type Input struct {
	// ID is echoed back in the Result. The pipeline uses "<file>#<page>".
	ID string
	// Image is the PNG-encoded page.
	Image []byte
	// PageIndex is the 1-based page number the image came from.
	PageIndex int
	// DPI is the effective resolution of Image; zero means unknown.
	DPI int
	// Languages are Tesseract trained data names, e.g. "eng".
	Languages []string
	// PSM is the Tesseract page segmentation mode. Zero leaves the engine default.
	PSM int
}

// Result is the recognised text for one Input
type Result struct {
	InputID   string
	PlainText string
	// Confidence is the mean word confidence in [0,1], when the engine reports one.
	Confidence float64
	PSM        int
}

// Engine is an OCR provider: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}
