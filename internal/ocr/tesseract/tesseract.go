// Package tesseract provides the gosseract-backed OCR engine and the engine
// factory used by the commands.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	derrors "github.com/a3tai/dispatch-ocr/internal/errors"
	"github.com/a3tai/dispatch-ocr/internal/ocr"
)

// Engine implements ocr.Engine with the gosseract client
type Engine struct {
	clientFactory func() *gosseract.Client
}

// NewEngine constructs a gosseract-backed OCR engine
func NewEngine() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize performs OCR on a single page image
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(in.Image); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if in.PSM > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(in.PSM)); err != nil {
			return ocr.Result{}, fmt.Errorf("set psm %d: %w", in.PSM, err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return ocr.Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}

	return ocr.Result{
		InputID:    in.ID,
		PlainText:  strings.TrimSpace(text),
		Confidence: meanConfidence(c),
		PSM:        in.PSM,
	}, nil
}

func meanConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return sum / float64(len(boxes))
}

// New builds the engine named by kind: ocr.EngineGosseract or
// ocr.EngineCLI (which runs binary).
func New(kind, binary string) (ocr.Engine, error) {
	switch kind {
	case "", ocr.EngineGosseract:
		return NewEngine(), nil
	case ocr.EngineCLI:
		engine, err := ocr.NewCLIEngine(binary)
		if err != nil {
			return nil, err
		}
		return engine, nil
	default:
		return nil, derrors.New(derrors.ErrorTypeConfig, fmt.Sprintf("unknown OCR engine %q", kind))
	}
}
