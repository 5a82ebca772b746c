package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/sirupsen/logrus"

	derrors "github.com/a3tai/dispatch-ocr/internal/errors"
)

// DefaultPSMModes is the segmentation sweep: uniform block, automatic, then
// single column. Order sheets mix tables and free text so no single mode wins.
var DefaultPSMModes = []int{6, 3, 4}

// Options configures an Adapter
type Options struct {
	Languages []string
	PSMModes  []int
	DPI       int
}

// Adapter runs an Engine over page images, sweeping segmentation modes and
// keeping the longest output.
type Adapter struct {
	engine Engine
	opts   Options
	log    logrus.FieldLogger
}

// NewAdapter wraps engine. Empty PSMModes fall back to DefaultPSMModes.
func NewAdapter(engine Engine, opts Options, log logrus.FieldLogger) *Adapter {
	if len(opts.PSMModes) == 0 {
		opts.PSMModes = DefaultPSMModes
	}
	if len(opts.Languages) == 0 {
		opts.Languages = []string{"eng"}
	}
	return &Adapter{engine: engine, opts: opts, log: log}
}

// EngineName returns the underlying engine's name
func (a *Adapter) EngineName() string {
	return a.engine.Name()
}

// Text recognises img and returns its text. Low-confidence or empty output is
// not an error; only an engine that fails on every mode is.
func (a *Adapter) Text(ctx context.Context, id string, page int, img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", derrors.Wrap(derrors.ErrorTypeOCR, "cannot encode page image", err).WithPage(page)
	}

	log := a.log.WithFields(logrus.Fields{"input": id, "page": page})

	var (
		best    Result
		found   bool
		lastErr error
	)
	for _, psm := range a.opts.PSMModes {
		if err := ctx.Err(); err != nil {
			return "", derrors.Wrap(derrors.ErrorTypeOCR, "recognition cancelled", err).WithPage(page)
		}

		res, err := a.engine.Recognize(ctx, Input{
			ID:        id,
			Image:     data,
			PageIndex: page,
			DPI:       a.opts.DPI,
			Languages: a.opts.Languages,
			PSM:       psm,
		})
		if err != nil {
			lastErr = err
			log.WithField("psm", psm).WithError(err).Debug("recognition failed")
			continue
		}

		res.PlainText = strings.TrimSpace(res.PlainText)
		log.WithFields(logrus.Fields{"psm": psm, "chars": len(res.PlainText)}).Debug("recognised page")
		if !found || len(res.PlainText) > len(best.PlainText) {
			best = res
			found = true
		}
	}

	if !found {
		return "", derrors.Wrap(derrors.ErrorTypeOCR,
			fmt.Sprintf("%s failed on every segmentation mode", a.engine.Name()), lastErr).WithPage(page)
	}
	return best.PlainText, nil
}

// Probe runs engine once on a small blank image. Any failure means OCR is
// unusable for the whole run.
func Probe(ctx context.Context, engine Engine, languages []string) error {
	img := image.NewGray(image.Rect(0, 0, 64, 32))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	data, err := EncodePNG(img)
	if err != nil {
		return derrors.Wrap(derrors.ErrorTypeEngineUnavailable, "cannot build probe image", err)
	}

	if _, err := engine.Recognize(ctx, Input{ID: "probe", Image: data, Languages: languages, PSM: 6}); err != nil {
		return derrors.Wrap(derrors.ErrorTypeEngineUnavailable,
			fmt.Sprintf("OCR engine %s is not usable", engine.Name()), err)
	}
	return nil
}

// EncodePNG encodes img for the engine, favouring speed over size
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
