package pdf

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	derrors "github.com/a3tai/dispatch-ocr/internal/errors"
)

// maxRasterSide caps the longer edge of an upscaled page. Embedded scans are
// often already 300 DPI; blowing those up 4x only costs memory.
const maxRasterSide = 6000

// An embedded image stands in for its page only when its aspect ratio is
// within scanAspectTolerance of the page's and it has at least one pixel per
// point (72 DPI) along the page's longer edge. Logos and stamps fail this.
const scanAspectTolerance = 0.1

// Renderer turns a PDF order sheet into per-page images ready for OCR
type Renderer struct {
	opts       RenderOptions
	validator  *Validator
	images     ImageSource
	rasterizer PageRasterizer
	textLayer  TextLayer
	log        logrus.FieldLogger
}

// NewRenderer wires the default pdfcpu, pdftoppm and ledongthuc backends
func NewRenderer(opts RenderOptions, log logrus.FieldLogger) *Renderer {
	r := &Renderer{
		opts:      opts,
		validator: NewValidator(opts.MaxFileSize),
		images:    NewAssets(),
		textLayer: NewReader(),
		log:       log,
	}
	// A nil *Pdftoppm must not end up as a non-nil interface.
	if ppm := NewPdftoppm(opts.PdftoppmPath, opts.DPI); ppm != nil {
		r.rasterizer = ppm
	}
	return r
}

// NewRendererWithBackends builds a renderer from explicit backends. Any of
// images, rasterizer and textLayer may be nil.
func NewRendererWithBackends(opts RenderOptions, images ImageSource, rasterizer PageRasterizer,
	textLayer TextLayer, log logrus.FieldLogger,
) *Renderer {
	return &Renderer{
		opts:       opts,
		validator:  NewValidator(opts.MaxFileSize),
		images:     images,
		rasterizer: rasterizer,
		textLayer:  textLayer,
		log:        log,
	}
}

// Render validates path and returns one Page per renderable page, in page
// order. Per page it prefers the native text layer (when enabled), then the
// embedded scan covering the page, then pdftoppm. It fails only when no page
// could be produced.
func (r *Renderer) Render(ctx context.Context, path string) ([]Page, error) {
	sizes, err := r.validator.Inspect(path)
	if err != nil {
		return nil, err
	}
	pageCount := len(sizes)

	log := r.log.WithField("file", path)

	var texts map[int]string
	if r.opts.PreferTextLayer && r.textLayer != nil {
		texts, err = r.textLayer.PageTexts(path)
		if err != nil {
			log.WithError(err).Debug("text layer unavailable")
		}
	}

	var scans map[int]image.Image
	if r.images != nil {
		scans, err = r.images.PageImages(path)
		if err != nil {
			log.WithError(err).Debug("embedded image extraction failed")
		}
	}

	pages := make([]Page, 0, pageCount)
	var lastErr error
	for n := 1; n <= pageCount; n++ {
		if err := ctx.Err(); err != nil {
			return nil, derrors.Wrap(derrors.ErrorTypeRender, "rendering cancelled", err).WithFile(path)
		}

		if text, ok := texts[n]; ok {
			pages = append(pages, Page{Number: n, Text: text, Source: SourceTextLayer})
			continue
		}

		if scan, ok := scans[n]; ok {
			if coversPage(scan, sizes[n-1]) {
				pages = append(pages, Page{Number: n, Image: Upscale(scan, r.opts.Scale), Source: SourceEmbedded})
				continue
			}
			log.WithFields(logrus.Fields{"page": n, "image": scan.Bounds().Size().String()}).
				Debug("embedded image does not cover the page")
		}

		if r.rasterizer == nil {
			lastErr = fmt.Errorf("page %d has no embedded scan and no rasteriser is available", n)
			log.WithField("page", n).Warn("page skipped: no embedded scan and pdftoppm unavailable")
			continue
		}

		img, err := r.rasterizer.RasterizePage(ctx, path, n)
		if err != nil {
			lastErr = err
			log.WithField("page", n).WithError(err).Warn("page rasterisation failed")
			continue
		}
		pages = append(pages, Page{Number: n, Image: img, Source: SourcePdftoppm})
	}

	if len(pages) == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no renderable pages")
		}
		return nil, derrors.Wrap(derrors.ErrorTypeRender, "no page could be rendered", lastErr).WithFile(path)
	}

	log.WithField("pages", len(pages)).Debug("rendered PDF")
	return pages, nil
}

// coversPage reports whether img looks like a scan of a whole page of the
// given size. Pages of unknown size trust the image.
func coversPage(img image.Image, page PageSize) bool {
	if !page.Known() {
		return true
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return false
	}

	imgRatio := float64(b.Dx()) / float64(b.Dy())
	pageRatio := page.Width / page.Height
	if math.Abs(imgRatio-pageRatio)/pageRatio > scanAspectTolerance {
		return false
	}
	return float64(max(b.Dx(), b.Dy())) >= math.Max(page.Width, page.Height)
}

// Upscale enlarges img by factor with Catmull-Rom resampling, keeping the
// longer edge within maxRasterSide. A factor that works out to <= 1 returns
// img unchanged.
func Upscale(img image.Image, factor int) image.Image {
	b := img.Bounds()
	long := b.Dx()
	if b.Dy() > long {
		long = b.Dy()
	}
	if long == 0 {
		return img
	}

	f := float64(factor)
	if float64(long)*f > maxRasterSide {
		f = float64(maxRasterSide) / float64(long)
	}
	if f <= 1 {
		return img
	}

	rect := image.Rect(0, 0, int(float64(b.Dx())*f), int(float64(b.Dy())*f))
	var dst draw.Image
	if _, ok := img.(*image.Gray); ok {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewRGBA(rect)
	}
	draw.CatmullRom.Scale(dst, rect, img, b, draw.Src, nil)
	return dst
}
