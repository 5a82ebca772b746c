package pdf

import (
	"fmt"
	"image"
	_ "image/jpeg" // DCTDecode page scans
	_ "image/png"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/tiff" // CCITT fax scans come out as TIFF
)

// ImageSource yields the scanned image of each page that carries one
type ImageSource interface {
	PageImages(path string) (map[int]image.Image, error)
}

// Assets extracts the embedded page scans of a PDF with pdfcpu
type Assets struct{}

// NewAssets creates a new embedded image extractor
func NewAssets() *Assets {
	return &Assets{}
}

// PageImages returns, per 1-based page number, the largest decodable image
// embedded on that page. Images pdfcpu cannot hand back in a Go-decodable
// format (JBIG2, JPX) are skipped.
func (a *Assets) PageImages(path string) (images map[int]image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("image extraction panicked: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pages, err := api.ExtractImagesRaw(f, nil, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	images = make(map[int]image.Image)
	for _, pageImages := range pages {
		for _, img := range pageImages {
			decoded, _, err := image.Decode(img)
			if err != nil {
				continue
			}
			if current, ok := images[img.PageNr]; ok && area(current) >= area(decoded) {
				continue
			}
			images[img.PageNr] = decoded
		}
	}

	return images, nil
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}
