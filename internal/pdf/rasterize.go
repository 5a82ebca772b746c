package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// PageRasterizer renders a single page of a PDF to an image
type PageRasterizer interface {
	RasterizePage(ctx context.Context, path string, page int) (image.Image, error)
}

// Pdftoppm rasterises pages with poppler's pdftoppm binary. It is the
// fallback for pages that carry vector content instead of a scan.
type Pdftoppm struct {
	binary string
	dpi    int
}

// NewPdftoppm resolves binary on PATH. It returns nil when the binary is not
// installed, which callers treat as "no rasteriser available".
func NewPdftoppm(binary string, dpi int) *Pdftoppm {
	if binary == "" {
		return nil
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil
	}
	return &Pdftoppm{binary: resolved, dpi: dpi}
}

// RasterizePage renders page (1-based) at the configured DPI
func (p *Pdftoppm) RasterizePage(ctx context.Context, path string, page int) (image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "dispatch-ppm-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	n := strconv.Itoa(page)
	// pdftoppm -r <DPI> -f <n> -l <n> -png -singlefile <in.pdf> <tmp/page>
	cmd := exec.CommandContext(ctx, p.binary,
		"-r", strconv.Itoa(p.dpi), "-f", n, "-l", n, "-png", "-singlefile", path, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm page %d: %w: %s", page, err, bytes.TrimSpace(stderr.Bytes()))
	}

	f, err := os.Open(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no image for page %d: %w", page, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}
	return img, nil
}
