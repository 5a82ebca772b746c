package tesseract

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os/exec"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	derrors "github.com/a3tai/dispatch-ocr/internal/errors"
	"github.com/a3tai/dispatch-ocr/internal/ocr"
	"github.com/a3tai/dispatch-ocr/internal/pdf"
)

func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func renderLine(text string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 240, 60))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 35),
	}
	d.DrawString(text)
	return img
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestEngine_Recognize(t *testing.T) {
	ensureTesseractAvailable(t)

	adapter := ocr.NewAdapter(NewEngine(), ocr.Options{Languages: []string{"eng"}}, quietLogger())
	require.NoError(t, ocr.Probe(context.Background(), NewEngine(), []string{"eng"}))

	img := pdf.Upscale(renderLine("INVOICE 12345"), 4)
	text, err := adapter.Text(context.Background(), "line#1", 1, img)
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(text), "12345")
}

func TestNew(t *testing.T) {
	engine, err := New(ocr.EngineGosseract, "")
	require.NoError(t, err)
	assert.Equal(t, "tesseract", engine.Name())

	engine, err = New("", "")
	require.NoError(t, err)
	assert.Equal(t, "tesseract", engine.Name())

	_, err = New("abbyy", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, derrors.ErrConfig)

	_, err = New(ocr.EngineCLI, "definitely-not-a-tesseract-binary")
	require.Error(t, err)
	assert.ErrorIs(t, err, derrors.ErrEngineUnavailable)
}
