package pdf

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/dispatch-ocr/internal/testutil"
)

func TestAssets_PageImages(t *testing.T) {
	dir := t.TempDir()
	assets := NewAssets()

	t.Run("PDF without images", func(t *testing.T) {
		path := testutil.WritePDF(t, dir, "blank.pdf", 1)
		images, err := assets.PageImages(path)
		if err == nil {
			assert.Empty(t, images)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := assets.PageImages(filepath.Join(dir, "missing.pdf"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open PDF")
	})

	t.Run("corrupt file does not panic", func(t *testing.T) {
		path := testutil.WriteCorruptPDF(t, dir, "corrupt.pdf")
		assert.NotPanics(t, func() {
			_, err := assets.PageImages(path)
			assert.Error(t, err)
		})
	})
}

func TestArea(t *testing.T) {
	assert.Equal(t, 200, area(image.NewGray(image.Rect(0, 0, 10, 20))))
	assert.Equal(t, 0, area(image.NewGray(image.Rectangle{})))
}
