package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/a3tai/dispatch-ocr/internal/errors"
	"github.com/a3tai/dispatch-ocr/internal/testutil"
)

func TestValidator_Validate(t *testing.T) {
	dir := t.TempDir()
	validator := NewValidator(1024 * 1024)

	good := testutil.WritePDF(t, dir, "order.pdf", 2)
	corrupt := testutil.WriteCorruptPDF(t, dir, "corrupt.pdf")
	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o644))

	tests := []struct {
		name      string
		path      string
		wantPages int
		wantType  derrors.ErrorType
	}{
		{name: "valid two page PDF", path: good, wantPages: 2},
		{name: "empty path", path: "", wantType: derrors.ErrorTypeFileNotFound},
		{name: "missing file", path: filepath.Join(dir, "missing.pdf"), wantType: derrors.ErrorTypeFileNotFound},
		{name: "corrupt PDF", path: corrupt, wantType: derrors.ErrorTypeRender},
		{name: "empty file", path: empty, wantType: derrors.ErrorTypeRender},
		{name: "wrong extension", path: text, wantType: derrors.ErrorTypeRender},
		{name: "directory", path: dir, wantType: derrors.ErrorTypeRender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := validator.Validate(tt.path)
			if tt.wantType == derrors.ErrorTypeUnknown {
				require.NoError(t, err)
				assert.Equal(t, tt.wantPages, pages)
				return
			}

			require.Error(t, err)
			assert.Equal(t, tt.wantType, derrors.TypeOf(err))
			assert.Zero(t, pages)
		})
	}
}

func TestValidator_Inspect(t *testing.T) {
	dir := t.TempDir()
	validator := NewValidator(1024 * 1024)

	letter := testutil.WritePDF(t, dir, "letter.pdf", 2)
	sizes, err := validator.Inspect(letter)
	require.NoError(t, err)
	assert.Equal(t, []PageSize{{Width: 612, Height: 792}, {Width: 612, Height: 792}}, sizes)

	mixed := filepath.Join(dir, "mixed.pdf")
	require.NoError(t, os.WriteFile(mixed, testutil.BuildPDFWithPages([]string{
		"<< /Type /Page /Parent 2 0 R /Resources << >> >>",
		"<< /Type /Page /Parent 2 0 R /Rotate 90 /Resources << >> >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [10 10 110 60] /Resources << >> >>",
	}, "/MediaBox [0 0 595 842]"), 0o644))

	sizes, err = validator.Inspect(mixed)
	require.NoError(t, err)
	assert.Equal(t, []PageSize{
		{Width: 595, Height: 842},
		{Width: 842, Height: 595},
		{Width: 100, Height: 50},
	}, sizes)

	noBox := filepath.Join(dir, "nobox.pdf")
	require.NoError(t, os.WriteFile(noBox, testutil.BuildPDFWithPages([]string{
		"<< /Type /Page /Parent 2 0 R /Resources << >> >>",
	}, ""), 0o644))
	sizes, err = validator.Inspect(noBox)
	require.NoError(t, err)
	require.Len(t, sizes, 1)
	assert.False(t, sizes[0].Known())

	_, err = validator.Inspect(filepath.Join(dir, "missing.pdf"))
	assert.ErrorIs(t, err, derrors.ErrFileNotFound)
}

func TestValidator_FileTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WritePDF(t, dir, "order.pdf", 1)

	validator := NewValidator(16)
	_, err := validator.Validate(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file too large")

	pages, err := NewValidator(1024 * 1024).Validate(path)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}
