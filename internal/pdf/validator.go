package pdf

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	derrors "github.com/a3tai/dispatch-ocr/internal/errors"
)

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// Validate checks that path is a readable PDF and returns its page count.
// Missing files yield FILE_NOT_FOUND; anything else yields RENDER_ERROR.
func (v *Validator) Validate(filePath string) (int, error) {
	sizes, err := v.Inspect(filePath)
	return len(sizes), err
}

// Inspect validates path like Validate and returns the size of every page,
// in page order. A page whose MediaBox cannot be read has a zero size.
func (v *Validator) Inspect(filePath string) ([]PageSize, error) {
	if filePath == "" {
		return nil, derrors.New(derrors.ErrorTypeFileNotFound, "path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, derrors.New(derrors.ErrorTypeFileNotFound, "file does not exist").WithFile(filePath)
	}
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrorTypeRender, "cannot access file", err).WithFile(filePath)
	}

	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return nil, derrors.Wrap(derrors.ErrorTypeRender, "invalid file", err).WithFile(filePath)
	}

	sizes, err := readPageSizes(filePath)
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrorTypeRender, "invalid PDF file", err).WithFile(filePath)
	}
	if len(sizes) == 0 {
		return nil, derrors.New(derrors.ErrorTypeRender, "PDF has no pages").WithFile(filePath)
	}

	return sizes, nil
}

// readPageSizes opens the PDF with ledongthuc/pdf. The parser panics on some
// malformed inputs, so panics are turned into errors.
func readPageSizes(filePath string) (sizes []PageSize, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sizes = make([]PageSize, r.NumPage())
	for n := range sizes {
		sizes[n] = pageSize(r.Page(n + 1))
	}
	return sizes, nil
}

// pageSize reads the page's MediaBox and Rotate, both of which may be
// inherited from the page tree.
func pageSize(page pdf.Page) PageSize {
	box := inherited(page.V, "MediaBox")
	if box.Len() != 4 {
		return PageSize{}
	}
	size := PageSize{
		Width:  math.Abs(box.Index(2).Float64() - box.Index(0).Float64()),
		Height: math.Abs(box.Index(3).Float64() - box.Index(1).Float64()),
	}
	if rot := inherited(page.V, "Rotate").Int64(); rot%180 != 0 {
		size.Width, size.Height = size.Height, size.Width
	}
	return size
}

func inherited(v pdf.Value, key string) pdf.Value {
	for ; !v.IsNull(); v = v.Key("Parent") {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
	}
	return pdf.Value{}
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}
