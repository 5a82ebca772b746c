package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessingError_Error(t *testing.T) {
	err := New(ErrorTypeRender, "cannot open PDF").
		WithContext("bad header").
		WithFile("/tmp/a.pdf").
		WithPage(2)

	assert.Equal(t, "[RENDER_ERROR] cannot open PDF: bad header (file=/tmp/a.pdf, page=2)", err.Error())
}

func TestProcessingError_IsAndAs(t *testing.T) {
	wrapped := fmt.Errorf("batch: %w", Wrap(ErrorTypeOCR, "recognize", io.ErrUnexpectedEOF))

	assert.True(t, stderrors.Is(wrapped, ErrOCR))
	assert.False(t, stderrors.Is(wrapped, ErrRender))
	assert.True(t, stderrors.Is(wrapped, io.ErrUnexpectedEOF))

	var pe *ProcessingError
	require.True(t, stderrors.As(wrapped, &pe))
	assert.Equal(t, ErrorTypeOCR, pe.Type)
	assert.Equal(t, ErrorTypeOCR, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(io.EOF))
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(ErrorTypeWrite, "save", nil))
}

func TestErrorType_Severity(t *testing.T) {
	tests := []struct {
		errorType   ErrorType
		severity    ErrorSeverity
		recoverable bool
	}{
		{ErrorTypeDuplicateSkip, SeverityInfo, true},
		{ErrorTypeExtractionGap, SeverityWarning, true},
		{ErrorTypeFileNotFound, SeverityError, true},
		{ErrorTypeRender, SeverityError, true},
		{ErrorTypeOCR, SeverityError, true},
		{ErrorTypeWrite, SeverityError, true},
		{ErrorTypeEngineUnavailable, SeverityFatal, false},
		{ErrorTypeConfig, SeverityFatal, false},
	}

	for _, tt := range tests {
		t.Run(tt.errorType.String(), func(t *testing.T) {
			assert.Equal(t, tt.severity, tt.errorType.GetSeverity())
			assert.Equal(t, tt.recoverable, tt.errorType.IsRecoverable())
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrorTypeEngineUnavailable, "no tesseract")))
	assert.False(t, IsFatal(New(ErrorTypeRender, "bad pdf")))
	assert.False(t, IsFatal(io.EOF))
}

func TestErrorCollection(t *testing.T) {
	ec := NewErrorCollection()
	assert.Equal(t, "No errors or warnings", ec.Summary())

	ec.Add(nil)
	ec.Add(New(ErrorTypeExtractionGap, "po not found").WithField("PO Number"))
	ec.Add(New(ErrorTypeDuplicateSkip, "invoice exists"))
	ec.Add(New(ErrorTypeRender, "bad pdf"))
	ec.Add(io.ErrUnexpectedEOF)

	errs, warns := ec.Count()
	assert.Equal(t, 2, errs)
	assert.Equal(t, 2, warns)
	assert.False(t, ec.HasFatal())
	assert.Len(t, ec.ByType(ErrorTypeExtractionGap), 1)
	assert.Len(t, ec.ByType(ErrorTypeUnknown), 1)
	assert.Equal(t, "Found 2 error(s) and 2 warning(s)", ec.Summary())

	ec.Add(New(ErrorTypeEngineUnavailable, "tesseract missing"))
	assert.True(t, ec.HasFatal())
	assert.Contains(t, ec.Summary(), "including fatal errors")
}
