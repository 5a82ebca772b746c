package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ProcessingError is a categorised failure raised while turning one order
// sheet into a spreadsheet row.
type ProcessingError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	FilePath    string    `json:"file_path,omitempty"`
	PageNumber  int       `json:"page_number,omitempty"`
	Field       string    `json:"field,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	Err         error     `json:"-"`
}

// ErrorType represents the categories of the processing taxonomy
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeFileNotFound
	ErrorTypeRender
	ErrorTypeOCR
	ErrorTypeExtractionGap
	ErrorTypeDuplicateSkip
	ErrorTypeWrite
	ErrorTypeEngineUnavailable
	ErrorTypeConfig
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// Sentinels usable with errors.Is against any ProcessingError of that type.
var (
	ErrFileNotFound      = &ProcessingError{Type: ErrorTypeFileNotFound}
	ErrRender            = &ProcessingError{Type: ErrorTypeRender}
	ErrOCR               = &ProcessingError{Type: ErrorTypeOCR}
	ErrExtractionGap     = &ProcessingError{Type: ErrorTypeExtractionGap}
	ErrDuplicateSkip     = &ProcessingError{Type: ErrorTypeDuplicateSkip}
	ErrWrite             = &ProcessingError{Type: ErrorTypeWrite}
	ErrEngineUnavailable = &ProcessingError{Type: ErrorTypeEngineUnavailable}
	ErrConfig            = &ProcessingError{Type: ErrorTypeConfig}
)

// Error implements the error interface
func (e *ProcessingError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Context != "" {
		msg += ": " + e.Context
	}
	if e.FilePath != "" {
		msg += fmt.Sprintf(" (file=%s", e.FilePath)
		if e.PageNumber > 0 {
			msg += fmt.Sprintf(", page=%d", e.PageNumber)
		}
		msg += ")"
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Is matches on error type so sentinels compare by category.
func (e *ProcessingError) Is(target error) bool {
	t, ok := target.(*ProcessingError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeFileNotFound:
		return "FILE_NOT_FOUND"
	case ErrorTypeRender:
		return "RENDER_ERROR"
	case ErrorTypeOCR:
		return "OCR_ERROR"
	case ErrorTypeExtractionGap:
		return "EXTRACTION_GAP"
	case ErrorTypeDuplicateSkip:
		return "DUPLICATE_SKIP"
	case ErrorTypeWrite:
		return "WRITE_ERROR"
	case ErrorTypeEngineUnavailable:
		return "ENGINE_UNAVAILABLE"
	case ErrorTypeConfig:
		return "CONFIG_ERROR"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeDuplicateSkip:
		return SeverityInfo
	case ErrorTypeExtractionGap:
		return SeverityWarning
	case ErrorTypeFileNotFound, ErrorTypeRender, ErrorTypeOCR, ErrorTypeWrite:
		return SeverityError
	case ErrorTypeEngineUnavailable, ErrorTypeConfig:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// IsRecoverable reports whether the batch can continue with the next file
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeEngineUnavailable, ErrorTypeConfig:
		return false
	default:
		return true
	}
}

// New creates a new ProcessingError
func New(errorType ErrorType, message string) *ProcessingError {
	return &ProcessingError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
		Timestamp:   time.Now(),
	}
}

// Wrap wraps a standard error as a ProcessingError. A nil err yields nil.
func Wrap(errorType ErrorType, message string, err error) *ProcessingError {
	if err == nil {
		return nil
	}
	pe := New(errorType, message)
	pe.Context = err.Error()
	pe.Err = err
	return pe
}

// WithContext adds context to an existing ProcessingError
func (e *ProcessingError) WithContext(context string) *ProcessingError {
	e.Context = context
	return e
}

// WithFile adds file path information to an existing ProcessingError
func (e *ProcessingError) WithFile(filePath string) *ProcessingError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing ProcessingError
func (e *ProcessingError) WithPage(pageNumber int) *ProcessingError {
	e.PageNumber = pageNumber
	return e
}

// WithField names the record field an extraction gap refers to
func (e *ProcessingError) WithField(field string) *ProcessingError {
	e.Field = field
	return e
}

// GetSeverity returns the severity of this specific error
func (e *ProcessingError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// IsFatal returns true if the whole run must stop
func (e *ProcessingError) IsFatal() bool {
	return e.GetSeverity() == SeverityFatal
}

// TypeOf returns the taxonomy category of err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var pe *ProcessingError
	if stderrors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeUnknown
}

// IsFatal reports whether err should abort the whole run
func IsFatal(err error) bool {
	var pe *ProcessingError
	if stderrors.As(err, &pe) {
		return pe.IsFatal()
	}
	return false
}
