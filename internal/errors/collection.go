package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCollection accumulates the errors and warnings of one batch run
type ErrorCollection struct {
	Errors   []*ProcessingError `json:"errors"`
	Warnings []*ProcessingError `json:"warnings"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{
		Errors:   make([]*ProcessingError, 0),
		Warnings: make([]*ProcessingError, 0),
	}
}

// Add files err by severity. Plain errors are wrapped as ErrorTypeUnknown.
func (ec *ErrorCollection) Add(err error) {
	if err == nil {
		return
	}

	var pe *ProcessingError
	if !stderrors.As(err, &pe) {
		pe = Wrap(ErrorTypeUnknown, "unexpected failure", err)
	}

	switch pe.GetSeverity() {
	case SeverityInfo, SeverityWarning:
		ec.Warnings = append(ec.Warnings, pe)
	default:
		ec.Errors = append(ec.Errors, pe)
	}
}

// HasFatal returns true if any collected error must stop the run
func (ec *ErrorCollection) HasFatal() bool {
	for _, err := range ec.Errors {
		if err.IsFatal() {
			return true
		}
	}
	return false
}

// ByType returns every collected entry of the given category
func (ec *ErrorCollection) ByType(t ErrorType) []*ProcessingError {
	out := make([]*ProcessingError, 0)
	for _, err := range ec.Errors {
		if err.Type == t {
			out = append(out, err)
		}
	}
	for _, err := range ec.Warnings {
		if err.Type == t {
			out = append(out, err)
		}
	}
	return out
}

// Count returns the total number of errors and warnings
func (ec *ErrorCollection) Count() (errors, warnings int) {
	return len(ec.Errors), len(ec.Warnings)
}

// Summary returns a text summary of all errors and warnings
func (ec *ErrorCollection) Summary() string {
	errorCount, warningCount := ec.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}

	summary := fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)

	if ec.HasFatal() {
		summary += " (including fatal errors)"
	}

	return summary
}
