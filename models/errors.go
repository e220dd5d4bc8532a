package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeConfig            = "CONFIG_INVALID"
	ErrCodeExtraction        = "EXTRACTION_FAILED"
	ErrCodeSynonymAmbiguity  = "SYNONYM_AMBIGUOUS"
	ErrCodeNormalization     = "NORMALIZATION_FAILED"
	ErrCodeCaptureTimeout    = "CAPTURE_TIMEOUT"
	ErrCodeCaptureNavigation = "CAPTURE_NAVIGATION_FAILED"
	ErrCodeBrowserCrash      = "BROWSER_CRASH"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PipelineError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
//
// Only ErrCodeConfig is fatal to a run; every other code is field- or
// section-scoped and is recovered locally as a Warning on the affected
// record or artifact.
type PipelineError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(code, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *PipelineError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// Warning records a recovered, non-fatal failure scoped to one field,
// section, or artifact. A run always completes; the warnings are the
// manifest of what could not be resolved and why.
type Warning struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}
