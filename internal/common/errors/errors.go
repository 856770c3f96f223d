// Package errors provides the typed error taxonomy shared by the pipeline
// adapters, the router and the process surfaces.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Input errors
const (
	ErrCodeFileNotFound        ErrorCode = "FILE_NOT_FOUND"
	ErrCodeUnsupportedFormat   ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeUnsupportedFileType ErrorCode = "UNSUPPORTED_FILE_TYPE"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"
)

// Engine errors
const (
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
	ErrCodeOCRFailed           ErrorCode = "OCR_FAILED"
	ErrCodeSynthesisFailed     ErrorCode = "SYNTHESIS_FAILED"
)

// Output and generic errors
const (
	ErrCodeOutputWriteFailed      ErrorCode = "OUTPUT_WRITE_FAILED"
	ErrCodeOutputValidationFailed ErrorCode = "OUTPUT_VALIDATION_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// Is reports a match on error code so sentinels work with errors.Is.
func (e *StandardError) Is(target error) bool {
	var t *StandardError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrFileNotFound        = &StandardError{Code: ErrCodeFileNotFound, Message: "file not found"}
	ErrUnsupportedFormat   = &StandardError{Code: ErrCodeUnsupportedFormat, Message: "unsupported audio format"}
	ErrUnsupportedFileType = &StandardError{Code: ErrCodeUnsupportedFileType, Message: "Unsupported file type."}
	ErrInvalidInput        = &StandardError{Code: ErrCodeInvalidInput, Message: "invalid input"}
	ErrTranscription       = &StandardError{Code: ErrCodeTranscriptionFailed, Message: "transcription failed"}
	ErrOCR                 = &StandardError{Code: ErrCodeOCRFailed, Message: "ocr failed"}
	ErrSynthesis           = &StandardError{Code: ErrCodeSynthesisFailed, Message: "synthesis failed"}
)

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewFileNotFoundError reports a missing input path.
func NewFileNotFoundError(path string) *StandardError {
	return newError(ErrCodeFileNotFound, "File not found", path, nil)
}

// NewUnsupportedFormatError reports an audio file with an unknown extension.
func NewUnsupportedFormatError(ext string) *StandardError {
	return newError(ErrCodeUnsupportedFormat,
		"Unsupported audio format. Supported: wav, mp3, m4a, flac, ogg",
		fmt.Sprintf("extension: %q", ext), nil)
}

// NewUnsupportedFileTypeError reports an input the router cannot dispatch.
// The message is returned verbatim to HTTP clients, so it carries no details.
func NewUnsupportedFileTypeError(ext string) *StandardError {
	e := newError(ErrCodeUnsupportedFileType, "Unsupported file type.", "", nil)
	e.Metadata = map[string]interface{}{"extension": ext}
	return e
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, nil)
}

// NewTranscriptionError wraps a speech-to-text engine failure.
func NewTranscriptionError(err error) *StandardError {
	return newError(ErrCodeTranscriptionFailed, "Transcription failed", errDetails(err), err)
}

// NewOCRError wraps an image read or recognition failure.
func NewOCRError(err error) *StandardError {
	return newError(ErrCodeOCRFailed, "OCR failed", errDetails(err), err)
}

// NewSynthesisError wraps a text-to-speech failure.
func NewSynthesisError(err error) *StandardError {
	return newError(ErrCodeSynthesisFailed, "Synthesis failed", errDetails(err), err)
}

func NewOutputWriteError(path string, err error) *StandardError {
	return newError(ErrCodeOutputWriteFailed, "Failed to write output",
		fmt.Sprintf("path: %s, error: %s", path, errDetails(err)), err)
}

func NewOutputValidationError(details string) *StandardError {
	return newError(ErrCodeOutputValidationFailed, "Output failed contract validation", details, nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", errDetails(err), err)
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeFileNotFound:           "FILE_NOT_FOUND",
	ErrCodeUnsupportedFormat:      "UNSUPPORTED_FORMAT",
	ErrCodeUnsupportedFileType:    "UNSUPPORTED_FILE_TYPE",
	ErrCodeInvalidInput:           "INVALID_INPUT",
	ErrCodeTranscriptionFailed:    "TRANSCRIPTION_ERROR",
	ErrCodeOCRFailed:              "OCR_ERROR",
	ErrCodeSynthesisFailed:        "SYNTHESIS_ERROR",
	ErrCodeOutputWriteFailed:      "OUTPUT_WRITE_FAILED",
	ErrCodeOutputValidationFailed: "OUTPUT_VALIDATION_FAILED",
	ErrCodeInternal:               "INTERNAL_ERROR",
}

// GetRetryCount returns the retry budget for a code. The pipeline never
// retries: adapters fail fast and the caller decides.
func GetRetryCount(code ErrorCode) int {
	return 0
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError normalizes any error into a StandardError, wrapping
// unknown errors as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf returns the code carried by err, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsBadInput reports whether the code describes a caller mistake rather
// than an engine or internal failure.
func IsBadInput(code ErrorCode) bool {
	switch code {
	case ErrCodeFileNotFound,
		ErrCodeUnsupportedFormat,
		ErrCodeUnsupportedFileType,
		ErrCodeInvalidInput:
		return true
	default:
		return false
	}
}

// HTTPStatus maps an error onto 400 for bad input and 500 otherwise.
func HTTPStatus(err error) int {
	if IsBadInput(CodeOf(err)) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case IsBadInput(code):
		return "INPUT"
	case strings.Contains(codeStr, "TRANSCRIPTION"),
		strings.Contains(codeStr, "OCR"),
		strings.Contains(codeStr, "SYNTHESIS"):
		return "ENGINE"
	case strings.HasPrefix(codeStr, "OUTPUT"):
		return "OUTPUT"
	default:
		return "OTHER"
	}
}
