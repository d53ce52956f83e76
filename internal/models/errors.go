package models

import (
	"errors"
	"fmt"
)

// ErrorCode is the machine-readable part of an export failure.
type ErrorCode string

const (
	CodeInvalidOptions     ErrorCode = "invalid_options"
	CodeInvalidData        ErrorCode = "invalid_data"
	CodeGenerationFailure  ErrorCode = "generation_failure"
	CodeTimeout            ErrorCode = "timeout"
	CodeFileTooLarge       ErrorCode = "file_too_large"
	CodeUnsupportedFeature ErrorCode = "unsupported_feature"
	CodeCancelled          ErrorCode = "cancelled"
)

// Sentinel errors for export failures.
// Use errors.Is() to check for these errors in calling code.
var (
	ErrInvalidOptions     = errors.New("invalid export options")
	ErrInvalidData        = errors.New("invalid checklist data")
	ErrGenerationFailure  = errors.New("export generation failed")
	ErrTimeout            = errors.New("export timed out")
	ErrFileTooLarge       = errors.New("export file too large")
	ErrUnsupportedFeature = errors.New("unsupported export feature")
	ErrCancelled          = errors.New("export cancelled")
)

var sentinels = map[ErrorCode]error{
	CodeInvalidOptions:     ErrInvalidOptions,
	CodeInvalidData:        ErrInvalidData,
	CodeGenerationFailure:  ErrGenerationFailure,
	CodeTimeout:            ErrTimeout,
	CodeFileTooLarge:       ErrFileTooLarge,
	CodeUnsupportedFeature: ErrUnsupportedFeature,
	CodeCancelled:          ErrCancelled,
}

// classifyOrder is the precedence AsExportError applies when an error wraps
// more than one sentinel.
var classifyOrder = []ErrorCode{
	CodeCancelled,
	CodeTimeout,
	CodeFileTooLarge,
	CodeInvalidOptions,
	CodeInvalidData,
	CodeUnsupportedFeature,
	CodeGenerationFailure,
}

// ExportError is a classified export failure. Message is meant for people,
// Hint suggests a remedy and Err keeps the underlying cause.
type ExportError struct {
	Code    ErrorCode
	Message string
	Hint    string
	Err     error
}

// NewExportError creates an ExportError without a hint.
func NewExportError(code ErrorCode, msg string, err error) *ExportError {
	return &ExportError{Code: code, Message: msg, Err: err}
}

// WithHint returns e with a remedy attached.
func (e *ExportError) WithHint(hint string) *ExportError {
	e.Hint = hint
	return e
}

func (e *ExportError) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

// Unwrap exposes both the code sentinel and the cause to errors.Is / errors.As.
func (e *ExportError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := sentinels[e.Code]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// AsExportError classifies any error. Unclassified errors become generation failures.
func AsExportError(err error) *ExportError {
	if err == nil {
		return nil
	}
	var ee *ExportError
	if errors.As(err, &ee) {
		return ee
	}
	for _, code := range classifyOrder {
		if errors.Is(err, sentinels[code]) {
			return NewExportError(code, "", err)
		}
	}
	return NewExportError(CodeGenerationFailure, "", err)
}

// Errorf builds an ExportError with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *ExportError {
	return NewExportError(code, fmt.Sprintf(format, args...), nil)
}
