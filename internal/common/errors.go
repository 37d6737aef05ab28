package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ProcessingFailedPrefix is prepended to every user-facing failure message.
const ProcessingFailedPrefix = "Processing failed: "

// Pipeline error codes.
const (
	CodeNoDocumentSelected   = "NO_DOCUMENT_SELECTED"
	CodeRunInProgress        = "RUN_IN_PROGRESS"
	CodeInsufficientContent  = "INSUFFICIENT_CONTENT"
	CodeAnalysisFailed       = "ANALYSIS_FAILED"
	CodeWatchlistUnavailable = "WATCHLIST_UNAVAILABLE"
	CodeDraftFailed          = "DRAFT_FAILED"
	CodeUnknownFailure       = "UNKNOWN_FAILURE"
	CodeConfig               = "CONFIG_ERROR"
	CodeDocumentTooLarge     = "DOCUMENT_TOO_LARGE"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError by code, so errors.Is(err, ErrDraftFailed) holds
// for any AppError carrying CodeDraftFailed.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return t.Code == e.Code && t.Message == ""
	}
	return false
}

// Sentinels for errors.Is checks. They carry no message.
var (
	ErrNoDocumentSelected   = &AppError{Code: CodeNoDocumentSelected}
	ErrRunInProgress        = &AppError{Code: CodeRunInProgress}
	ErrInsufficientContent  = &AppError{Code: CodeInsufficientContent}
	ErrAnalysisFailed       = &AppError{Code: CodeAnalysisFailed}
	ErrWatchlistUnavailable = &AppError{Code: CodeWatchlistUnavailable}
	ErrDraftFailed          = &AppError{Code: CodeDraftFailed}
	ErrUnknownFailure       = &AppError{Code: CodeUnknownFailure}
)

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation failed")
)

// User-facing messages per failure class.
const (
	MsgNoDocumentSelected   = "Please select a PDF file first."
	MsgRunInProgress        = "A document is already being processed."
	MsgInsufficientContent  = "Could not extract sufficient text from the PDF. The document might be empty, scanned as an image, or corrupted."
	MsgAnalysisInvalid      = "AI failed to generate valid structured data. The document might be unclear or lack the required information."
	MsgAnalysisFailed       = "Failed to analyze the document with AI. Please try again."
	MsgWatchlistUnavailable = "The compliance check couldn't be completed."
	MsgDraftFailed          = "Failed to generate notification email with AI."
	MsgUnknownFailure       = "An unknown error occurred."
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}


// CodeOf returns the code of the outermost AppError in err's chain, or "".
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// UserMessage returns the message to show for err, without the failure prefix.
func UserMessage(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return MsgUnknownFailure
}

// FailureMessage is UserMessage with the processing-failure marker.
func FailureMessage(err error) string {
	return ProcessingFailedPrefix + UserMessage(err)
}

// gRPC error helpers
func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

// ToStatus converts a pipeline error to a gRPC status error.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	msg := UserMessage(err)
	switch CodeOf(err) {
	case CodeNoDocumentSelected, CodeRunInProgress:
		return status.Error(codes.FailedPrecondition, msg)
	case CodeInsufficientContent:
		return status.Error(codes.InvalidArgument, msg)
	case CodeWatchlistUnavailable:
		return status.Error(codes.Unavailable, msg)
	case CodeAnalysisFailed, CodeDraftFailed:
		return status.Error(codes.Internal, msg)
	case CodeDocumentTooLarge:
		return status.Error(codes.ResourceExhausted, msg)
	case CodeConfig:
		return status.Error(codes.FailedPrecondition, msg)
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrValidation) {
		return status.Error(codes.InvalidArgument, msg)
	}
	return status.Error(codes.Unknown, msg)
}
