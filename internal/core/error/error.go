package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// TransferErrorMessage describes a rejected document upload.
	TransferErrorMessage = "the document could not be uploaded"
	// ProcessingErrorMessage describes a document the remote service failed to process.
	ProcessingErrorMessage = "the document could not be processed"
	// GenerationErrorMessage describes a failed or empty model response.
	GenerationErrorMessage = "the model did not return a response"
	// TimeoutErrorMessage describes a poll that exceeded its configured deadline.
	TimeoutErrorMessage = "timed out waiting for the document to be processed"
	// NoFileMessage is shown when the action is triggered without a file.
	NoFileMessage = "Please upload a file."
	// UnsupportedMediaMessage is shown when the selected file is not a PDF.
	UnsupportedMediaMessage = "Only PDF files are supported."
)

var (
	ErrNoFile           = errors.New("no file selected")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrEmptyResponse    = errors.New("model returned no text")
	ErrPollTimeout      = errors.New("poll timeout exceeded")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// TransferError reports that the remote store rejected a submitted file.
type TransferError struct {
	Path     string
	MIMEType string
	Err      error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("upload %s (%s): %v", e.Path, e.MIMEType, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// ProcessingFailedError reports that a submitted file reached the failed
// terminal state. Name is the remote identifier of the failing file.
type ProcessingFailedError struct {
	Name   string
	Reason string
}

func (e *ProcessingFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("file %s failed to process", e.Name)
	}
	return fmt.Sprintf("file %s failed to process: %s", e.Name, e.Reason)
}

// GenerationError reports a failed model call or an empty completion.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate with %s: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// FromRun maps a failed summarize run onto an AppError carrying the HTTP
// status and the message that is safe to show to the user.
func FromRun(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var (
		transferErr   *TransferError
		processingErr *ProcessingFailedError
		generationErr *GenerationError
	)
	switch {
	case errors.Is(err, ErrNoFile):
		return New(err, http.StatusBadRequest, NoFileMessage)
	case errors.Is(err, ErrUnsupportedMedia):
		return New(err, http.StatusUnsupportedMediaType, UnsupportedMediaMessage)
	case errors.As(err, &transferErr):
		return New(err, http.StatusBadGateway, TransferErrorMessage)
	case errors.As(err, &processingErr):
		return New(err, http.StatusUnprocessableEntity, fmt.Sprintf("%s (%s)", ProcessingErrorMessage, processingErr.Name))
	case errors.Is(err, ErrPollTimeout):
		return New(err, http.StatusGatewayTimeout, TimeoutErrorMessage)
	case errors.As(err, &generationErr):
		return New(err, http.StatusBadGateway, GenerationErrorMessage)
	default:
		return New(err, http.StatusInternalServerError, SystemErrorMessage)
	}
}
