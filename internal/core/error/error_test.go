package errx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestFromRunMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"no file", ErrNoFile, http.StatusBadRequest},
		{"unsupported media", fmt.Errorf("check: %w", ErrUnsupportedMedia), http.StatusUnsupportedMediaType},
		{"transfer", &TransferError{Path: "report.pdf", MIMEType: "application/pdf", Err: errors.New("403")}, http.StatusBadGateway},
		{"processing", fmt.Errorf("await: %w", &ProcessingFailedError{Name: "files/abc"}), http.StatusUnprocessableEntity},
		{"timeout", fmt.Errorf("await: %w", ErrPollTimeout), http.StatusGatewayTimeout},
		{"generation", &GenerationError{Model: "gemini-1.5-flash", Err: ErrEmptyResponse}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromRun(tc.err)
			if got.Status != tc.status {
				t.Fatalf("status = %d, want %d", got.Status, tc.status)
			}
			if !errors.Is(got, tc.err) && !errors.Is(got.Err, tc.err) {
				t.Fatalf("mapped error lost the original cause")
			}
		})
	}
}

func TestFromRunNamesFailingFile(t *testing.T) {
	got := FromRun(&ProcessingFailedError{Name: "files/xyz"})
	if !strings.Contains(got.Message, "files/xyz") {
		t.Fatalf("message %q does not name the file", got.Message)
	}
}

func TestFromRunKeepsAppError(t *testing.T) {
	orig := New(nil, http.StatusTeapot, "teapot")
	if got := FromRun(fmt.Errorf("wrapped: %w", orig)); got != orig {
		t.Fatalf("expected existing AppError to be returned")
	}
	if FromRun(nil) != nil {
		t.Fatalf("nil error should map to nil")
	}
}

func TestGenerationErrorUnwraps(t *testing.T) {
	err := &GenerationError{Model: "m", Err: ErrEmptyResponse}
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected errors.Is to see ErrEmptyResponse")
	}
}

func TestAppErrorMatchesWrappedError(t *testing.T) {
	transfer := &TransferError{Path: "report.pdf", Err: errors.New("403")}
	err := New(transfer, http.StatusBadGateway, TransferErrorMessage)

	var got *TransferError
	if !err.As(&got) || got != transfer {
		t.Fatalf("expected As to reach the wrapped TransferError")
	}
	var self *AppError
	if !err.As(&self) || self != err {
		t.Fatalf("expected As to fall back to the AppError itself")
	}
	if !New(ErrPollTimeout, http.StatusGatewayTimeout, TimeoutErrorMessage).Is(ErrPollTimeout) {
		t.Fatalf("expected Is to match the wrapped sentinel")
	}
	if New(nil, http.StatusTeapot, "teapot").Is(ErrNoFile) {
		t.Fatalf("AppError without a cause should not match")
	}
}
