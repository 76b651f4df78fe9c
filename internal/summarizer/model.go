package summarizer

import (
	"context"
	"time"

	"github.com/pdf-summarizer/server/internal/document"
)

// Config holds the per-process settings of a summarizer.
type Config struct {
	// UploadDir is where uploads are saved for the duration of one run.
	UploadDir string
	// DefaultPrompt replaces a blank prompt.
	DefaultPrompt string
}

// DefaultPrompt is the prompt the form starts with.
const DefaultPrompt = "Summarize it"

// Request is one user action: the uploaded file and the prompt.
type Request struct {
	FileName string
	Data     []byte
	Prompt   string
}

// Result is the outcome of a successful run.
type Result struct {
	RunID    string
	FileName string
	FileID   string
	Pages    int
	Prompt   string
	Text     string
	Elapsed  time.Duration
}

// Uploader submits a local file and waits for it to become usable.
type Uploader interface {
	Submit(ctx context.Context, path, mimeType string) (*document.Handle, error)
	AwaitActive(ctx context.Context, h *document.Handle) (*document.ActivatedHandle, error)
}

// Invoker runs the single-turn generation for an activated document.
type Invoker interface {
	Invoke(ctx context.Context, doc *document.ActivatedHandle, prompt string) (string, error)
}

// runState flows between the chain stages of a single run.
type runState struct {
	id      string
	started time.Time
	name    string
	path    string
	pages   int
	prompt  string
	handle  *document.Handle
	active  *document.ActivatedHandle
}
