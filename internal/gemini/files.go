package gemini

import (
	"context"
	"path/filepath"

	"github.com/pdf-summarizer/server/internal/document"
	"google.golang.org/genai"
)

// FileStore uploads documents through the Gemini Files API.
type FileStore struct {
	client *genai.Client
}

func NewFileStore(client *genai.Client) *FileStore {
	return &FileStore{client: client}
}

// Upload sends the file at path. The display name is the file's base name.
func (s *FileStore) Upload(ctx context.Context, path, mimeType string) (*document.Handle, error) {
	f, err := s.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: filepath.Base(path),
	})
	if err != nil {
		return nil, err
	}
	return toHandle(f), nil
}

// Get reads the current state of an uploaded file.
func (s *FileStore) Get(ctx context.Context, name string) (*document.Handle, error) {
	f, err := s.client.Files.Get(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	return toHandle(f), nil
}

func toHandle(f *genai.File) *document.Handle {
	if f == nil {
		return nil
	}
	h := &document.Handle{
		Name:        f.Name,
		DisplayName: f.DisplayName,
		URI:         f.URI,
		MIMEType:    f.MIMEType,
		State:       toState(f.State),
	}
	if f.Error != nil {
		h.Reason = f.Error.Message
	}
	return h
}

// toState treats every state other than processing and active as failed.
func toState(s genai.FileState) document.State {
	switch s {
	case genai.FileStateProcessing:
		return document.StatePending
	case genai.FileStateActive:
		return document.StateActive
	default:
		return document.StateFailed
	}
}

var _ document.FileStore = (*FileStore)(nil)
