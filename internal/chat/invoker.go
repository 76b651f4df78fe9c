package chat

import (
	"context"
	"errors"
	"strings"

	errx "github.com/pdf-summarizer/server/internal/core/error"
	"github.com/pdf-summarizer/server/internal/document"
	logx "github.com/pdf-summarizer/server/pkg/logger"
)

// Generator requests a single completion for a conversation.
type Generator interface {
	Generate(ctx context.Context, model string, conv Conversation, cfg GenerationConfig) (string, error)
}

// Invoker runs single-turn conversations against one model with a fixed
// generation configuration.
type Invoker struct {
	gen   Generator
	model string
	cfg   GenerationConfig
}

func NewInvoker(gen Generator, model string) *Invoker {
	return &Invoker{
		gen:   gen,
		model: model,
		cfg:   DefaultGenerationConfig(),
	}
}

// Invoke sends one user turn holding doc and prompt and returns the
// completion text unchanged. doc must be active.
func (i *Invoker) Invoke(ctx context.Context, doc *document.ActivatedHandle, prompt string) (string, error) {
	if doc == nil {
		return "", &errx.GenerationError{Model: i.model, Err: errors.New("no activated document")}
	}
	if strings.TrimSpace(prompt) == "" {
		return "", &errx.GenerationError{Model: i.model, Err: errors.New("prompt is empty")}
	}

	conv := Conversation{Turns: []Turn{{
		Role:     RoleUser,
		Document: doc,
		Text:     prompt,
	}}}

	text, err := i.gen.Generate(ctx, i.model, conv, i.cfg)
	if err != nil {
		logx.Error().Err(err).Str("model", i.model).Str("file", doc.Name()).Msg("generation failed")
		return "", &errx.GenerationError{Model: i.model, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		logx.Warn().Str("model", i.model).Str("file", doc.Name()).Msg("generation returned no text")
		return "", &errx.GenerationError{Model: i.model, Err: errx.ErrEmptyResponse}
	}
	logx.Debug().Str("model", i.model).Int("chars", len(text)).Msg("generation complete")
	return text, nil
}
