package gemini

import (
	"context"
	"fmt"
	"strings"

	einogemini "github.com/cloudwego/eino-ext/components/model/gemini"
	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/pdf-summarizer/server/internal/chat"
	logx "github.com/pdf-summarizer/server/pkg/logger"
)

// RunName is the callback run name of a generation call.
const RunName = "generate"

// Generator requests completions through the eino Gemini chat model.
type Generator struct {
	cm *einogemini.ChatModel
}

// NewGenerator creates the chat model on the shared client. model is the
// default; each call may name its own.
func NewGenerator(ctx context.Context, client *genai.Client, model string) (*Generator, error) {
	cm, err := einogemini.NewChatModel(ctx, &einogemini.Config{
		Client: client,
		Model:  model,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}
	return &Generator{cm: cm}, nil
}

func (g *Generator) Generate(ctx context.Context, model string, conv chat.Conversation, cfg chat.GenerationConfig) (string, error) {
	// the chat model only sets a response type for response schemas, so
	// anything but the API's text/plain default cannot be honoured
	if cfg.ResponseMIMEType != "" && cfg.ResponseMIMEType != "text/plain" {
		return "", fmt.Errorf("unsupported response type %q", cfg.ResponseMIMEType)
	}

	ctx = einocb.ReuseHandlers(ctx, &einocb.RunInfo{
		Name:      RunName,
		Type:      g.cm.GetType(),
		Component: components.ComponentOfChatModel,
	})
	msg, err := g.cm.Generate(ctx, toMessages(conv), toOptions(model, cfg)...)
	if err != nil {
		return "", err
	}
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		u := msg.ResponseMeta.Usage
		_, _, cost := ComputeCost(u, ResolvePricing(model))
		logx.Debug().
			Str("model", model).
			Int("prompt_tokens", u.PromptTokens).
			Int("completion_tokens", u.CompletionTokens).
			Float64("cost_usd", cost).
			Msg("generation usage")
	}
	return messageText(msg), nil
}

// toMessages maps each turn to one message whose parts are the document
// followed by the text.
func toMessages(conv chat.Conversation) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(conv.Turns))
	for _, turn := range conv.Turns {
		parts := make([]schema.ChatMessagePart, 0, 2)
		if turn.Document != nil {
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeFileURL,
				FileURL: &schema.ChatMessageFileURL{
					URI:      turn.Document.URI(),
					MIMEType: turn.Document.MIMEType(),
					Name:     turn.Document.Name(),
				},
			})
		}
		if turn.Text != "" {
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeText,
				Text: turn.Text,
			})
		}
		msgs = append(msgs, &schema.Message{
			Role:         toRole(turn.Role),
			MultiContent: parts,
		})
	}
	return msgs
}

func toRole(r chat.Role) schema.RoleType {
	if r == chat.RoleModel {
		return schema.Assistant
	}
	return schema.User
}

func toOptions(model string, cfg chat.GenerationConfig) []einomodel.Option {
	opts := []einomodel.Option{
		einomodel.WithTemperature(cfg.Temperature),
		einomodel.WithTopP(cfg.TopP),
		einomodel.WithMaxTokens(int(cfg.MaxOutputTokens)),
		einogemini.WithTopK(int32(cfg.TopK)),
	}
	if model != "" {
		opts = append(opts, einomodel.WithModel(model))
	}
	return opts
}

// messageText joins the text parts of a reply; the chat model only fills
// Content when the candidate has a single text part.
func messageText(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Content != "" || len(msg.MultiContent) == 0 {
		return msg.Content
	}
	var sb strings.Builder
	for _, p := range msg.MultiContent {
		if p.Type == schema.ChatMessagePartTypeText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

var _ chat.Generator = (*Generator)(nil)
