package chat

import "github.com/pdf-summarizer/server/internal/document"

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of a conversation. A turn may reference an activated
// document, carry text, or both.
type Turn struct {
	Role     Role
	Document *document.ActivatedHandle
	Text     string
}

// Conversation is the ordered list of turns sent with one generation request.
type Conversation struct {
	Turns []Turn
}

// GenerationConfig is the sampling and length configuration of a request.
type GenerationConfig struct {
	Temperature      float32
	TopP             float32
	TopK             float32
	MaxOutputTokens  int32
	ResponseMIMEType string
}

// DefaultGenerationConfig is the fixed configuration every invocation uses.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:      1,
		TopP:             0.95,
		TopK:             40,
		MaxOutputTokens:  8192,
		ResponseMIMEType: "text/plain",
	}
}
