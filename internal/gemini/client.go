package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logx "github.com/pdf-summarizer/server/pkg/logger"
	"google.golang.org/genai"
)

// Config is the Gemini API connection read once at startup.
type Config struct {
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`
	Model   string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
}

// Validate fails fast on a configuration no API call could succeed with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("GEMINI_API_KEY is empty")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("GEMINI_MODEL is empty")
	}
	return nil
}

// NewClient creates the genai client shared by the file store and the generator.
func NewClient(ctx context.Context, cfg Config) (*genai.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}
