package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/pdf-summarizer/server/internal/chat"
	"github.com/pdf-summarizer/server/internal/core"
	"github.com/pdf-summarizer/server/internal/document"
	"github.com/pdf-summarizer/server/internal/gemini"
	"github.com/pdf-summarizer/server/internal/metrics"
	"github.com/pdf-summarizer/server/internal/summarizer"
	"github.com/pdf-summarizer/server/internal/web"
	logx "github.com/pdf-summarizer/server/pkg/logger"
)

// AppConfig defines all configurable parameters of the summarizer, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// LLM provider
	Gemini gemini.Config

	Poll   document.PollConfig
	HTTP   web.Config
	Logger logx.LoggerOpts
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("could not load .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}

	env := core.ParseEnvironment(cfg.Environment)
	cfg.Logger.Environment = env
	logx.Init(cfg.Logger)
	metrics.Init()

	if cfg.Poll.Interval <= 0 {
		logx.Fatal().Dur("interval", cfg.Poll.Interval).Msg("POLL_INTERVAL must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := gemini.NewClient(ctx, cfg.Gemini)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise Gemini client")
	}

	uploader := document.NewClient(gemini.NewFileStore(client), cfg.Poll)
	gen, err := gemini.NewGenerator(ctx, client, cfg.Gemini.Model)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise chat model")
	}
	invoker := chat.NewInvoker(gen, cfg.Gemini.Model)

	sum, err := summarizer.New(ctx, summarizer.Config{
		UploadDir:     cfg.HTTP.UploadDir,
		DefaultPrompt: cfg.HTTP.DefaultPrompt,
	}, uploader, invoker)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build summarizer")
	}

	gin.SetMode(env.GinMode())
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	web.NewHandler(sum, cfg.HTTP).RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logx.Info().
			Str("addr", cfg.HTTP.Addr).
			Str("model", cfg.Gemini.Model).
			Str("environment", env.String()).
			Msg("summarizer listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("graceful shutdown failed")
	}
	logx.Info().Msg("summarizer stopped")
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logx.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
