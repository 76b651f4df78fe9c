package web

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	errx "github.com/pdf-summarizer/server/internal/core/error"
	"github.com/pdf-summarizer/server/internal/document"
	"github.com/pdf-summarizer/server/internal/metrics"
	"github.com/pdf-summarizer/server/internal/summarizer"
	logx "github.com/pdf-summarizer/server/pkg/logger"
)

//go:embed templates/index.html
var indexHTML string

var pageTemplate = template.Must(template.New("index.html").Parse(indexHTML))

const pageTitle = "Gemini OCR Summarizer"

// Config holds the HTTP surface settings.
type Config struct {
	Addr          string `envconfig:"HTTP_ADDR" default:":8080"`
	UploadDir     string `envconfig:"UPLOAD_DIR"`
	MaxUploadMB   int64  `envconfig:"UPLOAD_MAX_MB" default:"20"`
	DefaultPrompt string `envconfig:"DEFAULT_PROMPT" default:"Summarize it"`
}

// Summarizer runs one upload-and-summarize action.
type Summarizer interface {
	Summarize(ctx context.Context, req summarizer.Request) (*summarizer.Result, error)
}

// Handler wires the upload form and its JSON twin to a Summarizer.
type Handler struct {
	sum      Summarizer
	prompt   string
	maxBytes int64
}

func NewHandler(sum Summarizer, cfg Config) *Handler {
	prompt := cfg.DefaultPrompt
	if strings.TrimSpace(prompt) == "" {
		prompt = summarizer.DefaultPrompt
	}
	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 20
	}
	return &Handler{
		sum:      sum,
		prompt:   prompt,
		maxBytes: maxMB << 20,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(pageTemplate)
	router.GET("/", h.index)
	router.POST("/summarize", h.summarizeForm)
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	api.POST("/summarize", h.summarizeJSON)
}

type pageData struct {
	Title   string
	Prompt  string
	Warning string
	Error   string
	Result  *summarizer.Result
}

func (h *Handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", pageData{Title: pageTitle, Prompt: h.prompt})
}

func (h *Handler) summarizeForm(c *gin.Context) {
	req, err := h.readUpload(c)
	data := pageData{Title: pageTitle, Prompt: req.Prompt}
	if data.Prompt == "" {
		data.Prompt = h.prompt
	}
	if err != nil {
		h.renderFailure(c, data, err)
		return
	}

	res, err := h.sum.Summarize(c.Request.Context(), req)
	if err != nil {
		h.renderFailure(c, data, err)
		return
	}
	data.Result = res
	c.HTML(http.StatusOK, "index.html", data)
}

func (h *Handler) renderFailure(c *gin.Context, data pageData, err error) {
	appErr := errx.FromRun(err)
	if errors.Is(err, errx.ErrNoFile) || errors.Is(err, errx.ErrUnsupportedMedia) {
		data.Warning = appErr.Message
	} else {
		data.Error = appErr.Message
	}
	c.HTML(appErr.Status, "index.html", data)
}

func (h *Handler) summarizeJSON(c *gin.Context) {
	req, err := h.readUpload(c)
	if err != nil {
		appErr := errx.FromRun(err)
		c.JSON(appErr.Status, gin.H{"error": appErr.Message})
		return
	}
	res, err := h.sum.Summarize(c.Request.Context(), req)
	if err != nil {
		appErr := errx.FromRun(err)
		c.JSON(appErr.Status, gin.H{"error": appErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":     res.RunID,
		"file_name":  res.FileName,
		"file_id":    res.FileID,
		"pages":      res.Pages,
		"prompt":     res.Prompt,
		"text":       res.Text,
		"elapsed_ms": res.Elapsed.Milliseconds(),
	})
}

// readUpload extracts the prompt and the PDF from the multipart form. A
// missing or empty file yields errx.ErrNoFile; anything that is not a PDF
// by content yields errx.ErrUnsupportedMedia.
func (h *Handler) readUpload(c *gin.Context) (summarizer.Request, error) {
	req := summarizer.Request{Prompt: strings.TrimSpace(c.PostForm("prompt"))}
	if req.Prompt == "" {
		req.Prompt = h.prompt
	}

	fh, err := c.FormFile("file")
	if err != nil {
		logx.Warn().Err(err).Msg("summarize requested without a file")
		return req, errx.ErrNoFile
	}
	if fh.Size > h.maxBytes {
		return req, errx.New(nil, http.StatusRequestEntityTooLarge, fmt.Sprintf("file too large (max %d MB)", h.maxBytes>>20))
	}

	f, err := fh.Open()
	if err != nil {
		return req, errx.New(err, http.StatusBadRequest, "open file failed")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		return req, errx.New(err, http.StatusBadRequest, "read file failed")
	}
	if len(data) == 0 {
		return req, errx.ErrNoFile
	}

	mt := mimetype.Detect(data)
	if !mt.Is(document.MediaTypePDF) {
		logx.Warn().Str("file", fh.Filename).Str("mime", mt.String()).Msg("rejected non-pdf upload")
		return req, fmt.Errorf("%s is %s: %w", fh.Filename, mt.String(), errx.ErrUnsupportedMedia)
	}

	req.FileName = fh.Filename
	req.Data = data
	return req, nil
}
