package summarizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	errx "github.com/pdf-summarizer/server/internal/core/error"
	"github.com/pdf-summarizer/server/internal/document"
	"github.com/pdf-summarizer/server/internal/metrics"
	logx "github.com/pdf-summarizer/server/pkg/logger"
)

// Stage names, used as chain node names and metric labels.
const (
	StageSave   = "save"
	StageSubmit = "submit"
	StageAwait  = "await_active"
	StageInvoke = "invoke"
)

// Summarizer runs save → submit → await active → invoke for one upload at a
// time.
type Summarizer struct {
	cfg      Config
	uploader Uploader
	invoker  Invoker
	runnable compose.Runnable[*Request, *Result]

	// one-slot semaphore; one user action completes before the next starts
	slot chan struct{}
}

// New compiles the run chain.
func New(ctx context.Context, cfg Config, uploader Uploader, invoker Invoker) (*Summarizer, error) {
	if uploader == nil || invoker == nil {
		return nil, errors.New("uploader and invoker are required")
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}
	if strings.TrimSpace(cfg.DefaultPrompt) == "" {
		cfg.DefaultPrompt = DefaultPrompt
	}

	s := &Summarizer{
		cfg:      cfg,
		uploader: uploader,
		invoker:  invoker,
		slot:     make(chan struct{}, 1),
	}

	chain := compose.NewChain[*Request, *Result]()
	chain.
		AppendLambda(compose.InvokableLambda(s.save), compose.WithNodeName(StageSave)).
		AppendLambda(compose.InvokableLambda(s.submit), compose.WithNodeName(StageSubmit)).
		AppendLambda(compose.InvokableLambda(s.awaitActive), compose.WithNodeName(StageAwait)).
		AppendLambda(compose.InvokableLambda(s.invoke), compose.WithNodeName(StageInvoke))

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile summarize chain: %w", err)
	}
	s.runnable = runnable

	logx.Debug().Str("upload_dir", cfg.UploadDir).Msg("summarize chain built successfully")
	return s, nil
}

// Summarize runs one request to completion. A request without file data
// fails with errx.ErrNoFile before any remote call. A request waiting for
// an earlier run gives up when ctx is done.
func (s *Summarizer) Summarize(ctx context.Context, req Request) (*Result, error) {
	if len(req.Data) == 0 {
		metrics.IncRun("no_file")
		return nil, errx.ErrNoFile
	}

	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		metrics.IncRun(resultLabel(ctx.Err()))
		logx.Warn().Err(ctx.Err()).Str("file", req.FileName).Msg("gave up waiting for previous run")
		return nil, ctx.Err()
	}
	defer func() { <-s.slot }()

	tr := &trace{}
	ctx = withTrace(ctx, tr)
	defer tr.cleanup()

	out, err := s.runnable.Invoke(ctx, &req, compose.WithCallbacks(newStageObserver()))
	if err != nil {
		// prefer the typed error recorded by the failing stage over the
		// chain's wrapped one
		if tr.err != nil {
			err = tr.err
		}
		metrics.IncRun(resultLabel(err))
		logx.Error().Err(err).Str("file", req.FileName).Msg("summarize run failed")
		return nil, err
	}
	metrics.IncRun("ok")
	return out, nil
}

func (s *Summarizer) save(ctx context.Context, req *Request) (*runState, error) {
	st := &runState{
		id:      uuid.NewString(),
		started: time.Now(),
		name:    uploadName(req.FileName),
		prompt:  req.Prompt,
	}
	if strings.TrimSpace(st.prompt) == "" {
		st.prompt = s.cfg.DefaultPrompt
	}

	dir := filepath.Join(s.cfg.UploadDir, st.id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, record(ctx, fmt.Errorf("create upload dir: %w", err))
	}
	traceFrom(ctx).dir = dir

	st.path = filepath.Join(dir, st.name)
	if err := os.WriteFile(st.path, req.Data, 0o600); err != nil {
		return nil, record(ctx, fmt.Errorf("save upload: %w", err))
	}

	pages, err := pageCount(st.path)
	if err != nil {
		logx.Warn().Err(err).Str("file", st.name).Msg("could not count pdf pages")
	}
	st.pages = pages

	logx.Info().Str("run", st.id).Str("file", st.name).Int("bytes", len(req.Data)).Int("pages", pages).Msg("upload saved")
	return st, nil
}

func (s *Summarizer) submit(ctx context.Context, st *runState) (*runState, error) {
	h, err := s.uploader.Submit(ctx, st.path, document.MediaTypePDF)
	if err != nil {
		return nil, record(ctx, err)
	}
	st.handle = h
	return st, nil
}

func (s *Summarizer) awaitActive(ctx context.Context, st *runState) (*runState, error) {
	act, err := s.uploader.AwaitActive(ctx, st.handle)
	if err != nil {
		return nil, record(ctx, err)
	}
	st.active = act
	return st, nil
}

func (s *Summarizer) invoke(ctx context.Context, st *runState) (*Result, error) {
	text, err := s.invoker.Invoke(ctx, st.active, st.prompt)
	if err != nil {
		return nil, record(ctx, err)
	}
	res := &Result{
		RunID:    st.id,
		FileName: st.name,
		FileID:   st.active.Name(),
		Pages:    st.pages,
		Prompt:   st.prompt,
		Text:     text,
		Elapsed:  time.Since(st.started),
	}
	logx.Info().Str("run", st.id).Str("file_id", res.FileID).Dur("elapsed", res.Elapsed).Msg("summarize run complete")
	return res, nil
}

// uploadName keeps only the base name of a client-supplied file name.
func uploadName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload.pdf"
	}
	return name
}

func pageCount(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu: %v", r)
		}
	}()
	return api.PageCountFile(path)
}

func resultLabel(err error) string {
	var (
		transferErr   *errx.TransferError
		processingErr *errx.ProcessingFailedError
		generationErr *errx.GenerationError
	)
	switch {
	case errors.As(err, &transferErr):
		return "transfer"
	case errors.As(err, &processingErr):
		return "processing_failed"
	case errors.Is(err, errx.ErrPollTimeout):
		return "timeout"
	case errors.As(err, &generationErr):
		return "generation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

// trace carries per-run bookkeeping through the chain context.
type trace struct {
	dir string
	err error
}

type traceKey struct{}

func withTrace(ctx context.Context, tr *trace) context.Context {
	return context.WithValue(ctx, traceKey{}, tr)
}

func traceFrom(ctx context.Context) *trace {
	if tr, ok := ctx.Value(traceKey{}).(*trace); ok {
		return tr
	}
	return &trace{}
}

// record stores the first stage error of the run and returns it.
func record(ctx context.Context, err error) error {
	if tr := traceFrom(ctx); tr.err == nil {
		tr.err = err
	}
	return err
}

func (t *trace) cleanup() {
	if t.dir == "" {
		return
	}
	if err := os.RemoveAll(t.dir); err != nil {
		logx.Warn().Err(err).Str("dir", t.dir).Msg("failed to remove upload dir")
	}
}
