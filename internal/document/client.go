package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	errx "github.com/pdf-summarizer/server/internal/core/error"
	"github.com/pdf-summarizer/server/internal/metrics"
	logx "github.com/pdf-summarizer/server/pkg/logger"
)

// FileStore is the remote document store: one call to submit bytes, one to
// read back the state of a submitted file.
type FileStore interface {
	Upload(ctx context.Context, path, mimeType string) (*Handle, error)
	Get(ctx context.Context, name string) (*Handle, error)
}

// Sleeper suspends the calling flow for d, returning early with ctx.Err()
// when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Client uploads a local file and waits for the remote service to finish
// processing it.
type Client struct {
	store FileStore
	cfg   PollConfig
	sleep Sleeper
	now   func() time.Time
}

type Option func(*Client)

// WithSleeper replaces the timer-based sleep between state queries.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// WithClock replaces time.Now when evaluating the poll timeout.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(store FileStore, cfg PollConfig, opts ...Option) *Client {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	c := &Client{
		store: store,
		cfg:   cfg,
		sleep: sleepContext,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit uploads the file at path with the declared media type. The returned
// handle starts out pending.
func (c *Client) Submit(ctx context.Context, path, mimeType string) (*Handle, error) {
	h, err := c.store.Upload(ctx, path, mimeType)
	if err != nil {
		logx.Error().Err(err).Str("path", path).Str("mime", mimeType).Msg("file upload rejected")
		return nil, &errx.TransferError{Path: path, MIMEType: mimeType, Err: err}
	}
	if h == nil || h.Name == "" {
		return nil, &errx.TransferError{Path: path, MIMEType: mimeType, Err: errors.New("store returned no file handle")}
	}
	logx.Info().Str("display_name", h.DisplayName).Str("uri", h.URI).Msg("uploaded file")
	return h, nil
}

// AwaitActive queries the state of h until it is terminal, sleeping the poll
// interval after every pending observation. It returns an activated handle
// when the file becomes active and a *errx.ProcessingFailedError naming the
// file otherwise.
func (c *Client) AwaitActive(ctx context.Context, h *Handle) (*ActivatedHandle, error) {
	if h == nil || h.Name == "" {
		return nil, errors.New("await active: nil file handle")
	}

	var deadline time.Time
	if c.cfg.Timeout > 0 {
		deadline = c.now().Add(c.cfg.Timeout)
	}

	logx.Info().Str("file", h.Name).Dur("interval", c.cfg.Interval).Msg("waiting for file processing")
	queries := 0
	defer func() { metrics.ObservePollCycles(queries) }()

	for {
		cur, err := c.store.Get(ctx, h.Name)
		queries++
		if err != nil {
			logx.Error().Err(err).Str("file", h.Name).Msg("file state query failed")
			return nil, fmt.Errorf("query state of %s: %w", h.Name, err)
		}
		if cur == nil {
			return nil, fmt.Errorf("query state of %s: empty response", h.Name)
		}

		switch cur.State {
		case StateActive:
			logx.Info().Str("file", h.Name).Int("queries", queries).Msg("file ready")
			return &ActivatedHandle{handle: merge(*h, *cur)}, nil
		case StatePending:
		default:
			logx.Warn().Str("file", h.Name).Str("state", string(cur.State)).Str("reason", cur.Reason).Msg("file failed to process")
			return nil, &errx.ProcessingFailedError{Name: h.Name, Reason: cur.Reason}
		}

		if !deadline.IsZero() && !c.now().Before(deadline) {
			logx.Warn().Str("file", h.Name).Dur("timeout", c.cfg.Timeout).Msg("file still processing at poll deadline")
			return nil, fmt.Errorf("file %s: %w", h.Name, errx.ErrPollTimeout)
		}

		logx.Debug().Str("file", h.Name).Int("queries", queries).Msg(".")
		if err := c.sleep(ctx, c.cfg.Interval); err != nil {
			return nil, fmt.Errorf("wait for %s: %w", h.Name, err)
		}
	}
}

// merge keeps the identifier of the submitted handle and fills fields the
// state query left empty.
func merge(submitted, observed Handle) Handle {
	out := observed
	out.Name = submitted.Name
	if out.DisplayName == "" {
		out.DisplayName = submitted.DisplayName
	}
	if out.URI == "" {
		out.URI = submitted.URI
	}
	if out.MIMEType == "" {
		out.MIMEType = submitted.MIMEType
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
