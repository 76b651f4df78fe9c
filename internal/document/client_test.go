package document

import (
	"context"
	"errors"
	"testing"
	"time"

	errx "github.com/pdf-summarizer/server/internal/core/error"
)

type scriptedStore struct {
	uploadErr error
	uploaded  []string
	states    []State
	queried   []string
}

func (s *scriptedStore) Upload(_ context.Context, path, mimeType string) (*Handle, error) {
	s.uploaded = append(s.uploaded, path)
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return &Handle{
		Name:        "files/abc123",
		DisplayName: "report.pdf",
		URI:         "https://generativelanguage.googleapis.com/v1beta/files/abc123",
		MIMEType:    mimeType,
		State:       StatePending,
	}, nil
}

func (s *scriptedStore) Get(_ context.Context, name string) (*Handle, error) {
	s.queried = append(s.queried, name)
	i := len(s.queried) - 1
	if i >= len(s.states) {
		i = len(s.states) - 1
	}
	return &Handle{Name: name, State: s.states[i]}, nil
}

type sleepRecorder struct {
	calls []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return nil
}

func newTestClient(store FileStore, rec *sleepRecorder) *Client {
	return NewClient(store, PollConfig{Interval: 10 * time.Second}, WithSleeper(rec.sleep))
}

func TestSubmitReturnsPendingHandle(t *testing.T) {
	store := &scriptedStore{states: []State{StateActive}}
	c := newTestClient(store, &sleepRecorder{})

	h, err := c.Submit(context.Background(), "/tmp/report.pdf", MediaTypePDF)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if h.Name != "files/abc123" || h.State != StatePending {
		t.Fatalf("unexpected handle %+v", h)
	}
	if len(store.uploaded) != 1 || store.uploaded[0] != "/tmp/report.pdf" {
		t.Fatalf("unexpected uploads %v", store.uploaded)
	}
}

func TestSubmitRejectedIsTransferError(t *testing.T) {
	store := &scriptedStore{uploadErr: errors.New("400 unsupported mime type")}
	c := newTestClient(store, &sleepRecorder{})

	_, err := c.Submit(context.Background(), "/tmp/report.pdf", "text/x-nope")
	var transferErr *errx.TransferError
	if !errors.As(err, &transferErr) {
		t.Fatalf("expected TransferError, got %v", err)
	}
	if transferErr.MIMEType != "text/x-nope" {
		t.Fatalf("transfer error lost media type: %+v", transferErr)
	}
}

func TestAwaitActiveImmediatelyActive(t *testing.T) {
	store := &scriptedStore{states: []State{StateActive}}
	rec := &sleepRecorder{}
	c := newTestClient(store, rec)

	h, _ := c.Submit(context.Background(), "report.pdf", MediaTypePDF)
	act, err := c.AwaitActive(context.Background(), h)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("expected no sleeps, got %v", rec.calls)
	}
	if len(store.queried) != 1 {
		t.Fatalf("expected one state query, got %d", len(store.queried))
	}
	if act.Name() != h.Name || act.URI() != h.URI || act.MIMEType() != MediaTypePDF {
		t.Fatalf("activated handle lost fields: %+v", act)
	}
}

func TestAwaitActivePendingThenActiveSleepsOnce(t *testing.T) {
	store := &scriptedStore{states: []State{StatePending, StateActive}}
	rec := &sleepRecorder{}
	c := newTestClient(store, rec)

	h, _ := c.Submit(context.Background(), "report.pdf", MediaTypePDF)
	if _, err := c.AwaitActive(context.Background(), h); err != nil {
		t.Fatalf("await: %v", err)
	}
	if len(rec.calls) != 1 || rec.calls[0] != 10*time.Second {
		t.Fatalf("expected exactly one 10s sleep, got %v", rec.calls)
	}
	if len(store.queried) != 2 {
		t.Fatalf("expected two state queries, got %d", len(store.queried))
	}
}

func TestAwaitActiveSleepsOncePerPendingObservation(t *testing.T) {
	store := &scriptedStore{states: []State{StatePending, StatePending, StatePending, StatePending, StateActive}}
	rec := &sleepRecorder{}
	c := newTestClient(store, rec)

	h, _ := c.Submit(context.Background(), "report.pdf", MediaTypePDF)
	if _, err := c.AwaitActive(context.Background(), h); err != nil {
		t.Fatalf("await: %v", err)
	}
	if len(rec.calls) != 4 {
		t.Fatalf("expected 4 sleeps, got %d", len(rec.calls))
	}
	if len(store.queried) != len(rec.calls)+1 {
		t.Fatalf("queries %d should be sleeps %d + 1", len(store.queried), len(rec.calls))
	}
	for _, name := range store.queried {
		if name != h.Name {
			t.Fatalf("queried %q, want stable identifier %q", name, h.Name)
		}
	}
}

func TestAwaitActiveFailedCarriesIdentifier(t *testing.T) {
	store := &scriptedStore{states: []State{StateFailed}}
	rec := &sleepRecorder{}
	c := newTestClient(store, rec)

	h, _ := c.Submit(context.Background(), "report.pdf", MediaTypePDF)
	act, err := c.AwaitActive(context.Background(), h)
	if act != nil {
		t.Fatalf("expected no handle on failure")
	}
	var failed *errx.ProcessingFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected ProcessingFailedError, got %v", err)
	}
	if failed.Name != h.Name {
		t.Fatalf("failure names %q, want %q", failed.Name, h.Name)
	}
	if len(rec.calls) != 0 || len(store.queried) != 1 {
		t.Fatalf("failure must not be retried: sleeps=%d queries=%d", len(rec.calls), len(store.queried))
	}
}

func TestAwaitActivePendingThenFailed(t *testing.T) {
	store := &scriptedStore{states: []State{StatePending, StatePending, StateFailed}}
	rec := &sleepRecorder{}
	c := newTestClient(store, rec)

	h, _ := c.Submit(context.Background(), "report.pdf", MediaTypePDF)
	_, err := c.AwaitActive(context.Background(), h)
	var failed *errx.ProcessingFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected ProcessingFailedError, got %v", err)
	}
	if len(rec.calls) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(rec.calls))
	}
}

func TestAwaitActiveTimeout(t *testing.T) {
	store := &scriptedStore{states: []State{StatePending}}
	now := time.Unix(0, 0)
	c := NewClient(store, PollConfig{Interval: 10 * time.Second, Timeout: 25 * time.Second},
		WithClock(func() time.Time { return now }),
		WithSleeper(func(_ context.Context, d time.Duration) error {
			now = now.Add(d)
			return nil
		}),
	)

	h, _ := c.Submit(context.Background(), "report.pdf", MediaTypePDF)
	_, err := c.AwaitActive(context.Background(), h)
	if !errors.Is(err, errx.ErrPollTimeout) {
		t.Fatalf("expected poll timeout, got %v", err)
	}
	if len(store.queried) != 4 {
		t.Fatalf("expected 4 queries before the deadline, got %d", len(store.queried))
	}
}

func TestAwaitActiveStopsOnCancel(t *testing.T) {
	store := &scriptedStore{states: []State{StatePending}}
	c := NewClient(store, PollConfig{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h, _ := c.Submit(context.Background(), "report.pdf", MediaTypePDF)
	_, err := c.AwaitActive(ctx, h)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewClientDefaultsInterval(t *testing.T) {
	c := NewClient(&scriptedStore{}, PollConfig{})
	if c.cfg.Interval != DefaultPollInterval {
		t.Fatalf("interval = %v, want %v", c.cfg.Interval, DefaultPollInterval)
	}
}

func TestActivatedRequiresActiveState(t *testing.T) {
	if _, err := Activated(Handle{Name: "files/x", State: StatePending}); err == nil {
		t.Fatalf("expected error for pending handle")
	}
	a, err := Activated(Handle{Name: "files/x", State: StateActive})
	if err != nil || a.Name() != "files/x" {
		t.Fatalf("unexpected result %v %v", a, err)
	}
}
