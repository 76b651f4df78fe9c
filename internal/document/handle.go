package document

import (
	"fmt"
	"time"
)

// State is the processing state the remote service reports for an uploaded file.
type State string

const (
	StatePending State = "PENDING"
	StateActive  State = "ACTIVE"
	StateFailed  State = "FAILED"
)

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	return s == StateActive || s == StateFailed
}

// MediaTypePDF is the only media type the summarizer submits.
const MediaTypePDF = "application/pdf"

// Handle is the remote reference returned by an upload. Name is the opaque
// identifier used for state queries.
type Handle struct {
	Name        string
	DisplayName string
	URI         string
	MIMEType    string
	State       State
	// Reason carries the remote error message when State is StateFailed.
	Reason string
}

// ActivatedHandle is a handle that has been observed in StateActive.
type ActivatedHandle struct {
	handle Handle
}

// Activated wraps h, which must already be in StateActive.
func Activated(h Handle) (*ActivatedHandle, error) {
	if h.State != StateActive {
		return nil, fmt.Errorf("file %s is %s, not %s", h.Name, h.State, StateActive)
	}
	return &ActivatedHandle{handle: h}, nil
}

func (a *ActivatedHandle) Name() string        { return a.handle.Name }
func (a *ActivatedHandle) DisplayName() string { return a.handle.DisplayName }
func (a *ActivatedHandle) URI() string         { return a.handle.URI }
func (a *ActivatedHandle) MIMEType() string    { return a.handle.MIMEType }

// PollConfig controls the activation wait.
type PollConfig struct {
	Interval time.Duration `envconfig:"POLL_INTERVAL" default:"10s"`
	// Timeout bounds the whole wait. Zero waits until a terminal state.
	Timeout time.Duration `envconfig:"POLL_TIMEOUT" default:"0"`
}

// DefaultPollInterval is the fixed delay between state queries.
const DefaultPollInterval = 10 * time.Second
