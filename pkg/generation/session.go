package generation

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type SessionKind string

const (
	KindGenerate   SessionKind = "generate"
	KindRegenerate SessionKind = "regenerate"
	KindContinue   SessionKind = "continue"
)

// Session is the ephemeral state of one in-flight generation. It is created
// when generate/regenerate/continue begins and destroyed when the stream
// ends, errors, or is cancelled. Never persisted.
type Session struct {
	ID              uuid.UUID
	Kind            SessionKind
	TargetMessageID uuid.UUID
	StartedAt       time.Time

	cancel   context.CancelFunc
	watchdog *Watchdog

	// produced counts content bytes flushed during this session; it decides
	// the aborted flag on cancellation.
	produced atomic.Int64
}

func newSession(kind SessionKind, targetID uuid.UUID, cancel context.CancelFunc) *Session {
	return &Session{
		ID:              uuid.New(),
		Kind:            kind,
		TargetMessageID: targetID,
		StartedAt:       time.Now(),
		cancel:          cancel,
	}
}

// Cancel cooperatively aborts the session. Idempotent.
func (s *Session) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}
