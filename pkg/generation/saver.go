package generation

import (
	"context"
	"sync"
	"time"

	"ai-roleplay-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// DefaultSaveQuiet is the quiet period for streaming-driven saves.
const DefaultSaveQuiet = 500 * time.Millisecond

// SaveRequest is one pending durable write. A newer request supersedes an
// older pending one; they are never queued.
type SaveRequest struct {
	CharacterID uuid.UUID
	ChatID      uuid.UUID
	Messages    []Message
	Persona     string
	APIInfo     string
}

// Saver debounces chat writes to the persistence collaborator. Streaming
// chunks and rapid edits funnel through Request; discrete user-intentional
// actions (delete, variation commit, completed edit) go through Commit,
// which writes immediately and appends to the session log.
//
// The Saver is the sole writer to durable storage for the engine and
// serializes its own writes. Save failures are logged, never surfaced;
// in-memory state stays intact and the next trigger carries newer state.
type Saver struct {
	quiet time.Duration
	store ChatStore
	log   logger.ILogger

	mu      sync.Mutex
	timer   *time.Timer
	pending *SaveRequest

	writeMu sync.Mutex
}

func NewSaver(quiet time.Duration, store ChatStore, log logger.ILogger) *Saver {
	if quiet <= 0 {
		quiet = DefaultSaveQuiet
	}
	return &Saver{
		quiet: quiet,
		store: store,
		log:   log,
	}
}

// Request schedules a debounced write. The quiet-period timer restarts and
// any earlier pending request within the period is discarded.
func (s *Saver) Request(req SaveRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = &req
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.quiet, s.fire)
}

func (s *Saver) fire() {
	s.mu.Lock()
	req := s.pending
	s.pending = nil
	s.mu.Unlock()

	if req == nil {
		return
	}
	s.write(context.Background(), req)
}

// Commit bypasses the debounce: the chat is written immediately and message
// is appended to the external session log. Any pending debounced write is
// superseded by this newer state.
func (s *Saver) Commit(ctx context.Context, req SaveRequest, message Message) {
	s.mu.Lock()
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.write(ctx, &req)

	if err := s.store.AppendMessage(ctx, req.CharacterID, req.ChatID, message); err != nil {
		s.log.Warn("Saver", "Failed to append to session log", map[string]interface{}{
			"chat_id": req.ChatID,
			"error":   err.Error(),
		})
	}
}

// Flush writes any pending state immediately, used on shutdown.
func (s *Saver) Flush(ctx context.Context) {
	s.mu.Lock()
	req := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if req != nil {
		s.write(ctx, req)
	}
}

func (s *Saver) write(ctx context.Context, req *SaveRequest) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.store.SaveChat(ctx, req.CharacterID, req.ChatID, req.Messages, req.Persona, req.APIInfo)
	if err != nil {
		s.log.Warn("Saver", "Chat save failed, will retry on next trigger", map[string]interface{}{
			"chat_id": req.ChatID,
			"error":   err.Error(),
		})
		return
	}

	s.log.Debug("Saver", "Chat saved", map[string]interface{}{
		"chat_id":  req.ChatID,
		"messages": len(req.Messages),
	})
}
