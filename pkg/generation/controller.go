package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sync"

	"ai-roleplay-be/internal/pkg/logger"
	"ai-roleplay-be/pkg/llm"

	"github.com/google/uuid"
)

// continueInstruction is appended as a system turn when continuing an
// assistant message.
const continueInstruction = "Continue the response from where it left off, without repeating or restarting."

// Timings groups the engine's scheduling parameters. Tests compress them.
type Timings struct {
	FlushInterval  time.Duration
	FlushThreshold int
	Watchdog       WatchdogTimings
}

func DefaultTimings() Timings {
	return Timings{
		FlushInterval:  DefaultFlushInterval,
		FlushThreshold: DefaultFlushThreshold,
		Watchdog:       DefaultWatchdogTimings(),
	}
}

// Deps are the collaborators a Controller needs, injected at construction.
type Deps struct {
	Config    ConfigProvider
	Providers ProviderFactory
	Saver     *Saver
	Notifier  Notifier
	Logger    logger.ILogger
	Timings   Timings
}

// Controller drives generation for one conversation. It owns the in-memory
// message list, enforces the single-in-flight invariant, and is the only
// component that opens sessions against the backend.
type Controller struct {
	chatID      uuid.UUID
	characterID uuid.UUID
	persona     string

	config    ConfigProvider
	providers ProviderFactory
	saver     *Saver
	notifier  Notifier
	log       logger.ILogger
	timings   Timings

	mu       sync.Mutex
	messages []*Message
	active   *Session
	snapshot *Snapshot
	apiInfo  string
}

// NewController builds a controller for one chat. persona is the roleplay
// name user turns are attributed to when the chat persists, not an account
// identity.
func NewController(chatID, characterID uuid.UUID, persona string, messages []Message, deps Deps) *Controller {
	list := make([]*Message, len(messages))
	for i := range messages {
		m := messages[i].Clone()
		list[i] = &m
	}

	timings := deps.Timings
	if timings.FlushInterval == 0 {
		timings = DefaultTimings()
	}

	return &Controller{
		chatID:      chatID,
		characterID: characterID,
		persona:     persona,
		config:      deps.Config,
		providers:   deps.Providers,
		saver:       deps.Saver,
		notifier:    deps.Notifier,
		log:         deps.Logger,
		timings:     timings,
		messages:    list,
	}
}

// Messages returns a copy of the current message list.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneMessages(c.messages)
}

// Active reports whether a session is in flight.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Snapshot returns a copy of the last context-window snapshot, or nil if no
// session has run yet.
func (c *Controller) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return nil
	}
	s := *c.snapshot
	s.History = append([]llm.Message(nil), c.snapshot.History...)
	return &s
}

// Generate appends a user turn for prompt, creates a streaming assistant
// slot, and opens a session. Rejected when a session is already active or no
// backend is configured.
func (c *Controller) Generate(ctx context.Context, prompt string) (uuid.UUID, error) {
	cfg, err := c.resolveBackend(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return uuid.Nil, ErrSessionActive
	}

	now := time.Now()
	userMsg := &Message{
		ID:        uuid.New(),
		Role:      RoleUser,
		Content:   prompt,
		Timestamp: now,
		Status:    StatusComplete,
	}
	target := &Message{
		ID:        uuid.New(),
		Role:      RoleAssistant,
		Timestamp: now,
		Status:    StatusStreaming,
	}
	c.messages = append(c.messages, userMsg, target)

	history := c.historyLocked(len(c.messages) - 1)
	c.startSessionLocked(KindGenerate, target, prompt, history, cfg)
	c.mu.Unlock()

	return target.ID, nil
}

// Regenerate re-runs the conversation up to (but not including) the target
// assistant message; the preceding user turn drives the completion. The
// result is appended as a new variation rather than replacing history.
func (c *Controller) Regenerate(ctx context.Context, messageID uuid.UUID) error {
	cfg, err := c.resolveBackend(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return ErrSessionActive
	}

	idx, msg := c.findLocked(messageID)
	if msg == nil {
		c.mu.Unlock()
		return ErrMessageNotFound
	}
	if msg.Role != RoleAssistant {
		c.mu.Unlock()
		return ErrNotAssistantMessage
	}

	// Preserve the prior text as a variation before overwriting the slot
	if msg.Content != "" {
		vs := NewVariationStore(msg.Variations, msg.CurrentVariation)
		vs.Add(msg.Content)
		msg.Variations, msg.CurrentVariation = vs.Items(), vs.Cursor()
	}
	msg.Content = ""
	msg.Status = StatusStreaming
	msg.Aborted = false
	msg.Error = ""

	history := c.historyLocked(idx)
	c.startSessionLocked(KindRegenerate, msg, lastUserPrompt(history), history, cfg)
	c.mu.Unlock()

	return nil
}

// Continue re-sends history including the target message plus a minimal
// continuation instruction; new text streams onto the end of the existing
// content, and the concatenation becomes a new variation on completion.
func (c *Controller) Continue(ctx context.Context, messageID uuid.UUID) error {
	cfg, err := c.resolveBackend(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return ErrSessionActive
	}

	idx, msg := c.findLocked(messageID)
	if msg == nil {
		c.mu.Unlock()
		return ErrMessageNotFound
	}
	if msg.Role != RoleAssistant {
		c.mu.Unlock()
		return ErrNotAssistantMessage
	}

	history := c.historyLocked(idx + 1)
	history = append(history, llm.Message{Role: string(RoleSystem), Content: continueInstruction})

	msg.Status = StatusStreaming
	msg.Aborted = false
	msg.Error = ""

	c.startSessionLocked(KindContinue, msg, continueInstruction, history, cfg)
	c.mu.Unlock()

	return nil
}

// Stop cancels the active session's token. Idempotent; a no-op when nothing
// is in flight.
func (c *Controller) Stop() {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	if active != nil {
		active.Cancel()
	}
}

// CycleVariation moves the target slot's cursor and makes the selected
// variation the displayed content. A discrete action: persisted immediately.
func (c *Controller) CycleVariation(ctx context.Context, messageID uuid.UUID, direction int) (Message, error) {
	c.mu.Lock()
	_, msg := c.findLocked(messageID)
	if msg == nil {
		c.mu.Unlock()
		return Message{}, ErrMessageNotFound
	}
	if c.active != nil && c.active.TargetMessageID == messageID {
		c.mu.Unlock()
		return Message{}, ErrSessionActive
	}

	vs := NewVariationStore(msg.Variations, msg.CurrentVariation)
	vs.Cycle(direction)
	msg.Variations, msg.CurrentVariation = vs.Items(), vs.Cursor()
	msg.Content = vs.Current()

	updated := msg.Clone()
	req := c.saveRequestLocked()
	c.mu.Unlock()

	c.saver.Commit(ctx, req, updated)
	c.notifier.Notify(StateEvent{
		ChatID:    c.chatID,
		MessageID: updated.ID,
		Status:    updated.Status,
	})

	return updated, nil
}

// Edit applies a manual text change to a message slot. When commit is true
// the edit is a completed, user-intentional write: it becomes a new
// variation and is persisted immediately. Otherwise it only updates the
// displayed content and rides the debounced save.
func (c *Controller) Edit(ctx context.Context, messageID uuid.UUID, text string, commit bool) (Message, error) {
	c.mu.Lock()
	_, msg := c.findLocked(messageID)
	if msg == nil {
		c.mu.Unlock()
		return Message{}, ErrMessageNotFound
	}
	if c.active != nil && c.active.TargetMessageID == messageID {
		c.mu.Unlock()
		return Message{}, ErrSessionActive
	}

	msg.Content = text
	if commit {
		vs := NewVariationStore(msg.Variations, msg.CurrentVariation)
		vs.Add(text)
		msg.Variations, msg.CurrentVariation = vs.Items(), vs.Cursor()
	}

	updated := msg.Clone()
	req := c.saveRequestLocked()
	c.mu.Unlock()

	if commit {
		c.saver.Commit(ctx, req, updated)
	} else {
		c.saver.Request(req)
	}

	return updated, nil
}

// DeleteMessage removes a slot from the conversation. A discrete action.
func (c *Controller) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	c.mu.Lock()
	idx, msg := c.findLocked(messageID)
	if msg == nil {
		c.mu.Unlock()
		return ErrMessageNotFound
	}
	if c.active != nil && c.active.TargetMessageID == messageID {
		c.mu.Unlock()
		return ErrSessionActive
	}

	deleted := msg.Clone()
	c.messages = append(c.messages[:idx], c.messages[idx+1:]...)
	req := c.saveRequestLocked()
	c.mu.Unlock()

	c.saver.Commit(ctx, req, deleted)
	return nil
}

// --- internals ---

func (c *Controller) resolveBackend(ctx context.Context) (*BackendConfig, error) {
	cfg, err := c.config.ActiveBackendConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve backend config: %w", err)
	}
	if cfg == nil {
		return nil, ErrNoBackend
	}
	return cfg, nil
}

func (c *Controller) findLocked(messageID uuid.UUID) (int, *Message) {
	for i, m := range c.messages {
		if m.ID == messageID {
			return i, m
		}
	}
	return -1, nil
}

// historyLocked converts messages[:end] into provider turns. Thinking turns
// stay local to the client and are skipped.
func (c *Controller) historyLocked(end int) []llm.Message {
	history := make([]llm.Message, 0, end)
	for _, m := range c.messages[:end] {
		if m.Role == RoleThinking {
			continue
		}
		history = append(history, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return history
}

func lastUserPrompt(history []llm.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == string(RoleUser) {
			return history[i].Content
		}
	}
	return ""
}

func (c *Controller) saveRequestLocked() SaveRequest {
	return SaveRequest{
		CharacterID: c.characterID,
		ChatID:      c.chatID,
		Messages:    cloneMessages(c.messages),
		Persona:     c.persona,
		APIInfo:     c.apiInfo,
	}
}

func (c *Controller) startSessionLocked(kind SessionKind, target *Message, prompt string, history []llm.Message, cfg *BackendConfig) {
	// The session outlives the HTTP request that started it
	sctx, cancel := context.WithCancel(context.Background())

	session := newSession(kind, target.ID, cancel)
	c.active = session
	c.snapshot = newSnapshot(kind, prompt, history, cfg)
	c.apiInfo = cfg.Kind + "/" + cfg.Model

	c.log.Info("Generation", "Session started", map[string]interface{}{
		"chat_id":    c.chatID,
		"session_id": session.ID,
		"kind":       string(kind),
		"backend":    cfg.Kind,
		"model":      cfg.Model,
	})

	c.notifier.Notify(StateEvent{
		ChatID:    c.chatID,
		MessageID: target.ID,
		Status:    StatusStreaming,
	})

	go c.runSession(sctx, session, cfg, history)
}

func (c *Controller) runSession(ctx context.Context, session *Session, cfg *BackendConfig, history []llm.Message) {
	defer session.Cancel()

	provider, err := c.providers(cfg)
	if err != nil {
		c.finishSession(session, fmt.Errorf("build provider: %w", err))
		return
	}

	buffer := NewUpdateBuffer(c.timings.FlushInterval, c.timings.FlushThreshold, func(text string) {
		c.applyFlush(session, text)
	})
	watchdog := NewWatchdog(c.timings.Watchdog, c.Stop, session.Cancel)
	session.watchdog = watchdog

	opts := []llm.Option{llm.WithModel(cfg.Model)}
	if cfg.Sampling != nil {
		opts = append(opts, llm.WithSampling(cfg.Sampling))
	}

	streamErr := provider.ChatStream(ctx, history, func(delta string) {
		watchdog.Observe()
		buffer.Append(delta)
	}, opts...)

	watchdog.Close()
	// Final forced flush before teardown, regardless of the interval timer
	buffer.Close()

	c.finishSession(session, streamErr)
}

// applyFlush moves buffered text into the target message's visible content.
func (c *Controller) applyFlush(session *Session, text string) {
	c.mu.Lock()
	if c.active != session {
		c.mu.Unlock()
		return
	}
	_, msg := c.findLocked(session.TargetMessageID)
	if msg == nil {
		c.mu.Unlock()
		return
	}
	msg.Content += text
	session.produced.Add(int64(len(text)))
	c.mu.Unlock()

	c.notifier.Notify(StateEvent{
		ChatID:    c.chatID,
		MessageID: session.TargetMessageID,
		Status:    StatusStreaming,
		Delta:     text,
	})
}

func (c *Controller) finishSession(session *Session, streamErr error) {
	c.mu.Lock()
	if c.active != session {
		c.mu.Unlock()
		return
	}
	c.active = nil

	_, msg := c.findLocked(session.TargetMessageID)
	if msg == nil {
		c.mu.Unlock()
		return
	}

	var (
		persist bool
		event   StateEvent
	)

	switch {
	case streamErr == nil:
		vs := NewVariationStore(msg.Variations, msg.CurrentVariation)
		vs.Add(msg.Content)
		msg.Variations, msg.CurrentVariation = vs.Items(), vs.Cursor()
		msg.Content = vs.Current()
		msg.Status = StatusComplete
		msg.Aborted = false
		persist = true

	case errors.Is(streamErr, context.Canceled):
		// User stop or watchdog. Partial content stays visible verbatim and
		// no variation entry is forced; aborted only marks empty results.
		if session.produced.Load() == 0 {
			msg.Status = StatusAborted
			msg.Aborted = true
		} else {
			msg.Status = StatusComplete
			msg.Aborted = false
		}
		persist = true

	default:
		msg.Status = StatusError
		msg.Aborted = true
		msg.Error = streamErr.Error()
		msg.Content = failureMarker
	}

	if c.snapshot != nil {
		c.snapshot.Status = msg.Status
		c.snapshot.Error = msg.Error
	}

	event = StateEvent{
		ChatID:    c.chatID,
		MessageID: msg.ID,
		Status:    msg.Status,
		Error:     msg.Error,
	}

	var req SaveRequest
	if persist {
		req = c.saveRequestLocked()
	}

	details := map[string]interface{}{
		"chat_id":    c.chatID,
		"session_id": session.ID,
		"status":     string(msg.Status),
		"produced":   session.produced.Load(),
		"elapsed":    time.Since(session.StartedAt).String(),
	}
	c.mu.Unlock()

	if streamErr != nil && !errors.Is(streamErr, context.Canceled) {
		details["error"] = streamErr.Error()
		c.log.Error("Generation", "Session failed", details)
	} else {
		c.log.Info("Generation", "Session finished", details)
	}

	c.notifier.Notify(event)

	if persist {
		c.saver.Request(req)
	}
}
