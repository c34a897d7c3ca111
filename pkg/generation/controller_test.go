package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ai-roleplay-be/pkg/llm"
	"ai-roleplay-be/pkg/llm/openai"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticConfig struct {
	cfg *BackendConfig
	err error
}

func (s staticConfig) ActiveBackendConfig(ctx context.Context) (*BackendConfig, error) {
	return s.cfg, s.err
}

// scriptedStream plays back deltas, then either returns, blocks until
// cancelled, or fails.
type scriptedStream struct {
	deltas   []string
	delay    time.Duration
	failWith error
	block    bool

	mu      sync.Mutex
	history []llm.Message
}

func (s *scriptedStream) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (s *scriptedStream) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (s *scriptedStream) ChatStream(ctx context.Context, history []llm.Message, onDelta func(delta string), options ...llm.Option) error {
	s.mu.Lock()
	s.history = append([]llm.Message(nil), history...)
	s.mu.Unlock()

	for _, d := range s.deltas {
		if s.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.delay):
			}
		}
		onDelta(d)
	}
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if s.failWith != nil {
		return s.failWith
	}
	return nil
}

func (s *scriptedStream) seenHistory() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []StateEvent
}

func (r *recordingNotifier) Notify(event StateEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) terminal() *StateEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		switch r.events[i].Status {
		case StatusComplete, StatusAborted, StatusError:
			e := r.events[i]
			return &e
		}
	}
	return nil
}

func testTimings() Timings {
	return Timings{
		FlushInterval:  5 * time.Millisecond,
		FlushThreshold: DefaultFlushThreshold,
		Watchdog: WatchdogTimings{
			Check:       time.Hour,
			StallAfter:  time.Hour,
			SoftTimeout: time.Hour,
			HardTimeout: time.Hour,
		},
	}
}

func newTestController(t *testing.T, provider llm.StreamProvider, seed []Message) (*Controller, *fakeChatStore, *recordingNotifier) {
	t.Helper()
	store := &fakeChatStore{}
	notifier := &recordingNotifier{}

	deps := Deps{
		Config:    staticConfig{cfg: &BackendConfig{Kind: "openai", Model: "gpt-4o-mini"}},
		Providers: func(cfg *BackendConfig) (llm.StreamProvider, error) { return provider, nil },
		Saver:     NewSaver(20*time.Millisecond, store, testLogger{}),
		Notifier:  notifier,
		Logger:    testLogger{},
		Timings:   testTimings(),
	}
	return NewController(uuid.New(), uuid.New(), "Rei", seed, deps), store, notifier
}

func waitTerminal(t *testing.T, n *recordingNotifier) StateEvent {
	t.Helper()
	require.Eventually(t, func() bool { return n.terminal() != nil }, 2*time.Second, 5*time.Millisecond)
	return *n.terminal()
}

func findMessage(t *testing.T, c *Controller, id uuid.UUID) Message {
	t.Helper()
	for _, m := range c.Messages() {
		if m.ID == id {
			return m
		}
	}
	t.Fatalf("message %s not found", id)
	return Message{}
}

func TestGenerateStreamsToCompletion(t *testing.T) {
	provider := &scriptedStream{deltas: []string{"Hel", "lo"}}
	c, store, notifier := newTestController(t, provider, nil)

	id, err := c.Generate(context.Background(), "Say hello")
	require.NoError(t, err)

	ev := waitTerminal(t, notifier)
	assert.Equal(t, StatusComplete, ev.Status)
	assert.Equal(t, id, ev.MessageID)

	msg := findMessage(t, c, id)
	assert.Equal(t, "Hello", msg.Content)
	assert.Equal(t, []string{"Hello"}, msg.Variations)
	assert.Equal(t, 0, msg.CurrentVariation)
	assert.False(t, msg.Aborted)
	assert.False(t, c.Active())

	// User turn precedes the assistant slot in both memory and the prompt
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "Say hello", msgs[0].Content)

	history := provider.seenHistory()
	require.Len(t, history, 1)
	assert.Equal(t, "user", history[0].Role)

	// Completion rides the debounced save
	assert.Eventually(t, func() bool { return store.saveCount() >= 1 }, time.Second, 5*time.Millisecond)
	saved := store.lastSave()
	assert.Equal(t, "Hello", saved.Messages[len(saved.Messages)-1].Content)
}

func TestGenerateRejectsWhileSessionActive(t *testing.T) {
	provider := &scriptedStream{deltas: []string{"busy"}, block: true}
	c, _, notifier := newTestController(t, provider, nil)

	_, err := c.Generate(context.Background(), "first")
	require.NoError(t, err)
	require.Eventually(t, c.Active, time.Second, 5*time.Millisecond)

	_, err = c.Generate(context.Background(), "second")
	assert.ErrorIs(t, err, ErrSessionActive)

	c.Stop()
	waitTerminal(t, notifier)
	assert.False(t, c.Active())
}

func TestGenerateNoBackendConfigured(t *testing.T) {
	c := NewController(uuid.New(), uuid.New(), "Rei", nil, Deps{
		Config:    staticConfig{},
		Providers: func(cfg *BackendConfig) (llm.StreamProvider, error) { return nil, errors.New("unreachable") },
		Saver:     NewSaver(time.Hour, &fakeChatStore{}, testLogger{}),
		Notifier:  &recordingNotifier{},
		Logger:    testLogger{},
		Timings:   testTimings(),
	})

	_, err := c.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNoBackend)

	// Rejected before any message slot is created
	assert.Empty(t, c.Messages())
}

func TestStopPreservesPartialContent(t *testing.T) {
	provider := &scriptedStream{deltas: []string{"Hel"}, block: true}
	c, _, notifier := newTestController(t, provider, nil)

	id, err := c.Generate(context.Background(), "hello?")
	require.NoError(t, err)

	// Wait until the partial delta has been flushed into the message
	require.Eventually(t, func() bool {
		return findMessage(t, c, id).Content == "Hel"
	}, time.Second, 5*time.Millisecond)

	c.Stop()
	ev := waitTerminal(t, notifier)

	msg := findMessage(t, c, id)
	assert.Equal(t, StatusComplete, ev.Status)
	assert.Equal(t, "Hel", msg.Content)
	assert.False(t, msg.Aborted, "partial output counts as a result")
	assert.Empty(t, msg.Variations, "stop does not force a variation entry")
}

func TestStopBeforeFirstDeltaMarksAborted(t *testing.T) {
	provider := &scriptedStream{block: true}
	c, _, notifier := newTestController(t, provider, nil)

	id, err := c.Generate(context.Background(), "hello?")
	require.NoError(t, err)
	require.Eventually(t, c.Active, time.Second, 5*time.Millisecond)

	c.Stop()
	ev := waitTerminal(t, notifier)

	msg := findMessage(t, c, id)
	assert.Equal(t, StatusAborted, ev.Status)
	assert.Equal(t, StatusAborted, msg.Status)
	assert.True(t, msg.Aborted)
	assert.Empty(t, msg.Content)
}

func TestBackendErrorMarksFailure(t *testing.T) {
	provider := &scriptedStream{deltas: []string{"par"}, failWith: errors.New("upstream 502")}
	c, _, notifier := newTestController(t, provider, nil)

	id, err := c.Generate(context.Background(), "hello?")
	require.NoError(t, err)

	ev := waitTerminal(t, notifier)
	assert.Equal(t, StatusError, ev.Status)
	assert.Contains(t, ev.Error, "upstream 502")

	msg := findMessage(t, c, id)
	assert.Equal(t, StatusError, msg.Status)
	assert.True(t, msg.Aborted)
	assert.Equal(t, failureMarker, msg.Content)
}

func TestRegenerateAddsVariation(t *testing.T) {
	userID, asstID := uuid.New(), uuid.New()
	seed := []Message{
		{ID: userID, Role: RoleUser, Content: "Pick a letter", Status: StatusComplete},
		{ID: asstID, Role: RoleAssistant, Content: "A", Variations: []string{"A"}, Status: StatusComplete},
	}

	provider := &scriptedStream{deltas: []string{"B"}}
	c, _, notifier := newTestController(t, provider, seed)

	require.NoError(t, c.Regenerate(context.Background(), asstID))
	waitTerminal(t, notifier)

	msg := findMessage(t, c, asstID)
	assert.Equal(t, "B", msg.Content)
	assert.Equal(t, []string{"A", "B"}, msg.Variations)
	assert.Equal(t, 1, msg.CurrentVariation)

	// The stale assistant turn is excluded from the prompt
	history := provider.seenHistory()
	require.Len(t, history, 1)
	assert.Equal(t, "Pick a letter", history[0].Content)
}

func TestRegenerateRequiresAssistantMessage(t *testing.T) {
	userID := uuid.New()
	seed := []Message{{ID: userID, Role: RoleUser, Content: "hi", Status: StatusComplete}}

	c, _, _ := newTestController(t, &scriptedStream{}, seed)

	assert.ErrorIs(t, c.Regenerate(context.Background(), userID), ErrNotAssistantMessage)
	assert.ErrorIs(t, c.Regenerate(context.Background(), uuid.New()), ErrMessageNotFound)
}

func TestContinueAppendsToExistingContent(t *testing.T) {
	asstID := uuid.New()
	seed := []Message{
		{ID: uuid.New(), Role: RoleUser, Content: "Greet me", Status: StatusComplete},
		{ID: asstID, Role: RoleAssistant, Content: "Hello", Variations: []string{"Hello"}, Status: StatusComplete},
	}

	provider := &scriptedStream{deltas: []string{", world"}}
	c, _, notifier := newTestController(t, provider, seed)

	require.NoError(t, c.Continue(context.Background(), asstID))
	waitTerminal(t, notifier)

	msg := findMessage(t, c, asstID)
	assert.Equal(t, "Hello, world", msg.Content)
	assert.Equal(t, []string{"Hello", "Hello, world"}, msg.Variations)
	assert.Equal(t, 1, msg.CurrentVariation)

	// Continue sends the target message plus the continuation instruction
	history := provider.seenHistory()
	require.Len(t, history, 3)
	assert.Equal(t, "Hello", history[1].Content)
	assert.Equal(t, "system", history[2].Role)
}

func TestCycleVariationPersistsImmediately(t *testing.T) {
	asstID := uuid.New()
	seed := []Message{
		{ID: asstID, Role: RoleAssistant, Content: "B", Variations: []string{"A", "B"}, CurrentVariation: 1, Status: StatusComplete},
	}

	c, store, _ := newTestController(t, &scriptedStream{}, seed)

	msg, err := c.CycleVariation(context.Background(), asstID, +1)
	require.NoError(t, err)
	assert.Equal(t, "A", msg.Content, "cycle wraps past the end")
	assert.Equal(t, 0, msg.CurrentVariation)

	assert.Equal(t, 1, store.saveCount(), "discrete action bypasses the debounce")
	assert.Len(t, store.appended, 1)
}

func TestEditCommitBecomesVariation(t *testing.T) {
	asstID := uuid.New()
	seed := []Message{
		{ID: asstID, Role: RoleAssistant, Content: "draft", Variations: []string{"draft"}, Status: StatusComplete},
	}

	c, store, _ := newTestController(t, &scriptedStream{}, seed)

	// Keystroke-style edit: debounced, not a variation
	msg, err := c.Edit(context.Background(), asstID, "draft 2", false)
	require.NoError(t, err)
	assert.Equal(t, "draft 2", msg.Content)
	assert.Equal(t, []string{"draft"}, msg.Variations)
	assert.Equal(t, 0, store.saveCount())

	// Completed edit: new variation, written immediately
	msg, err = c.Edit(context.Background(), asstID, "final text", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"draft", "final text"}, msg.Variations)
	assert.Equal(t, 1, msg.CurrentVariation)
	assert.GreaterOrEqual(t, store.saveCount(), 1)
}

func TestDeleteMessage(t *testing.T) {
	asstID := uuid.New()
	seed := []Message{
		{ID: uuid.New(), Role: RoleUser, Content: "hi", Status: StatusComplete},
		{ID: asstID, Role: RoleAssistant, Content: "bye", Status: StatusComplete},
	}

	c, store, _ := newTestController(t, &scriptedStream{}, seed)

	require.NoError(t, c.DeleteMessage(context.Background(), asstID))
	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, 1, store.saveCount())

	assert.ErrorIs(t, c.DeleteMessage(context.Background(), asstID), ErrMessageNotFound)
}

func TestSnapshotRecordsContextWindow(t *testing.T) {
	provider := &scriptedStream{deltas: []string{"ok"}}
	c, _, notifier := newTestController(t, provider, nil)

	assert.Nil(t, c.Snapshot())

	_, err := c.Generate(context.Background(), "ping")
	require.NoError(t, err)
	waitTerminal(t, notifier)

	snap := c.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, KindGenerate, snap.Kind)
	assert.Equal(t, "ping", snap.Prompt)
	assert.Equal(t, StatusComplete, snap.Status)
	assert.Equal(t, "openai", snap.Backend)
}

// End-to-end over a real SSE wire: httptest server speaking the OpenAI
// streaming shape, decoded by the provider, driven by the controller.
func TestGenerateOverSSETransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		for _, chunk := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", chunk)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	store := &fakeChatStore{}
	notifier := &recordingNotifier{}
	c := NewController(uuid.New(), uuid.New(), "Rei", nil, Deps{
		Config: staticConfig{cfg: &BackendConfig{Kind: "openai", BaseURL: srv.URL, Model: "test-model"}},
		Providers: func(cfg *BackendConfig) (llm.StreamProvider, error) {
			return openai.NewProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
		},
		Saver:    NewSaver(20*time.Millisecond, store, testLogger{}),
		Notifier: notifier,
		Logger:   testLogger{},
		Timings:  testTimings(),
	})

	id, err := c.Generate(context.Background(), "Say hello")
	require.NoError(t, err)

	ev := waitTerminal(t, notifier)
	assert.Equal(t, StatusComplete, ev.Status)

	msg := findMessage(t, c, id)
	assert.Equal(t, "Hello", msg.Content)
	assert.Equal(t, []string{"Hello"}, msg.Variations)

	// The persisted chat records the roleplay persona and which backend
	// produced it
	require.Eventually(t, func() bool { return store.saveCount() >= 1 }, time.Second, 5*time.Millisecond)
	saved := store.lastSave()
	assert.Equal(t, "Rei", saved.Persona)
	assert.Equal(t, "openai/test-model", saved.APIInfo)
}
