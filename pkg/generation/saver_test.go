package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type testLogger struct{}

func (testLogger) Debug(module, message string, details map[string]interface{}) {}
func (testLogger) Info(module, message string, details map[string]interface{})  {}
func (testLogger) Warn(module, message string, details map[string]interface{})  {}
func (testLogger) Error(module, message string, details map[string]interface{}) {}
func (testLogger) Sync() error                                                  { return nil }

type fakeChatStore struct {
	mu       sync.Mutex
	saves    []SaveRequest
	appended []Message
	saveErr  error
}

func (f *fakeChatStore) SaveChat(ctx context.Context, characterID, chatID uuid.UUID, messages []Message, persona, apiInfo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves = append(f.saves, SaveRequest{
		CharacterID: characterID,
		ChatID:      chatID,
		Messages:    messages,
		Persona:     persona,
		APIInfo:     apiInfo,
	})
	return nil
}

func (f *fakeChatStore) AppendMessage(ctx context.Context, characterID, chatID uuid.UUID, message Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, message)
	return nil
}

func (f *fakeChatStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeChatStore) lastSave() SaveRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves[len(f.saves)-1]
}

func saveReq(content string) SaveRequest {
	return SaveRequest{
		CharacterID: uuid.New(),
		ChatID:      uuid.New(),
		Messages:    []Message{{ID: uuid.New(), Role: RoleAssistant, Content: content}},
		Persona:     "Rei",
	}
}

func TestSaverDebouncesToSingleWrite(t *testing.T) {
	store := &fakeChatStore{}
	s := NewSaver(30*time.Millisecond, store, testLogger{})

	s.Request(saveReq("one"))
	s.Request(saveReq("two"))
	s.Request(saveReq("three"))

	assert.Eventually(t, func() bool { return store.saveCount() == 1 }, time.Second, 5*time.Millisecond)

	// Only the last request within the quiet period is written
	assert.Equal(t, "three", store.lastSave().Messages[0].Content)

	// Quiescent afterwards: no extra writes sneak in
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, store.saveCount())
}

func TestSaverCommitBypassesDebounce(t *testing.T) {
	store := &fakeChatStore{}
	s := NewSaver(time.Hour, store, testLogger{})

	msg := Message{ID: uuid.New(), Role: RoleAssistant, Content: "final"}
	req := saveReq("final")

	s.Request(saveReq("pending, superseded"))
	s.Commit(context.Background(), req, msg)

	assert.Equal(t, 1, store.saveCount(), "commit writes immediately")
	assert.Equal(t, "final", store.lastSave().Messages[0].Content)
	assert.Len(t, store.appended, 1, "commit appends to the session log")

	// The superseded pending write never fires
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, store.saveCount())
}

func TestSaverFailureKeepsStateAndRetries(t *testing.T) {
	store := &fakeChatStore{saveErr: errors.New("disk full")}
	s := NewSaver(10*time.Millisecond, store, testLogger{})

	s.Request(saveReq("lost write"))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, store.saveCount())

	// Next trigger succeeds with the newer state
	store.mu.Lock()
	store.saveErr = nil
	store.mu.Unlock()

	s.Request(saveReq("recovered"))
	assert.Eventually(t, func() bool { return store.saveCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "recovered", store.lastSave().Messages[0].Content)
}

func TestSaverFlush(t *testing.T) {
	store := &fakeChatStore{}
	s := NewSaver(time.Hour, store, testLogger{})

	s.Request(saveReq("shutdown state"))
	s.Flush(context.Background())

	assert.Equal(t, 1, store.saveCount())
	assert.Equal(t, "shutdown state", store.lastSave().Messages[0].Content)

	// Nothing pending: Flush is a no-op
	s.Flush(context.Background())
	assert.Equal(t, 1, store.saveCount())
}
