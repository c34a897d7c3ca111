package generation

import "errors"

var (
	// ErrSessionActive rejects a second generation while one is in flight.
	ErrSessionActive = errors.New("a generation session is already active for this chat")

	// ErrNoBackend rejects generation when no backend is configured.
	ErrNoBackend = errors.New("no generation backend is configured")

	// ErrMessageNotFound reports an unknown target message slot.
	ErrMessageNotFound = errors.New("message not found in chat")

	// ErrNotAssistantMessage guards regenerate/continue targets.
	ErrNotAssistantMessage = errors.New("target message is not an assistant turn")
)

// failureMarker replaces message content after a transport or backend
// failure, mirroring what the browser client renders.
const failureMarker = "[generation failed]"
