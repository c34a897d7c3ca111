package integration

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"ai-roleplay-be/internal/bootstrap"
	"ai-roleplay-be/internal/config"
	"ai-roleplay-be/internal/dto"
	"ai-roleplay-be/internal/pkg/serverutils"
	"ai-roleplay-be/internal/server"
	"ai-roleplay-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestChatApiFlow walks the happy path a fresh browser client takes: register,
// create a character, open a chat, and find the greeting already seeded.
// Generation itself is not exercised; that needs a live backend.
func TestChatApiFlow(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	srv := server.New(cfg, container)
	app := srv.GetApp()

	email := "chatflow-" + uuid.NewString() + "@example.com"

	// Register
	regBody, _ := json.Marshal(dto.RegisterRequest{
		Email:    email,
		Password: "secret-password",
		Username: "Chat Flow",
	})
	req := httptest.NewRequest("POST", "/api/auth/v1/register", strings.NewReader(string(regBody)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var reg serverutils.Response[dto.AuthResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))
	require.True(t, reg.Success)
	require.NotEmpty(t, reg.Data.Token)
	token := reg.Data.Token

	authedPost := func(path string, payload interface{}, out interface{}) int {
		t.Helper()
		body, _ := json.Marshal(payload)
		req := httptest.NewRequest("POST", path, strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		if out != nil {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
		}
		return resp.StatusCode
	}

	// Create a character with a greeting
	var char serverutils.Response[dto.CharacterResponse]
	code := authedPost("/api/character/v1", dto.CreateCharacterRequest{
		Name:         "Test Narrator",
		Description:  "An old storyteller.",
		FirstMessage: "Welcome, traveler.",
	}, &char)
	require.Equal(t, 200, code)
	require.True(t, char.Success)

	// Open a chat session
	var session serverutils.Response[dto.ChatSessionResponse]
	code = authedPost("/api/chat/v1", dto.CreateChatSessionRequest{
		CharacterId: char.Data.Id,
		PersonaName: "Traveler",
	}, &session)
	require.Equal(t, 200, code)

	// The greeting is seeded as a completed assistant message
	msgReq := httptest.NewRequest("GET", "/api/chat/v1/"+session.Data.Id.String()+"/messages", nil)
	msgReq.Header.Set("Authorization", "Bearer "+token)
	msgResp, err := app.Test(msgReq, -1)
	require.NoError(t, err)
	require.Equal(t, 200, msgResp.StatusCode)

	var messages serverutils.Response[[]dto.ChatMessageResponse]
	require.NoError(t, json.NewDecoder(msgResp.Body).Decode(&messages))
	require.Len(t, messages.Data, 1)
	assert.Equal(t, "assistant", messages.Data[0].Role)
	assert.Equal(t, "Welcome, traveler.", messages.Data[0].Content)
	assert.Equal(t, []string{"Welcome, traveler."}, messages.Data[0].Variations)

	// Generation without a configured backend is rejected up front
	code = authedPost("/api/chat/v1/"+session.Data.Id.String()+"/generate", dto.GenerateRequest{
		Prompt: "Tell me a story.",
	}, nil)
	assert.Equal(t, 412, code)

	// Configure and activate a backend
	var backend serverutils.Response[dto.BackendConfigResponse]
	code = authedPost("/api/backend/v1", dto.CreateBackendConfigRequest{
		Name:  "Local Ollama",
		Kind:  "ollama",
		Model: "llama3",
	}, &backend)
	require.Equal(t, 200, code)
	assert.False(t, backend.Data.HasAPIKey)

	code = authedPost("/api/backend/v1/"+backend.Data.Id.String()+"/activate", nil, nil)
	assert.Equal(t, 200, code)

	// Cleanup
	delReq := httptest.NewRequest("DELETE", "/api/chat/v1/"+session.Data.Id.String(), nil)
	delReq.Header.Set("Authorization", "Bearer "+token)
	delResp, err := app.Test(delReq, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, delResp.StatusCode)
}
