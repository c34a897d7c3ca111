package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/repository/specification"
	"ai-roleplay-be/internal/repository/unitofwork"
	"ai-roleplay-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.ChatMessageRepository())

	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Check Lore Embedding Repository", func(t *testing.T) {
		// Count implies the vector table and column exist
		embeddings, err := uow.LoreEmbeddingRepository().FindAll(context.Background(), specification.Pagination{Limit: 1})
		assert.NoError(t, err)
		t.Logf("Fetched %d lore embeddings", len(embeddings))
	})

	t.Run("Check Transactional Character With Lore", func(t *testing.T) {
		ctx := context.Background()

		userId := uuid.New()
		user := &entity.User{
			Id:           userId,
			Email:        "test-integration-" + uuid.New().String() + "@example.com",
			Username:     "Integration Test User",
			PasswordHash: "x",
			Role:         entity.UserRoleUser,
			Status:       entity.UserStatusActive,
			CreatedAt:    time.Now(),
		}
		err := uow.UserRepository().Create(ctx, user)
		assert.NoError(t, err)

		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		characterId := uuid.New()
		character := &entity.Character{
			Id:           characterId,
			UserId:       userId,
			Name:         "Integration Character",
			Description:  "Created by the integration suite",
			FirstMessage: "Hello there.",
			CreatedAt:    time.Now(),
		}
		err = uow.CharacterRepository().Create(ctx, character)
		assert.NoError(t, err)

		lore := &entity.LoreEntry{
			Id:          uuid.New(),
			CharacterId: characterId,
			Title:       "Integration Lore",
			Keywords:    []string{"integration"},
			Content:     "A fact about the integration world.",
			Enabled:     true,
			CreatedAt:   time.Now(),
		}
		err = uow.LoreEntryRepository().Create(ctx, lore)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		// Cleanup
		_ = uow.LoreEntryRepository().Delete(ctx, lore.Id)
		_ = uow.CharacterRepository().Delete(ctx, characterId)

		t.Log("Successfully created Character with Lore in Transaction")
	})
}
