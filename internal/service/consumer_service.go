// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-roleplay-be/internal/dto"
	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/pkg/logger"
	"ai-roleplay-be/internal/repository/specification"
	"ai-roleplay-be/internal/repository/unitofwork"
	"ai-roleplay-be/pkg/embedding"
	"ai-roleplay-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	log               logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		log:               log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedLoreMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("Consumer", "Failed to unmarshal embed message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.log.Info("Consumer", "Processing lore embedding", map[string]interface{}{"lore_entry_id": payload.LoreEntryId})

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	entry, err := uow.LoreEntryRepository().FindOne(ctx, specification.ByID{ID: payload.LoreEntryId})
	if err != nil {
		cs.log.Error("Consumer", "Failed to load lore entry", map[string]interface{}{"lore_entry_id": payload.LoreEntryId, "error": err.Error()})
		msg.Nack() // Nack for retriable errors
		return
	}
	if entry == nil {
		// Entry deleted between enqueue and processing. Ack, nothing to embed.
		cs.log.Warn("Consumer", "Lore entry gone, skipping", map[string]interface{}{"lore_entry_id": payload.LoreEntryId})
		msg.Ack()
		return
	}

	// Title and keywords travel with the content so similarity search can
	// match entries by what they are about, not just how they are phrased.
	document := entry.Title + "\n" + entry.Content
	if len(entry.Keywords) > 0 {
		document += "\nKeywords: "
		for i, kw := range entry.Keywords {
			if i > 0 {
				document += ", "
			}
			document += kw
		}
	}

	// ChunkSize 1500 chars (~375 tokens) with 200 char overlap. Most lore
	// entries fit a single chunk; long ones get split so each vector stays
	// within the embedding model's context.
	chunks := utils.SplitText(document, 1500, 200)

	var newEmbeddings []*entity.LoreEmbedding
	for i, chunk := range chunks {
		vec, err := cs.embeddingProvider.Embed(ctx, chunk, embedding.TaskDocument)
		if err != nil {
			cs.log.Error("Consumer", "Failed to generate embedding", map[string]interface{}{
				"lore_entry_id": payload.LoreEntryId,
				"chunk":         i,
				"error":         err.Error(),
			})
			msg.Nack()
			return
		}

		newEmbeddings = append(newEmbeddings, &entity.LoreEmbedding{
			Id:             uuid.New(),
			Document:       chunk,
			EmbeddingValue: vec,
			LoreEntryId:    entry.Id,
			CreatedAt:      time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		cs.log.Error("Consumer", "Failed to begin transaction", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.LoreEmbeddingRepository().DeleteByLoreEntryId(ctx, entry.Id); err != nil {
		cs.log.Error("Consumer", "Failed to delete stale embeddings", map[string]interface{}{"lore_entry_id": entry.Id, "error": err.Error()})
		msg.Nack()
		return
	}

	if len(newEmbeddings) > 0 {
		if err := uow.LoreEmbeddingRepository().CreateBulk(ctx, newEmbeddings); err != nil {
			cs.log.Error("Consumer", "Failed to store embeddings", map[string]interface{}{"lore_entry_id": entry.Id, "error": err.Error()})
			msg.Nack()
			return
		}
	}

	entry.Embedded = true
	if err := uow.LoreEntryRepository().Update(ctx, entry); err != nil {
		cs.log.Error("Consumer", "Failed to mark entry embedded", map[string]interface{}{"lore_entry_id": entry.Id, "error": err.Error()})
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		cs.log.Error("Consumer", "Failed to commit transaction", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	cs.log.Info("Consumer", "Lore entry embedded", map[string]interface{}{
		"lore_entry_id": entry.Id,
		"chunks":        len(newEmbeddings),
	})
	msg.Ack()
}
