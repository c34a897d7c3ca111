// FILE: internal/service/chat_prompt.go
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/pkg/logger"
	"ai-roleplay-be/internal/repository/specification"
	"ai-roleplay-be/internal/repository/unitofwork"
	"ai-roleplay-be/pkg/embedding"
	"ai-roleplay-be/pkg/llm"

	"github.com/google/uuid"
)

const (
	// loreScanTurns bounds keyword matching to the recent conversation so old
	// mentions stop dragging entries into every prompt.
	loreScanTurns = 4

	loreSearchLimit     = 3
	loreSearchThreshold = 0.5
)

// promptAssembler decorates a streaming provider: before dispatch it prepends
// the character card and any triggered lore to the conversation window. The
// engine stays oblivious to roleplay semantics.
type promptAssembler struct {
	inner llm.StreamProvider

	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	log               logger.ILogger

	character   *entity.Character
	personaName string
}

func (p *promptAssembler) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return p.inner.Chat(ctx, p.assemble(ctx, history), options...)
}

func (p *promptAssembler) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.inner.Generate(ctx, prompt, options...)
}

func (p *promptAssembler) ChatStream(ctx context.Context, history []llm.Message, onDelta func(delta string), options ...llm.Option) error {
	return p.inner.ChatStream(ctx, p.assemble(ctx, history), onDelta, options...)
}

func (p *promptAssembler) assemble(ctx context.Context, history []llm.Message) []llm.Message {
	var b strings.Builder

	if p.character.SystemPrompt != "" {
		b.WriteString(p.character.SystemPrompt)
	} else {
		fmt.Fprintf(&b, "You are %s. Stay in character at all times.", p.character.Name)
	}

	if p.character.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(p.character.Description)
	}
	if p.character.Personality != "" {
		fmt.Fprintf(&b, "\n\nPersonality: %s", p.character.Personality)
	}
	if p.character.Scenario != "" {
		fmt.Fprintf(&b, "\n\nScenario: %s", p.character.Scenario)
	}
	if p.personaName != "" {
		fmt.Fprintf(&b, "\n\nThe user is playing as %s.", p.personaName)
	}

	if lore := p.triggeredLore(ctx, history); len(lore) > 0 {
		b.WriteString("\n\nWorld info:")
		for _, entry := range lore {
			fmt.Fprintf(&b, "\n- %s", entry.Content)
		}
	}

	if p.character.ExampleDialogue != "" {
		fmt.Fprintf(&b, "\n\nExample dialogue:\n%s", p.character.ExampleDialogue)
	}

	full := make([]llm.Message, 0, len(history)+1)
	full = append(full, llm.Message{Role: "system", Content: b.String()})
	return append(full, history...)
}

// triggeredLore selects the lore entries to inject: keyword hits against the
// recent turns, merged with embedding neighbors of the latest user turn.
// Lookup failures degrade to fewer entries, never to a failed generation.
func (p *promptAssembler) triggeredLore(ctx context.Context, history []llm.Message) []*entity.LoreEntry {
	uow := p.uowFactory.NewUnitOfWork(ctx)

	entries, err := uow.LoreEntryRepository().FindAll(ctx,
		specification.ByCharacterID{CharacterID: p.character.Id},
		specification.EnabledOnly{},
		specification.OrderBy{Field: "insertion_order", Desc: false},
	)
	if err != nil {
		p.log.Warn("Prompt", "Lore lookup failed", map[string]interface{}{
			"character_id": p.character.Id,
			"error":        err.Error(),
		})
		return nil
	}
	if len(entries) == 0 {
		return nil
	}

	window := recentText(history, loreScanTurns)
	matched := make(map[uuid.UUID]*entity.LoreEntry)

	for _, entry := range entries {
		for _, kw := range entry.Keywords {
			if kw != "" && strings.Contains(window, strings.ToLower(kw)) {
				matched[entry.Id] = entry
				break
			}
		}
	}

	for _, id := range p.similarLoreIds(ctx, uow, history) {
		for _, entry := range entries {
			if entry.Id == id {
				matched[entry.Id] = entry
			}
		}
	}

	out := make([]*entity.LoreEntry, 0, len(matched))
	for _, entry := range matched {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].InsertionOrder < out[j].InsertionOrder
	})
	return out
}

func (p *promptAssembler) similarLoreIds(ctx context.Context, uow unitofwork.UnitOfWork, history []llm.Message) []uuid.UUID {
	query := lastUserTurn(history)
	if query == "" || p.embeddingProvider == nil {
		return nil
	}

	vec, err := p.embeddingProvider.Embed(ctx, query, embedding.TaskQuery)
	if err != nil {
		p.log.Warn("Prompt", "Query embedding failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	scored, err := uow.LoreEmbeddingRepository().SearchSimilarWithScore(
		ctx, vec, loreSearchLimit, p.character.Id, loreSearchThreshold,
	)
	if err != nil {
		p.log.Warn("Prompt", "Lore similarity search failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	ids := make([]uuid.UUID, 0, len(scored))
	for _, s := range scored {
		ids = append(ids, s.Embedding.LoreEntryId)
	}
	return ids
}

func recentText(history []llm.Message, turns int) string {
	start := len(history) - turns
	if start < 0 {
		start = 0
	}
	var b strings.Builder
	for _, m := range history[start:] {
		b.WriteString(strings.ToLower(m.Content))
		b.WriteByte('\n')
	}
	return b.String()
}

func lastUserTurn(history []llm.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return history[i].Content
		}
	}
	return ""
}
