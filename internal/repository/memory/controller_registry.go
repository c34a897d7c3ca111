package memory

import (
	"time"

	"ai-roleplay-be/pkg/generation"

	"github.com/patrickmn/go-cache"
)

// ControllerRegistry keeps the per-chat generation controllers in memory.
// Controllers are cheap to rebuild from persisted messages, so idle ones are
// allowed to expire; an active stream keeps getting touched by the chat
// service and never falls out mid-session.
type ControllerRegistry struct {
	cache *cache.Cache
}

func NewControllerRegistry() *ControllerRegistry {
	// Default expiration of 1 hour, purge sweep every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &ControllerRegistry{
		cache: c,
	}
}

func (r *ControllerRegistry) Save(chatID string, controller *generation.Controller) {
	r.cache.Set(chatID, controller, cache.DefaultExpiration)
}

func (r *ControllerRegistry) Get(chatID string) (*generation.Controller, bool) {
	if x, found := r.cache.Get(chatID); found {
		// Touch to keep busy chats resident
		r.cache.Set(chatID, x, cache.DefaultExpiration)
		return x.(*generation.Controller), true
	}
	return nil, false
}

func (r *ControllerRegistry) Delete(chatID string) {
	r.cache.Delete(chatID)
}
