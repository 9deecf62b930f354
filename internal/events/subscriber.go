package events

import (
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Invalidator drops a cached recipe view.
type Invalidator interface {
	Invalidate(id uuid.UUID)
}

type recipeRef struct {
	EventType string    `json:"event_type"`
	RecipeID  uuid.UUID `json:"recipe_id"`
}

// CacheSubscriber evicts detail-cache entries when another replica changes a
// recipe, or rates or comments on one.
type CacheSubscriber struct {
	natsConn *nats.Conn
	cache    Invalidator
	sub      *nats.Subscription
}

func NewCacheSubscriber(conn *nats.Conn, cache Invalidator) (*CacheSubscriber, error) {
	s := &CacheSubscriber{natsConn: conn, cache: cache}

	sub, err := conn.Subscribe(subjectAllRecipes, s.handle)
	if err != nil {
		return nil, err
	}
	s.sub = sub
	slog.Info("Cache subscriber listening", "subject", subjectAllRecipes)

	return s, nil
}

func (s *CacheSubscriber) handle(msg *nats.Msg) {
	if msg.Subject == SubjectRecipeCreated {
		return
	}

	var ref recipeRef
	if err := json.Unmarshal(msg.Data, &ref); err != nil {
		slog.Warn("Failed to unmarshal recipe event", "subject", msg.Subject, "error", err)
		return
	}
	if ref.RecipeID == uuid.Nil {
		slog.Warn("Recipe event without recipe id", "subject", msg.Subject)
		return
	}

	s.cache.Invalidate(ref.RecipeID)
	slog.Debug("Evicted cached recipe", "recipe_id", ref.RecipeID, "event", ref.EventType)
}

func (s *CacheSubscriber) Close() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Unsubscribe()
}
