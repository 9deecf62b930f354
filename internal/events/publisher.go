package events

import (
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/sanobery/recipe-be/internal/model"
)

const (
	SubjectRecipeCreated   = "recipe.created"
	SubjectRecipeUpdated   = "recipe.updated"
	SubjectRecipeDeleted   = "recipe.deleted"
	SubjectRecipeRated     = "recipe.rated"
	SubjectRecipeCommented = "recipe.commented"

	subjectAllRecipes = "recipe.>"
)

type EventPublisher interface {
	PublishRecipeCreated(recipe *model.Recipe) error
	PublishRecipeUpdated(recipeID uuid.UUID) error
	PublishRecipeDeleted(recipe *model.Recipe) error
	PublishRecipeRated(rating *model.Rating) error
	PublishRecipeCommented(comment *model.Comment) error
}

type RecipeEvent struct {
	EventType  string    `json:"event_type"`
	RecipeID   uuid.UUID `json:"recipe_id"`
	OwnerID    uuid.UUID `json:"owner_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type RecipeRatedEvent struct {
	EventType string    `json:"event_type"`
	RecipeID  uuid.UUID `json:"recipe_id"`
	UserID    uuid.UUID `json:"user_id"`
	Score     int       `json:"score"`
	RatedAt   time.Time `json:"rated_at"`
}

type RecipeCommentedEvent struct {
	EventType   string    `json:"event_type"`
	RecipeID    uuid.UUID `json:"recipe_id"`
	UserID      uuid.UUID `json:"user_id"`
	CommentID   uuid.UUID `json:"comment_id"`
	CommentedAt time.Time `json:"commented_at"`
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(conn *nats.Conn) EventPublisher {
	return &NatsPublisher{conn: conn}
}

func (p *NatsPublisher) PublishRecipeCreated(recipe *model.Recipe) error {
	return p.publish(SubjectRecipeCreated, RecipeEvent{
		EventType:  SubjectRecipeCreated,
		RecipeID:   recipe.ID,
		OwnerID:    recipe.OwnerID,
		Title:      recipe.Title,
		OccurredAt: recipe.CreatedAt,
	})
}

func (p *NatsPublisher) PublishRecipeUpdated(recipeID uuid.UUID) error {
	return p.publish(SubjectRecipeUpdated, RecipeEvent{
		EventType:  SubjectRecipeUpdated,
		RecipeID:   recipeID,
		OccurredAt: time.Now(),
	})
}

func (p *NatsPublisher) PublishRecipeDeleted(recipe *model.Recipe) error {
	return p.publish(SubjectRecipeDeleted, RecipeEvent{
		EventType:  SubjectRecipeDeleted,
		RecipeID:   recipe.ID,
		OwnerID:    recipe.OwnerID,
		Title:      recipe.Title,
		OccurredAt: time.Now(),
	})
}

func (p *NatsPublisher) PublishRecipeRated(rating *model.Rating) error {
	return p.publish(SubjectRecipeRated, RecipeRatedEvent{
		EventType: SubjectRecipeRated,
		RecipeID:  rating.RecipeID,
		UserID:    rating.UserID,
		Score:     rating.Score,
		RatedAt:   rating.CreatedAt,
	})
}

func (p *NatsPublisher) PublishRecipeCommented(comment *model.Comment) error {
	return p.publish(SubjectRecipeCommented, RecipeCommentedEvent{
		EventType:   SubjectRecipeCommented,
		RecipeID:    comment.RecipeID,
		UserID:      comment.UserID,
		CommentID:   comment.ID,
		CommentedAt: comment.CreatedAt,
	})
}

func (p *NatsPublisher) publish(subject string, event any) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		slog.Error("Error marshalling event JSON", "subject", subject, "error", err)
		return err
	}

	if err := p.conn.Publish(subject, eventJSON); err != nil {
		slog.Error("Error publishing to NATS", "subject", subject, "error", err)
		return err
	}

	slog.Debug("Published event to NATS", "subject", subject)
	return nil
}

// NoopPublisher drops every event. It stands in when no NATS server is
// configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishRecipeCreated(*model.Recipe) error { return nil }
func (NoopPublisher) PublishRecipeUpdated(uuid.UUID) error { return nil }
func (NoopPublisher) PublishRecipeDeleted(*model.Recipe) error { return nil }
func (NoopPublisher) PublishRecipeRated(*model.Rating) error { return nil }
func (NoopPublisher) PublishRecipeCommented(*model.Comment) error { return nil }
