package usecase

import (
	"context"
	"time"

	"github.com/arcadefolio/arcadefolio/internal/domain"
)

// ResourceRepository defines storage operations shared by all collections.
type ResourceRepository interface {
	List(ctx context.Context, rt domain.ResourceType) ([]domain.Record, error)
	Create(ctx context.Context, rt domain.ResourceType, fields map[string]any) (domain.Record, error)
	Update(ctx context.Context, rt domain.ResourceType, id string, fields map[string]any) (domain.Record, error)
	Delete(ctx context.Context, rt domain.ResourceType, id string) error
}

// ListCache holds serialized List responses between mutations.
type ListCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
}

// EventPublisher announces content mutations to interested listeners.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
