package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/arcadefolio/arcadefolio/internal/domain"
	"github.com/arcadefolio/arcadefolio/internal/validation"
)

// ResourceUsecase exposes the four collection operations. It owns the
// validation gate and the list cache; storage ordering and identifier
// generation live in the repository.
type ResourceUsecase struct {
	repo     ResourceRepository
	cache    ListCache
	events   EventPublisher
	cacheTTL time.Duration
}

func NewResourceUsecase(repo ResourceRepository, cache ListCache, events EventPublisher, cacheTTL time.Duration) *ResourceUsecase {
	return &ResourceUsecase{
		repo:     repo,
		cache:    cache,
		events:   events,
		cacheTTL: cacheTTL,
	}
}

func listKey(rt domain.ResourceType) string {
	return "list:" + rt.Name
}

func (uc *ResourceUsecase) List(ctx context.Context, rt domain.ResourceType) ([]domain.Record, error) {
	if cached, ok := uc.cache.Get(listKey(rt)); ok {
		var records []domain.Record
		if err := json.Unmarshal(cached, &records); err == nil {
			return records, nil
		}
	}

	records, err := uc.repo.List(ctx, rt)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(records); err == nil {
		uc.cache.Set(listKey(rt), encoded, uc.cacheTTL)
	}

	return records, nil
}

func (uc *ResourceUsecase) Create(ctx context.Context, rt domain.ResourceType, payload map[string]any) (domain.Record, error) {
	if err := validation.ValidateCreate(rt, payload); err != nil {
		return nil, err
	}

	record, err := uc.repo.Create(ctx, rt, payload)
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, rt, domain.ActionCreated, record.ID())
	return record, nil
}

func (uc *ResourceUsecase) Update(ctx context.Context, rt domain.ResourceType, id string, payload map[string]any) (domain.Record, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, err
	}
	if err := validation.ValidateUpdate(rt, payload); err != nil {
		return nil, err
	}

	record, err := uc.repo.Update(ctx, rt, id, payload)
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, rt, domain.ActionUpdated, id)
	return record, nil
}

func (uc *ResourceUsecase) Delete(ctx context.Context, rt domain.ResourceType, id string) error {
	if err := validation.ValidateID(id); err != nil {
		return err
	}

	if err := uc.repo.Delete(ctx, rt, id); err != nil {
		return err
	}

	uc.invalidate(ctx, rt, domain.ActionDeleted, id)
	return nil
}

// invalidate drops the cached list and announces the mutation. A publish
// failure must not fail the request; the write has already happened.
func (uc *ResourceUsecase) invalidate(ctx context.Context, rt domain.ResourceType, action string, id string) {
	uc.cache.Delete(listKey(rt))

	if uc.events == nil {
		return
	}
	event := domain.Event{Resource: rt.Name, Action: action, ID: id}
	if err := uc.events.Publish(ctx, event); err != nil {
		slog.ErrorContext(
			ctx, "Failed to publish content event",
			slog.String("error", err.Error()),
			slog.String("module", "usecase"),
		)
	}
}
