package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arcadefolio/arcadefolio/internal/domain"
)

// ResourceRepository persists every collection through one table-driven
// implementation. Column names come exclusively from the ResourceType
// descriptor; values are always bound as parameters. The usecase layer has
// already rejected any key outside the descriptor's allow-list.
type ResourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func (r *ResourceRepository) List(ctx context.Context, rt domain.ResourceType) ([]domain.Record, error) {
	var rows []map[string]any
	err := r.db.WithContext(ctx).
		Table(rt.Table).
		Order("created_at DESC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.Record(row))
	}
	return records, nil
}

func (r *ResourceRepository) Create(ctx context.Context, rt domain.ResourceType, fields map[string]any) (domain.Record, error) {
	row := map[string]any{"id": uuid.NewString()}
	for name, value := range fields {
		row[name] = value
	}

	err := r.db.WithContext(ctx).Table(rt.Table).Create(row).Error
	if err != nil {
		return nil, err
	}

	// created_at is filled by the column default; read the row back so the
	// response reflects what the store actually holds.
	return r.get(ctx, rt, row["id"].(string))
}

func (r *ResourceRepository) Update(ctx context.Context, rt domain.ResourceType, id string, fields map[string]any) (domain.Record, error) {
	result := r.db.WithContext(ctx).
		Table(rt.Table).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.NotFoundError{Resource: rt.Singular}
	}

	return r.get(ctx, rt, id)
}

func (r *ResourceRepository) Delete(ctx context.Context, rt domain.ResourceType, id string) error {
	// rt.Table comes from the static descriptor registry, never the caller.
	result := r.db.WithContext(ctx).Exec("DELETE FROM "+rt.Table+" WHERE id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: rt.Singular}
	}
	return nil
}

func (r *ResourceRepository) get(ctx context.Context, rt domain.ResourceType, id string) (domain.Record, error) {
	row := map[string]any{}
	err := r.db.WithContext(ctx).
		Table(rt.Table).
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFoundError{Resource: rt.Singular}
	}
	if err != nil {
		return nil, err
	}
	return domain.Record(row), nil
}
