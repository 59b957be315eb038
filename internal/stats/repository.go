package stats

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

// topLimit caps the result when no uris are requested.
const topLimit = 10

// Repository stores hits with gorm.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the hits table.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&Hit{}); err != nil {
		return fmt.Errorf("migrate hits: %w", err)
	}
	return nil
}

// Save stores h and fills in its id.
func (r *Repository) Save(ctx context.Context, h *Hit) error {
	if err := r.db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("insert hit: %w", err)
	}
	return nil
}

// Stats counts hits created in [q.Start, q.End] per (app, uri), most hit
// first. With q.Unique each client IP counts once per pair.
func (r *Repository) Stats(ctx context.Context, q Query) ([]model.ViewStats, error) {
	count := "COUNT(ip)"
	if q.Unique {
		count = "COUNT(DISTINCT ip)"
	}

	tx := r.db.WithContext(ctx).Model(&Hit{}).
		Select("app, uri, "+count+" AS hits").
		Where("created >= ? AND created <= ?", q.Start, q.End)
	if len(q.URIs) > 0 {
		tx = tx.Where("uri IN ?", q.URIs)
	}
	tx = tx.Group("app, uri").Order("hits DESC").Order("uri")
	if len(q.URIs) == 0 {
		tx = tx.Limit(topLimit)
	}

	out := []model.ViewStats{}
	if err := tx.Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("aggregate hits: %w", err)
	}
	return out, nil
}
