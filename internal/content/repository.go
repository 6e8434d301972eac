package content

import (
	"context"

	"gorm.io/gorm"

	"github.com/riversidefab/storefront-backend/pkg/db/models"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/types"
)

// Repository persists the site content documents.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Find loads one document by key.
func (r *Repository) Find(ctx context.Context, key string) (*models.SiteContent, error) {
	var row models.SiteContent
	if err := r.db.WithContext(ctx).First(&row, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a new document.
func (r *Repository) Create(ctx context.Context, row *models.SiteContent) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// UpdateVersioned bumps the document only if the stored version still
// matches. The guard in the WHERE clause closes the read-check-write race.
func (r *Repository) UpdateVersioned(ctx context.Context, key string, version int, data types.JSONMap) (*models.SiteContent, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SiteContent{}).
		Where("key = ? AND version = ?", key, version).
		Updates(models.SiteContent{Version: version + 1, Data: data})
	if result.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "update site content")
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "content was changed by someone else, reload and retry")
	}
	return r.Find(ctx, key)
}
