package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/riversidefab/storefront-backend/pkg/db/models"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/types"
)

// ContentDTO is one versioned settings document.
type ContentDTO struct {
	Key     string        `json:"key"`
	Version int           `json:"version"`
	Data    types.JSONMap `json:"data"`
}

// Service reads and writes the storefront settings document.
type Service interface {
	Get(ctx context.Context, key string) (*ContentDTO, error)
	Update(ctx context.Context, key string, version int, data types.JSONMap) (*ContentDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("content repository required")
	}
	return &service{repo: repo}, nil
}

// Get returns the document, or an empty version-zero document when nothing
// has been written yet.
func (s *service) Get(ctx context.Context, key string) (*ContentDTO, error) {
	key = normalizeKey(key)
	row, err := s.repo.Find(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ContentDTO{Key: key, Version: 0, Data: types.JSONMap{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load site content")
	}
	return newContentDTO(row), nil
}

// Update writes the document only when the caller's version matches the
// stored one. The first write carries version zero.
func (s *service) Update(ctx context.Context, key string, version int, data types.JSONMap) (*ContentDTO, error) {
	key = normalizeKey(key)
	if data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content data is required")
	}
	if version < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "version cannot be negative")
	}

	row, err := s.repo.Find(ctx, key)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load site content")
		}
		if version != 0 {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "content was changed by someone else, reload and retry")
		}
		created := &models.SiteContent{Key: key, Version: 1, Data: data}
		if err := s.repo.Create(ctx, created); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create site content")
		}
		return newContentDTO(created), nil
	}

	if row.Version != version {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "content was changed by someone else, reload and retry")
	}

	updated, err := s.repo.UpdateVersioned(ctx, key, version, data)
	if err != nil {
		return nil, err
	}
	return newContentDTO(updated), nil
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return models.DefaultContentKey
	}
	return key
}

func newContentDTO(row *models.SiteContent) *ContentDTO {
	return &ContentDTO{Key: row.Key, Version: row.Version, Data: row.Data}
}
