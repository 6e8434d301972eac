package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/types"
)

func newTestService(t *testing.T) Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE site_content (
		key TEXT PRIMARY KEY,
		version INTEGER NOT NULL DEFAULT 1,
		data TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`).Error)

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected domain error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestGetDefaultsToEmptyDocument(t *testing.T) {
	svc := newTestService(t)

	doc, err := svc.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "default", doc.Key)
	assert.Zero(t, doc.Version)
	assert.Empty(t, doc.Data)
}

func TestUpdateCreatesThenBumpsVersion(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Update(context.Background(), "default", 0, types.JSONMap{"site_title": "Riverside Fabrication"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)

	updated, err := svc.Update(context.Background(), "default", 1, types.JSONMap{"site_title": "Riverside Fab & Machine"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	doc, err := svc.Get(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version)
	assert.Equal(t, "Riverside Fab & Machine", doc.Data["site_title"])
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Update(context.Background(), "default", 0, types.JSONMap{"hero": "Custom steel work"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "default", 0, types.JSONMap{"hero": "stale write"})
	assertCode(t, err, pkgerrors.CodeConflict)

	// The first write is untouched.
	doc, err := svc.Get(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "Custom steel work", doc.Data["hero"])
}

func TestUpdateValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Update(context.Background(), "default", 0, nil)
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Update(context.Background(), "default", -1, types.JSONMap{})
	assertCode(t, err, pkgerrors.CodeValidation)

	// A nonzero version against a missing document is a conflict, not a create.
	_, err = svc.Update(context.Background(), "default", 3, types.JSONMap{"a": "b"})
	assertCode(t, err, pkgerrors.CodeConflict)
}
