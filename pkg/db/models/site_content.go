package models

import (
	"time"

	"github.com/riversidefab/storefront-backend/pkg/types"
)

// SiteContent is the versioned free-form settings document edited from the
// admin console. Writes carry the version they read; a stale version is a
// conflict.
type SiteContent struct {
	Key       string        `gorm:"column:key;primaryKey"`
	Version   int           `gorm:"column:version;not null;default:1"`
	Data      types.JSONMap `gorm:"column:data;type:jsonb;serializer:json;not null"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName maps the model to the singular table created by the migrations.
func (SiteContent) TableName() string { return "site_content" }

// DefaultContentKey addresses the single storefront content document.
const DefaultContentKey = "default"
