package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a node in the self-referential category tree. The tree must
// stay acyclic; internal/catalog rejects a move that would make a node its
// own ancestor.
type Category struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string     `gorm:"column:name;not null"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	Description *string    `gorm:"column:description"`
	Position    int        `gorm:"column:position;not null;default:0"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	Children    []Category `gorm:"foreignKey:ParentID"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
