package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the session-scoped shopping cart. It is created lazily on the
// first add and deleted on successful checkout; abandoned carts persist.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID string     `gorm:"column:session_id;not null;uniqueIndex"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TotalCents sums price_at_time × quantity across items.
func (c *Cart) TotalCents() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, item := range c.Items {
		total += item.SubtotalCents()
	}
	return total
}
