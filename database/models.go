package database

import "time"

// BaseModel contains the key and timestamps shared by stored records. The
// auto-increment ID gives every table a stable default order.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
