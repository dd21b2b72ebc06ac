package models

import "time"

// Tag is a shared, globally deduplicated label. Names are matched exactly
// and case-sensitively: "Go" and "go" are distinct tags. Tags are never
// deleted by post operations; a tag with zero posts simply persists.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// PostTag is a row of the posts_tags join table. Declared explicitly so the
// composite primary key and cascade rules are under our control instead of
// GORM's implicit join-table defaults.
type PostTag struct {
	PostID uint `gorm:"primaryKey"`
	TagID  uint `gorm:"primaryKey"`
}

// TableName maps PostTag onto the posts_tags join table.
func (PostTag) TableName() string { return "posts_tags" }
