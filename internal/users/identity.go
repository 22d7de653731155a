package users

import "time"

// Identity maps a platform-specific login subject to the canonical uploader
// id the asset catalog stores. The same player appears under different
// subjects per platform; the canonical id keeps their uploads attributable
// to one account.
type Identity struct {
	Platform   string    `gorm:"column:platform;primaryKey;size:32;not null"`
	Subject    string    `gorm:"column:subject;primaryKey;size:190;not null"`
	UploaderID string    `gorm:"column:uploader_id;size:190;not null;index"`
	LastSeenAt time.Time `gorm:"column:last_seen_at;autoUpdateTime"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName exposes the table backing uploader identities.
func (Identity) TableName() string {
	return "uploader_identities"
}
