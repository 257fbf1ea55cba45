package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Recording is one spectrogram container file.
// FilePath is limited to 768 characters so the unique index fits MySQL's
// 3072-byte key limit under utf8mb4.
type Recording struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	FilePath  string            `gorm:"size:768;not null;uniqueIndex:idx_recordings_file_path" json:"file_path"`
	Checksum  string            `gorm:"column:checksum_sha256;size:64;not null" json:"checksum_sha256"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
}

// TableName returns the table name for GORM.
func (Recording) TableName() string {
	return "recordings"
}
