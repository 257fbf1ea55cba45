package entities

import "gorm.io/datatypes"

// Syllable is a detected segment of a Recording, bounded in seconds.
type Syllable struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	RecordingID     uint              `gorm:"not null;index" json:"recording_id"`
	SpectrogramPath string            `gorm:"size:1024;not null" json:"spectrogram_path"`
	StartTime       float64           `gorm:"not null;index" json:"start_time"`
	EndTime         float64           `gorm:"not null;check:chk_syllables_bounds,end_time >= start_time" json:"end_time"`
	BoundsMetadata  datatypes.JSONMap `json:"bounds_metadata,omitempty"`

	// Relationship
	Recording *Recording `gorm:"foreignKey:RecordingID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (Syllable) TableName() string {
	return "syllables"
}

// Duration returns the segment length in seconds.
func (s *Syllable) Duration() float64 {
	return s.EndTime - s.StartTime
}
