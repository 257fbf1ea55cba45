package entities

import "time"

// Annotation is a typed key/value label on a Syllable, e.g. type "label",
// key "species", value "zebra_finch".
// Key and Value map to prefixed columns because KEY is reserved in MySQL.
type Annotation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SyllableID     uint      `gorm:"not null;index" json:"syllable_id"`
	AnnotationType string    `gorm:"size:50;not null;index:idx_annotations_type_key,priority:1" json:"annotation_type"`
	Key            string    `gorm:"column:annotation_key;size:100;not null;index:idx_annotations_type_key,priority:2" json:"key"`
	Value          string    `gorm:"column:annotation_value;type:text" json:"value"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	// Relationship
	Syllable *Syllable `gorm:"foreignKey:SyllableID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (Annotation) TableName() string {
	return "annotations"
}
