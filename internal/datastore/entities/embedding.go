package entities

import "gorm.io/datatypes"

// Embedding points at a feature vector stored outside the catalog.
type Embedding struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	SyllableID    uint              `gorm:"not null;index" json:"syllable_id"`
	ModelVersion  string            `gorm:"size:100;not null;index" json:"model_version"`
	EmbeddingPath string            `gorm:"size:1024;not null" json:"embedding_path"`
	Dimensions    int               `gorm:"not null;check:chk_embeddings_dimensions,dimensions > 0" json:"dimensions"`
	ModelMetadata datatypes.JSONMap `json:"model_metadata,omitempty"`

	// Relationship
	Syllable *Syllable `gorm:"foreignKey:SyllableID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (Embedding) TableName() string {
	return "embeddings"
}
