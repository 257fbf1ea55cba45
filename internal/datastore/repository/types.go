package repository

import "github.com/tphakala/syllable-catalog/internal/datastore/entities"

// SyllableSpec describes one syllable to be inserted by SyllableRepository.BulkCreate.
type SyllableSpec struct {
	RecordingID     uint
	SpectrogramPath string
	StartTime       float64
	EndTime         float64
	BoundsMetadata  map[string]any
}

// EmbeddingSpec describes one embedding reference.
type EmbeddingSpec struct {
	SyllableID    uint
	ModelVersion  string
	EmbeddingPath string
	Dimensions    int
	ModelMetadata map[string]any
}

// AnnotationSpec describes one key/value label.
type AnnotationSpec struct {
	SyllableID     uint
	AnnotationType string
	Key            string
	Value          string
}

// IndexRunUpdate carries the counters written when an indexing run changes state.
type IndexRunUpdate struct {
	State           entities.IndexRunStatus
	DiscoveredFiles int
	IndexedFiles    int
	SkippedFiles    int
	TotalSyllables  int
	ErrorMessage    string
}
