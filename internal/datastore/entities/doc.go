// Package entities defines the GORM entity models for the syllable catalog schema.
//
// # Core Entities
//
//   - Recording: one spectrogram container on disk, unique by file path
//   - Syllable: a time-bounded segment of a Recording
//   - Embedding: a feature vector reference produced by a model for a Syllable
//   - Annotation: a typed key/value label attached to a Syllable
//
// Children reference their parent with ON DELETE CASCADE, so removing a
// Recording removes its Syllables and everything hanging off them.
//
// # Bookkeeping
//
//   - IndexRun: audit trail of filesystem indexing runs
package entities

// All returns every catalog model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Recording{},
		&Syllable{},
		&Embedding{},
		&Annotation{},
		&IndexRun{},
	}
}
