package entities

import "time"

// IndexRunStatus represents the stage an indexing run has reached.
type IndexRunStatus string

const (
	IndexRunDiscovering  IndexRunStatus = "discovering"
	IndexRunValidating   IndexRunStatus = "validating"
	IndexRunChecksumming IndexRunStatus = "checksumming"
	IndexRunPopulating   IndexRunStatus = "populating"
	IndexRunCompleted    IndexRunStatus = "completed"
	IndexRunFailed       IndexRunStatus = "failed"
)

// IndexRun records one filesystem indexing run. Rows are written outside the
// populate transaction so failed runs stay visible.
type IndexRun struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	RunID           string         `gorm:"size:36;not null;uniqueIndex" json:"run_id"`
	State           IndexRunStatus `gorm:"type:varchar(20);not null;default:'discovering'" json:"state"`
	BaseDir         string         `gorm:"size:1024;not null" json:"base_dir"`
	DiscoveredFiles int            `gorm:"default:0" json:"discovered_files"`
	IndexedFiles    int            `gorm:"default:0" json:"indexed_files"`
	SkippedFiles    int            `gorm:"default:0" json:"skipped_files"`
	TotalSyllables  int            `gorm:"default:0" json:"total_syllables"`
	ErrorMessage    string         `gorm:"type:text" json:"error_message,omitempty"`
	StartedAt       time.Time      `gorm:"not null;index" json:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (IndexRun) TableName() string {
	return "index_runs"
}

// IsTerminal returns true once the run has completed or failed.
func (r *IndexRun) IsTerminal() bool {
	return r.State == IndexRunCompleted || r.State == IndexRunFailed
}

// Duration returns how long the run took, or 0 while it is still active.
func (r *IndexRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
