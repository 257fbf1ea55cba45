// Package metrics provides constants used across metric definitions.
package metrics

// Status label values.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCommitted = "committed"
	StatusRollback  = "rollback"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// File outcome label values for indexer metrics.
const (
	OutcomeIndexed = "indexed"
	OutcomeSkipped = "skipped"
)

// Operation label values for datastore metrics.
const (
	OpDbQuery   = "db_query"
	OpDbInsert  = "db_insert"
	OpDbDelete  = "db_delete"
	OpSession   = "session"
	OpQueryExec = "query_execute"
)

// Histogram bucket parameters.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~32s with 15 buckets).
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms.
	BucketStart10ms = 0.01
	// BucketStart1 is the starting bucket for count histograms.
	BucketStart1 = 1.0

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
	// BucketCount15 defines 15 exponential buckets.
	BucketCount15 = 15
)
