package datastore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/syllable-catalog/internal/datastore/query"
	"github.com/tphakala/syllable-catalog/internal/datastore/repository"
	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/logger"
	"github.com/tphakala/syllable-catalog/internal/observability/metrics"
)

// Session is one unit of work. Everything done through it commits or rolls
// back together. A Session must not be used after WithSession returns.
type Session struct {
	tx      *gorm.DB
	metrics *metrics.DatastoreMetrics
}

// DB returns the session's transaction handle.
func (s *Session) DB() *gorm.DB {
	return s.tx
}

// Recordings returns a RecordingRepository bound to this session.
func (s *Session) Recordings() repository.RecordingRepository {
	return repository.NewRecordingRepository(s.tx)
}

// Syllables returns a SyllableRepository bound to this session.
func (s *Session) Syllables() repository.SyllableRepository {
	return repository.NewSyllableRepository(s.tx)
}

// Embeddings returns an EmbeddingRepository bound to this session.
func (s *Session) Embeddings() repository.EmbeddingRepository {
	return repository.NewEmbeddingRepository(s.tx)
}

// Annotations returns an AnnotationRepository bound to this session.
func (s *Session) Annotations() repository.AnnotationRepository {
	return repository.NewAnnotationRepository(s.tx)
}

// IndexRuns returns an IndexRunRepository bound to this session.
func (s *Session) IndexRuns() repository.IndexRunRepository {
	return repository.NewIndexRunRepository(s.tx)
}

// Query returns a fresh query builder over this session.
func (s *Session) Query() *query.Builder {
	return query.New(s.tx, query.WithMetrics(s.metrics))
}

// WithSession runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back when fn returns an error or panics. fn's error
// is returned unchanged and a panic is re-raised after the rollback.
// A failed commit is reported as a transaction error.
func (e *Engine) WithSession(ctx context.Context, fn func(*Session) error) (err error) {
	start := time.Now()

	tx := e.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return errors.TransactionError(fmt.Errorf("failed to begin transaction: %w", tx.Error), "begin")
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, gorm.ErrInvalidTransaction) {
			e.log.Warn("rollback failed", logger.Error(rbErr))
		}
		e.recordSession(metrics.StatusRollback, start)
		if r := recover(); r != nil {
			e.log.Error("session panicked, transaction rolled back",
				logger.Any("panic", r))
			panic(r)
		}
	}()

	if err = fn(&Session{tx: tx, metrics: e.metrics}); err != nil {
		e.log.Debug("session failed, rolling back", logger.Error(err))
		return err
	}

	if cErr := tx.Commit().Error; cErr != nil {
		// the deferred rollback is a no-op on a connection whose commit failed
		return errors.TransactionError(fmt.Errorf("failed to commit transaction: %w", cErr), "commit")
	}
	committed = true
	e.recordSession(metrics.StatusCommitted, start)
	return nil
}

func (e *Engine) recordSession(status string, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordTransaction(status, time.Since(start).Seconds())
	e.metrics.RecordDbOperation(metrics.OpSession, "", status)
}
