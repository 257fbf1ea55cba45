package repository

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/tphakala/syllable-catalog/internal/errors"
)

// Sentinel errors for repository operations.
// These typed errors enable callers to distinguish between different
// failure modes without relying on string matching or GORM-specific errors.
var (
	// ErrRecordingNotFound indicates the requested recording does not exist.
	ErrRecordingNotFound = errors.NewStd("recording not found")

	// ErrSyllableNotFound indicates the requested syllable does not exist.
	ErrSyllableNotFound = errors.NewStd("syllable not found")

	// ErrEmbeddingNotFound indicates the requested embedding does not exist.
	ErrEmbeddingNotFound = errors.NewStd("embedding not found")

	// ErrIndexRunNotFound indicates no indexing run exists with that run ID.
	ErrIndexRunNotFound = errors.NewStd("index run not found")

	// ErrDuplicateKey indicates a unique constraint violation.
	ErrDuplicateKey = errors.NewStd("duplicate key")

	// ErrForeignKey indicates a reference to a parent row that does not exist,
	// or removal of a parent that is still referenced.
	ErrForeignKey = errors.NewStd("foreign key violation")

	// ErrCheckConstraint indicates a row failed a CHECK constraint.
	ErrCheckConstraint = errors.NewStd("check constraint violation")

	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.NewStd("invalid input")
)

// Driver error codes not covered by GORM's TranslateError.
const (
	sqliteConstraintCheck   = 275  // SQLITE_CONSTRAINT_CHECK
	sqliteConstraintFK      = 787  // SQLITE_CONSTRAINT_FOREIGNKEY
	sqliteConstraintPK      = 1555 // SQLITE_CONSTRAINT_PRIMARYKEY
	sqliteConstraintUnique  = 2067 // SQLITE_CONSTRAINT_UNIQUE
	mysqlDuplicateEntry     = 1062
	mysqlRowIsReferenced    = 1451
	mysqlNoReferencedRow    = 1452
	mysqlCheckConstraintErr = 3819
)

// notFound wraps a sentinel so it carries the not-found category.
func notFound(sentinel error, table string) error {
	return errors.New(sentinel).
		Component("datastore.repository").
		Category(errors.CategoryNotFound).
		Context("table", table).
		Build()
}

// invalidInput reports a rejected argument before any SQL runs.
func invalidInput(operation, format string, args ...any) error {
	return errors.New(fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))).
		Component("datastore.repository").
		Category(errors.CategoryValidation).
		Context("operation", operation).
		Build()
}

// translateError maps constraint violations from either engine onto the
// integrity category and wraps everything else as a database error.
func translateError(err error, operation, table string) error {
	if err == nil {
		return nil
	}

	if sentinel := classifyConstraint(err); sentinel != nil {
		return errors.New(fmt.Errorf("%s on %s: %w: %w", operation, table, sentinel, err)).
			Component("datastore.repository").
			Category(errors.CategoryIntegrity).
			Context("operation", operation).
			Context("table", table).
			Build()
	}

	return errors.New(fmt.Errorf("%s on %s: %w", operation, table, err)).
		Component("datastore.repository").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Context("table", table).
		Build()
}

// classifyConstraint returns the sentinel for a constraint violation, or nil.
func classifyConstraint(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrForeignKey
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch int(sqliteErr.ExtendedCode) {
		case sqliteConstraintPK, sqliteConstraintUnique:
			return ErrDuplicateKey
		case sqliteConstraintFK:
			return ErrForeignKey
		case sqliteConstraintCheck:
			return ErrCheckConstraint
		}
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlDuplicateEntry:
			return ErrDuplicateKey
		case mysqlRowIsReferenced, mysqlNoReferencedRow:
			return ErrForeignKey
		case mysqlCheckConstraintErr:
			return ErrCheckConstraint
		}
	}

	// Translated check violations carry no driver code, only the message.
	if strings.Contains(strings.ToLower(err.Error()), "check constraint") {
		return ErrCheckConstraint
	}

	return nil
}
