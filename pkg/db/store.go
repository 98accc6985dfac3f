package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Store is the shared relational handle passed to every component. It owns
// the id sequencer so that concurrent inserts never assign the same id.
type Store struct {
	DB     *gorm.DB
	Logger *logrus.Logger
	// Clock overrides time.Now for timestamps written by the store's users.
	Clock func() time.Time

	seqMu sync.Mutex
}

func NewStore(db *gorm.DB, logger *logrus.Logger) *Store {
	return &Store{
		DB:     db,
		Logger: logger,
	}
}

// Now returns the current time in UTC at second precision.
func (s *Store) Now() time.Time {
	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}
	return clock().UTC().Truncate(time.Second)
}

// Dialect is the gorm dialector name, "sqlite" or "postgres".
func (s *Store) Dialect() string {
	return s.DB.Dialector.Name()
}

// ContainsExpr returns a case-sensitive substring predicate on column with a
// single placeholder for the needle.
func (s *Store) ContainsExpr(column string) string {
	if s.Dialect() == DriverPostgres {
		return "strpos(" + column + ", ?) > 0"
	}
	return "instr(" + column + ", ?) > 0"
}

// LowerExpr lowercases column the same way strings.ToLower does.
func (s *Store) LowerExpr(column string) string {
	if s.Dialect() == DriverPostgres {
		return "LOWER(" + column + ")"
	}
	return sqliteLower + "(" + column + ")"
}

// InsertWithNextID runs fn inside a transaction with id set to one more than
// the current maximum of table.column (1 for an empty table).
func (s *Store) InsertWithNextID(ctx context.Context, table, column string, fn func(tx *gorm.DB, id int64) error) (int64, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	var id int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var max sql.NullInt64
		row := tx.Table(table).Select("MAX(" + column + ")").Row()
		if err := row.Scan(&max); err != nil {
			return fmt.Errorf("failed to read max %s.%s: %w", table, column, err)
		}
		id = max.Int64 + 1
		return fn(tx, id)
	})
	if err != nil {
		return 0, err
	}

	s.Logger.WithFields(logrus.Fields{
		"table": table,
		"id":    id,
	}).Debug("Assigned next id")
	return id, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EscapeLike escapes LIKE wildcards so the value matches literally with
// ESCAPE '\'.
func EscapeLike(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(v)
}
