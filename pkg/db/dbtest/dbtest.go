// Package dbtest provides a throwaway sqlite-backed store and seeding helpers
// for tests.
package dbtest

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/tweetbook/pkg/db"
)

// NewStore opens a fresh sqlite database inside dir.
func NewStore(dir string) (*db.Store, error) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return db.Open(db.Config{
		Driver: db.DriverSQLite,
		Path:   filepath.Join(dir, "tweetbook.db"),
	}, logger)
}

// Seed inserts each row (pointers to model structs) in order.
func Seed(store *db.Store, rows ...interface{}) error {
	for _, row := range rows {
		if err := store.DB.Create(row).Error; err != nil {
			return fmt.Errorf("failed to seed %T: %w", row, err)
		}
	}
	return nil
}

// Day returns midnight UTC of the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Clock is a manually advanced clock for Store.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
