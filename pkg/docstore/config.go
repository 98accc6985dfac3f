package docstore

import (
	"fmt"
	"strings"
	"time"
)

// Config locates the tweet collection.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Validate checks that all connection fields are present.
func (c Config) Validate() error {
	var missing []string
	if c.URI == "" {
		missing = append(missing, "uri")
	}
	if c.Database == "" {
		missing = append(missing, "database")
	}
	if c.Collection == "" {
		missing = append(missing, "collection")
	}
	if len(missing) > 0 {
		return fmt.Errorf("document store config missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// BreakerConfig tunes the circuit breaker around the collection.
type BreakerConfig struct {
	Enabled     bool
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// MinRequests is the number of requests in an interval before the
	// failure ratio is considered.
	MinRequests      uint32
	ReadyToTripRatio float64
}
