package docstore

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lisanmuaddib/tweetbook/pkg/metrics"
)

// BreakerCollection wraps a Collection with circuit breaking. Once tripped
// it fails fast with gobreaker.ErrOpenState until the timeout elapses. It
// never retries.
type BreakerCollection struct {
	coll Collection
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerCollection returns coll unchanged when the breaker is disabled.
func NewBreakerCollection(coll Collection, cfg BreakerConfig, logger *logrus.Logger, name string) Collection {
	if !cfg.Enabled {
		return coll
	}

	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 3
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			entry := logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			if to == gobreaker.StateOpen {
				entry.Warn("Circuit breaker tripped")
				return
			}
			entry.Info("Circuit breaker state changed")
		},
	}

	metrics.BreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return &BreakerCollection{
		coll: coll,
		cb:   gobreaker.NewCircuitBreaker(st),
	}
}

// State reports the breaker state.
func (b *BreakerCollection) State() gobreaker.State {
	return b.cb.State()
}

// Find implements Collection
func (b *BreakerCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return b.coll.Find(ctx, filter, opts...)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*mongo.Cursor), nil
}

// Aggregate implements Collection
func (b *BreakerCollection) Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error) {
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return b.coll.Aggregate(ctx, pipeline, opts...)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*mongo.Cursor), nil
}

// InsertOne implements Collection
func (b *BreakerCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return b.coll.InsertOne(ctx, document, opts...)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*mongo.InsertOneResult), nil
}

// InsertMany implements Collection
func (b *BreakerCollection) InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return b.coll.InsertMany(ctx, documents, opts...)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*mongo.InsertManyResult), nil
}

// DeleteMany implements Collection
func (b *BreakerCollection) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return b.coll.DeleteMany(ctx, filter, opts...)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*mongo.DeleteResult), nil
}
