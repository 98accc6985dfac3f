package docstore

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/time/rate"

	"github.com/lisanmuaddib/tweetbook/pkg/metrics"
)

// DefaultBatchSize is the number of documents per InsertMany call.
const DefaultBatchSize = 1000

// maxLineSize bounds a single NDJSON record.
const maxLineSize = 16 << 20

// LoaderOptions configures a bulk load.
type LoaderOptions struct {
	BatchSize int
	// BatchesPerSecond throttles inserts; zero disables throttling.
	BatchesPerSecond float64
	// Reset deletes every existing document before loading.
	Reset bool
}

// LoadReport summarizes a finished load.
type LoadReport struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Batches  int `json:"batches"`
}

// Loader imports newline-delimited JSON tweets into a collection.
type Loader struct {
	coll      Collection
	logger    *logrus.Logger
	batchSize int
	limiter   *rate.Limiter
	reset     bool
}

func NewLoader(coll Collection, logger *logrus.Logger, opts LoaderOptions) *Loader {
	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	var limiter *rate.Limiter
	if opts.BatchesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.BatchesPerSecond), 1)
	}

	return &Loader{
		coll:      coll,
		logger:    logger,
		batchSize: batchSize,
		limiter:   limiter,
		reset:     opts.Reset,
	}
}

// LoadFile loads the NDJSON file at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadReport{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	l.logger.WithField("file", path).Info("Loading documents")
	return l.Load(ctx, f)
}

// Load reads one JSON document per line from r. Blank lines are ignored and
// lines that fail to parse are skipped and counted.
func (l *Loader) Load(ctx context.Context, r io.Reader) (LoadReport, error) {
	var report LoadReport

	if l.reset {
		res, err := l.coll.DeleteMany(ctx, bson.D{})
		if err != nil {
			return report, fmt.Errorf("failed to clear collection: %w", err)
		}
		l.logger.WithField("deleted", res.DeletedCount).Info("Cleared collection")
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	batch := make([]interface{}, 0, l.batchSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var doc bson.D
		if err := bson.UnmarshalExtJSON(line, false, &doc); err != nil {
			report.Skipped++
			l.logger.WithFields(logrus.Fields{
				"line":  lineNo,
				"error": err,
			}).Warn("Skipping malformed document")
			continue
		}

		batch = append(batch, doc)
		if len(batch) == l.batchSize {
			if err := l.flush(ctx, batch, &report); err != nil {
				return report, err
			}
			batch = make([]interface{}, 0, l.batchSize)
		}
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("failed to read documents: %w", err)
	}
	if len(batch) > 0 {
		if err := l.flush(ctx, batch, &report); err != nil {
			return report, err
		}
	}

	l.logger.WithFields(logrus.Fields{
		"inserted": report.Inserted,
		"skipped":  report.Skipped,
		"batches":  report.Batches,
	}).Info("Load completed")
	return report, nil
}

func (l *Loader) flush(ctx context.Context, batch []interface{}, report *LoadReport) error {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	res, err := l.coll.InsertMany(ctx, batch)
	if err != nil {
		return fmt.Errorf("failed to insert batch %d: %w", report.Batches+1, err)
	}

	report.Batches++
	report.Inserted += len(res.InsertedIDs)
	metrics.LoadedDocuments.Add(float64(len(res.InsertedIDs)))

	l.logger.WithFields(logrus.Fields{
		"batch": report.Batches,
		"size":  len(batch),
	}).Debug("Inserted batch")
	return nil
}
