package search

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/tweetbook/pkg/db"
	"github.com/lisanmuaddib/tweetbook/pkg/pagination"
)

// Options sets the per-term page sizes used by tweet search.
type Options struct {
	HashtagPageSize int
	TextPageSize    int
}

// DefaultOptions returns the historical page sizes: hashtag terms are
// paged by 5 and free-text terms by 10.
func DefaultOptions() Options {
	return Options{
		HashtagPageSize: pagination.HashtagPageSize,
		TextPageSize:    pagination.TextPageSize,
	}
}

// Engine runs keyword searches against the relational store.
type Engine struct {
	store  *db.Store
	logger *logrus.Logger
	opts   Options
}

func New(store *db.Store, opts Options) *Engine {
	defaults := DefaultOptions()
	if opts.HashtagPageSize < 1 {
		opts.HashtagPageSize = defaults.HashtagPageSize
	}
	if opts.TextPageSize < 1 {
		opts.TextPageSize = defaults.TextPageSize
	}
	return &Engine{
		store:  store,
		logger: store.Logger,
		opts:   opts,
	}
}

// ParseTerms splits a query on whitespace.
func ParseTerms(query string) []string {
	return strings.Fields(query)
}
