package tweetbook

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/tweetbook/pkg/compose"
	"github.com/lisanmuaddib/tweetbook/pkg/db"
	"github.com/lisanmuaddib/tweetbook/pkg/docsearch"
	"github.com/lisanmuaddib/tweetbook/pkg/docstore"
	"github.com/lisanmuaddib/tweetbook/pkg/feed"
	"github.com/lisanmuaddib/tweetbook/pkg/graph"
	"github.com/lisanmuaddib/tweetbook/pkg/search"
	"github.com/lisanmuaddib/tweetbook/pkg/users"
)

// App bundles the core components built over one relational store and an
// optional document collection.
type App struct {
	Graph   *graph.Graph
	Feed    *feed.Composer
	Search  *search.Engine
	Compose *compose.Composer
	Users   *users.Registry

	// Docs and Loader are nil when no document collection is configured.
	Docs   *docsearch.Engine
	Loader *docstore.Loader

	store  *db.Store
	logger *logrus.Logger
}

type Config struct {
	Store     *db.Store
	Logger    *logrus.Logger
	Search    search.Options
	Documents docstore.Collection
	DocSearch docsearch.Options
	DocLoader docstore.LoaderOptions
}

func New(config Config) (*App, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("Store is required")
	}
	if config.Logger == nil {
		config.Logger = config.Store.Logger
	}

	app := &App{
		Graph:   graph.New(config.Store),
		Feed:    feed.New(config.Store),
		Search:  search.New(config.Store, config.Search),
		Compose: compose.New(config.Store),
		Users:   users.New(config.Store),
		store:   config.Store,
		logger:  config.Logger,
	}

	if config.Documents != nil {
		app.Docs = docsearch.New(config.Documents, config.Logger, config.DocSearch)
		app.Loader = docstore.NewLoader(config.Documents, config.Logger, config.DocLoader)
	}

	config.Logger.WithFields(logrus.Fields{
		"dialect":   config.Store.Dialect(),
		"documents": app.Docs != nil,
	}).Debug("Initialized tweetbook components")
	return app, nil
}

// HasDocuments reports whether document search is available.
func (a *App) HasDocuments() bool {
	return a.Docs != nil
}

// Ping checks the relational connection.
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.store.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql pool: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
