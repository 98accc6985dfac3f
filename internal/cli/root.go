package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lisanmuaddib/tweetbook/internal/config"
	tweetbook "github.com/lisanmuaddib/tweetbook/pkg"
	"github.com/lisanmuaddib/tweetbook/pkg/db"
	"github.com/lisanmuaddib/tweetbook/pkg/docstore"
	"github.com/lisanmuaddib/tweetbook/pkg/logging"
)

// Option customizes a command tree.
type Option func(*state)

// WithDocuments uses coll instead of connecting to the configured document
// store.
func WithDocuments(coll docstore.Collection) Option {
	return func(s *state) {
		s.documents = coll
	}
}

// state is shared by every command of one invocation.
type state struct {
	v       *viper.Viper
	cfgFile string
	noColor bool

	cfg    *config.Config
	logger *logrus.Logger
	runID  string

	store          *db.Store
	client         *docstore.Client
	documents      docstore.Collection
	resetDocuments bool
}

// Execute runs the command line with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the full command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	s := &state{v: viper.New()}
	for _, opt := range opts {
		opt(s)
	}

	rootCmd := &cobra.Command{
		Use:   "tweetbook",
		Short: "Tweetbook: feeds, search and rankings over a tweet store",
		Long: `Tweetbook reads and writes a relational micro-blogging store (users, tweets,
follows, retweets, hashtags) and searches a document collection of exported tweets.

Configuration is read from an optional YAML file, TWEETBOOK_* environment
variables and the flags below.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&s.cfgFile, "config", "", "config file (YAML)")
	flags.BoolVar(&s.noColor, "no-color", false, "disable colored output")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", logging.FormatColor, "log format (color, json, text)")
	flags.String("db-driver", db.DriverSQLite, "relational driver (sqlite, postgres)")
	flags.String("db-path", "./tweetbook.db", "sqlite database file")
	flags.String("db-dsn", "", "full data source name, overrides the other database settings")
	flags.String("mongo-uri", "mongodb://localhost:27017", "document store URI")

	bindings := map[string]string{
		"log.level":       "log-level",
		"log.format":      "log-format",
		"database.driver": "db-driver",
		"database.path":   "db-path",
		"database.dsn":    "db-dsn",
		"mongo.uri":       "mongo-uri",
	}
	for key, flag := range bindings {
		cobra.CheckErr(s.v.BindPFlag(key, flags.Lookup(flag)))
	}

	rootCmd.AddCommand(
		newConfigCommand(s),
		newUsersCommand(s),
		newFeedCommand(s),
		newFollowersCommand(s),
		newFolloweesCommand(s),
		newProfileCommand(s),
		newFollowCommand(s),
		newComposeCommand(s),
		newRetweetCommand(s),
		newStatsCommand(s),
		newSearchCommand(s),
		newDocCommand(s),
		newServeCommand(s),
	)
	return rootCmd
}

// load reads configuration and the logger. Backends are opened lazily by
// the commands that need them.
func (s *state) load(cmd *cobra.Command) error {
	if s.cfgFile != "" {
		s.v.SetConfigFile(s.cfgFile)
	}

	cfg, err := config.Load(s.v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	s.cfg = cfg

	logger, err := logging.New(cfg.Logging(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	s.runID = uuid.New().String()
	logger.AddHook(runIDHook(s.runID))
	s.logger = logger

	logger.WithFields(logrus.Fields{
		"operation": cmd.CommandPath(),
		"config":    s.v.ConfigFileUsed(),
	}).Debug("Starting command")
	return nil
}

// run opens the relational store, and the document store when documents
// is set, calls fn and releases both.
func (s *state) run(ctx context.Context, documents bool, fn func(app *tweetbook.App) error) (err error) {
	defer func() {
		if cerr := s.close(ctx); err == nil {
			err = cerr
		}
	}()

	app, err := s.open(ctx, documents)
	if err != nil {
		return err
	}
	return fn(app)
}

func (s *state) open(ctx context.Context, documents bool) (*tweetbook.App, error) {
	store, err := db.Open(s.cfg.DB(), s.logger)
	if err != nil {
		return nil, err
	}
	s.store = store

	appCfg := tweetbook.Config{
		Store:  store,
		Logger: s.logger,
		Search: s.cfg.SearchOptions(),
	}

	if documents {
		coll := s.documents
		if coll == nil {
			client, err := docstore.Connect(ctx, s.cfg.Docstore(), s.logger)
			if err != nil {
				return nil, err
			}
			s.client = client
			coll = client.Collection()
		}
		appCfg.Documents = docstore.NewBreakerCollection(coll, s.cfg.Breaker(), s.logger, "documents")
		appCfg.DocSearch.ComposeUsername = s.cfg.Mongo.ComposeUsername
		appCfg.DocLoader = docstore.LoaderOptions{
			BatchSize:        s.cfg.Loader.BatchSize,
			BatchesPerSecond: s.cfg.Loader.BatchesPerSecond,
			Reset:            s.resetDocuments,
		}
	}

	return tweetbook.New(appCfg)
}

func (s *state) close(ctx context.Context) error {
	if s.client != nil {
		if err := s.client.Close(ctx); err != nil {
			s.logger.WithError(err).Warn("Failed to close document store")
		}
		s.client = nil
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		s.store = nil
	}
	return nil
}

// runIDHook stamps every log entry of one invocation.
type runIDHook string

func (h runIDHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h runIDHook) Fire(entry *logrus.Entry) error {
	entry.Data["run_id"] = string(h)
	return nil
}
