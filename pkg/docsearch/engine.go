package docsearch

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lisanmuaddib/tweetbook/pkg/docstore"
	"github.com/lisanmuaddib/tweetbook/pkg/metrics"
)

// DefaultComposeUsername authors documents written by Compose.
const DefaultComposeUsername = "291user"

// ErrUnknownMetric is returned by TopTweets for an unsupported metric.
var ErrUnknownMetric = errors.New("unknown ranking metric")

// Metric is a tweet counter usable for ranking.
type Metric string

const (
	RetweetCount Metric = "retweetCount"
	LikeCount    Metric = "likeCount"
	QuoteCount   Metric = "quoteCount"
)

// Metrics lists the supported ranking metrics.
var Metrics = []Metric{RetweetCount, LikeCount, QuoteCount}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Options configures an Engine.
type Options struct {
	ComposeUsername string
	// Now overrides time.Now for composed documents.
	Now func() time.Time
}

// Engine runs text search and top-N aggregation over the tweet documents.
type Engine struct {
	coll     docstore.Collection
	logger   *logrus.Logger
	username string
	now      func() time.Time
}

func New(coll docstore.Collection, logger *logrus.Logger, opts Options) *Engine {
	username := opts.ComposeUsername
	if username == "" {
		username = DefaultComposeUsername
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		coll:     coll,
		logger:   logger,
		username: username,
		now:      now,
	}
}

// SearchTweets returns every tweet whose content contains all keywords,
// ignoring case. Keywords match literally.
func (e *Engine) SearchTweets(ctx context.Context, keywords []string) (tweets []docstore.TweetDoc, err error) {
	defer metrics.Observe(metrics.Document, "docsearch.tweets", time.Now(), &err)

	tweets = []docstore.TweetDoc{}
	clauses := bson.A{}
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		clauses = append(clauses, bson.D{{Key: "content", Value: bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(kw)},
			{Key: "$options", Value: "i"},
		}}})
	}
	if len(clauses) == 0 {
		return tweets, nil
	}

	e.logger.WithField("keywords", keywords).Debug("Searching tweet documents")

	cur, err := e.coll.Find(ctx, bson.D{{Key: "$and", Value: clauses}})
	if err != nil {
		return nil, fmt.Errorf("failed to search tweets: %w", err)
	}
	if err := cur.All(ctx, &tweets); err != nil {
		return nil, fmt.Errorf("failed to decode tweets: %w", err)
	}

	metrics.ObserveRows(metrics.Document, "docsearch.tweets", len(tweets))
	return tweets, nil
}

// SearchUsers returns the authors whose display name or location contains
// keyword as a whole word, ignoring case. Each username appears once, at
// the position of its first match, with the data of its last match.
func (e *Engine) SearchUsers(ctx context.Context, keyword string) (users []docstore.UserDoc, err error) {
	defer metrics.Observe(metrics.Document, "docsearch.users", time.Now(), &err)

	users = []docstore.UserDoc{}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return users, nil
	}

	word := bson.D{
		{Key: "$regex", Value: `\b` + regexp.QuoteMeta(keyword) + `\b`},
		{Key: "$options", Value: "i"},
	}
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "user.displayname", Value: word}},
		bson.D{{Key: "user.location", Value: word}},
	}}}

	e.logger.WithField("term", keyword).Debug("Searching user documents")

	cur, err := e.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	var tweets []docstore.TweetDoc
	if err := cur.All(ctx, &tweets); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	index := make(map[string]int, len(tweets))
	for _, t := range tweets {
		if i, seen := index[t.User.Username]; seen {
			users[i] = t.User
			continue
		}
		index[t.User.Username] = len(users)
		users = append(users, t.User)
	}

	metrics.ObserveRows(metrics.Document, "docsearch.users", len(users))
	return users, nil
}

// TopTweets returns the n tweets with the highest value of metric. Ties
// keep insertion order.
func (e *Engine) TopTweets(ctx context.Context, metric Metric, n int) (tweets []docstore.TweetDoc, err error) {
	defer metrics.Observe(metrics.Document, "docsearch.top_tweets", time.Now(), &err)

	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	tweets = []docstore.TweetDoc{}
	if n <= 0 {
		return tweets, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: string(metric), Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(n))

	cur, err := e.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to rank tweets by %s: %w", metric, err)
	}
	if err := cur.All(ctx, &tweets); err != nil {
		return nil, fmt.Errorf("failed to decode tweets: %w", err)
	}

	metrics.ObserveRows(metrics.Document, "docsearch.top_tweets", len(tweets))
	return tweets, nil
}

// TopUsers returns the n authors with the highest follower count. An author
// seen on several tweets is ranked by the largest count observed.
func (e *Engine) TopUsers(ctx context.Context, n int) (users []docstore.UserRank, err error) {
	defer metrics.Observe(metrics.Document, "docsearch.top_users", time.Now(), &err)

	users = []docstore.UserRank{}
	if n <= 0 {
		return users, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$user.username"},
			{Key: "maxFollowersCount", Value: bson.D{{Key: "$max", Value: "$user.followersCount"}}},
			{Key: "displayname", Value: bson.D{{Key: "$first", Value: "$user.displayname"}}},
			{Key: "full", Value: bson.D{{Key: "$first", Value: "$user"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "maxFollowersCount", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: int64(n)}},
	}

	cur, err := e.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to rank users: %w", err)
	}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode ranked users: %w", err)
	}

	metrics.ObserveRows(metrics.Document, "docsearch.top_users", len(users))
	return users, nil
}

// Compose inserts a new tweet document authored by the configured user.
func (e *Engine) Compose(ctx context.Context, text string) (tweet *docstore.TweetDoc, err error) {
	defer metrics.Observe(metrics.Document, "docsearch.compose", time.Now(), &err)

	tweet = &docstore.TweetDoc{
		Date:            e.now().Truncate(time.Second).Format(time.RFC3339),
		Content:         text,
		RenderedContent: text,
		User: docstore.UserDoc{
			Username: e.username,
		},
	}

	res, err := e.coll.InsertOne(ctx, tweet)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tweet document: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		tweet.ObjectID = id
	}

	e.logger.WithFields(logrus.Fields{
		"document_id": tweet.ObjectID.Hex(),
		"username":    e.username,
	}).Info("Composed tweet document")
	return tweet, nil
}
