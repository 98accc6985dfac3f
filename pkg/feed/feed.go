package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/tweetbook/pkg/db"
	"github.com/lisanmuaddib/tweetbook/pkg/db/models"
	"github.com/lisanmuaddib/tweetbook/pkg/metrics"
	"github.com/lisanmuaddib/tweetbook/pkg/pagination"
)

// timelineFilter selects tweets written by a followee or retweeted by one.
// Each tweet appears once however many paths reach it.
const timelineFilter = `writer IN (SELECT flwee FROM follows WHERE flwer = ?)
	OR tid IN (
		SELECT retweets.tid FROM retweets
		JOIN follows ON follows.flwee = retweets.usr
		WHERE follows.flwer = ?
	)`

// Composer builds a user's home timeline.
type Composer struct {
	store  *db.Store
	logger *logrus.Logger
}

func New(store *db.Store) *Composer {
	return &Composer{
		store:  store,
		logger: store.Logger,
	}
}

// Timeline returns one page of tweets from the people usr follows, newest
// first. Ties on date keep tweet id order.
func (c *Composer) Timeline(ctx context.Context, usr int64, cursor pagination.Cursor) (tweets []models.Tweet, err error) {
	defer metrics.Observe(metrics.Relational, "feed.timeline", time.Now(), &err)

	c.logger.WithFields(logrus.Fields{
		"usr":  usr,
		"page": cursor.Page(),
	}).Debug("Composing timeline")

	tweets = []models.Tweet{}
	err = c.store.DB.WithContext(ctx).
		Where(timelineFilter, usr, usr).
		Order("tdate DESC").
		Order("tid ASC").
		Offset(cursor.Offset()).
		Limit(cursor.Limit()).
		Find(&tweets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}

	metrics.ObserveRows(metrics.Relational, "feed.timeline", len(tweets))
	return tweets, nil
}
