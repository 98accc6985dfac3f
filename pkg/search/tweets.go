package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/tweetbook/pkg/db/models"
	"github.com/lisanmuaddib/tweetbook/pkg/metrics"
	"github.com/lisanmuaddib/tweetbook/pkg/pagination"
)

// SearchTweets runs one sub-query per term and merges the results. A term
// starting with '#' matches hashtag mentions exactly; any other term matches
// tweet text as a case-sensitive substring. Each sub-query is paged on its
// own, so page selects the same page of every term. The merged result keeps
// the first occurrence of each tweet, in term order then row order.
func (e *Engine) SearchTweets(ctx context.Context, terms []string, page int) (tweets []models.Tweet, err error) {
	defer metrics.Observe(metrics.Relational, "search.tweets", time.Now(), &err)

	merged := newOrderedTweets()
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}

		var rows []models.Tweet
		if tag, ok := strings.CutPrefix(term, "#"); ok {
			if tag == "" {
				continue
			}
			rows, err = e.byHashtag(ctx, tag, pagination.At(page, e.opts.HashtagPageSize))
		} else {
			rows, err = e.byText(ctx, term, pagination.At(page, e.opts.TextPageSize))
		}
		if err != nil {
			return nil, err
		}

		e.logger.WithFields(logrus.Fields{
			"term": term,
			"page": page,
			"rows": len(rows),
		}).Debug("Searched term")

		merged.add(rows)
	}

	tweets = merged.list()
	metrics.ObserveRows(metrics.Relational, "search.tweets", len(tweets))
	return tweets, nil
}

func (e *Engine) byHashtag(ctx context.Context, tag string, cursor pagination.Cursor) ([]models.Tweet, error) {
	rows := []models.Tweet{}
	err := e.store.DB.WithContext(ctx).
		Table("tweets").
		Select("tweets.tid, tweets.writer, tweets.tdate, tweets.text, tweets.replyto").
		Joins("JOIN mentions ON mentions.tid = tweets.tid").
		Where("mentions.term = ?", tag).
		Order("tweets.tdate DESC").
		Order("tweets.tid ASC").
		Offset(cursor.Offset()).
		Limit(cursor.Limit()).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search hashtag %q: %w", tag, err)
	}
	return rows, nil
}

func (e *Engine) byText(ctx context.Context, needle string, cursor pagination.Cursor) ([]models.Tweet, error) {
	rows := []models.Tweet{}
	err := e.store.DB.WithContext(ctx).
		Where(e.store.ContainsExpr("text"), needle).
		Order("tdate DESC").
		Order("tid ASC").
		Offset(cursor.Offset()).
		Limit(cursor.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search text %q: %w", needle, err)
	}
	return rows, nil
}

// orderedTweets is a set of tweets keyed by id that remembers insertion
// order.
type orderedTweets struct {
	order []int64
	byID  map[int64]models.Tweet
}

func newOrderedTweets() *orderedTweets {
	return &orderedTweets{byID: make(map[int64]models.Tweet)}
}

func (o *orderedTweets) add(rows []models.Tweet) {
	for _, row := range rows {
		if _, seen := o.byID[row.Tid]; seen {
			continue
		}
		o.byID[row.Tid] = row
		o.order = append(o.order, row.Tid)
	}
}

func (o *orderedTweets) list() []models.Tweet {
	out := make([]models.Tweet, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, o.byID[id])
	}
	return out
}
