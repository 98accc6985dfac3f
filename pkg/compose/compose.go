package compose

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lisanmuaddib/tweetbook/pkg/db"
	"github.com/lisanmuaddib/tweetbook/pkg/db/models"
	"github.com/lisanmuaddib/tweetbook/pkg/metrics"
)

// Composed is a newly written tweet and the hashtag terms recorded for it.
type Composed struct {
	Tweet    models.Tweet `json:"tweet"`
	Hashtags []string     `json:"hashtags"`
}

// TweetStats counts the interactions with one tweet.
type TweetStats struct {
	Tid      int64 `json:"tid"`
	Retweets int64 `json:"retweets"`
	Replies  int64 `json:"replies"`
}

// Composer writes tweets and retweets.
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

// Compose stores a new tweet by author, optionally replying to replyTo. The
// tweet row, its hashtags and mentions are written in one transaction.
func (c *Composer) Compose(ctx context.Context, author int64, text string, replyTo *int64) (composed *Composed, err error) {
	defer metrics.Observe(metrics.Relational, "compose.tweet", time.Now(), &err)

	composed = &Composed{
		Tweet: models.Tweet{
			Writer:  author,
			Tdate:   c.store.Now(),
			Text:    text,
			Replyto: replyTo,
		},
		Hashtags: ExtractHashtags(text),
	}

	tid, err := c.store.InsertWithNextID(ctx, "tweets", "tid", func(tx *gorm.DB, id int64) error {
		composed.Tweet.Tid = id
		if err := tx.Create(&composed.Tweet).Error; err != nil {
			return fmt.Errorf("failed to insert tweet: %w", err)
		}

		for _, term := range composed.Hashtags {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Hashtag{Term: term}).Error
			if err != nil {
				return fmt.Errorf("failed to save hashtag %q: %w", term, err)
			}
			if err := tx.Create(&models.Mention{Tid: id, Term: term}).Error; err != nil {
				return fmt.Errorf("failed to save mention %q: %w", term, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"tid":      tid,
		"usr":      author,
		"hashtags": composed.Hashtags,
	}).Info("Composed tweet")
	return composed, nil
}

// Retweet records that usr retweeted tid. Retweeting again refreshes the
// retweet date.
func (c *Composer) Retweet(ctx context.Context, usr, tid int64) (err error) {
	defer metrics.Observe(metrics.Relational, "compose.retweet", time.Now(), &err)

	rt := models.Retweet{
		Usr:   usr,
		Tid:   tid,
		Rdate: c.store.Now(),
	}

	err = c.store.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "usr"}, {Name: "tid"}},
			DoUpdates: clause.AssignmentColumns([]string{"rdate"}),
		}).
		Create(&rt).Error
	if err != nil {
		return fmt.Errorf("failed to save retweet: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"usr": usr,
		"tid": tid,
	}).Info("Saved retweet")
	return nil
}

// Stats counts retweets of and replies to tid.
func (c *Composer) Stats(ctx context.Context, tid int64) (stats *TweetStats, err error) {
	defer metrics.Observe(metrics.Relational, "compose.stats", time.Now(), &err)

	stats = &TweetStats{Tid: tid}
	err = c.store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Tweet{}).Where("tid = ?", tid).Count(&exists).Error; err != nil {
			return fmt.Errorf("failed to look up tweet: %w", err)
		}
		if exists == 0 {
			return db.ErrNotFound
		}
		if err := tx.Model(&models.Retweet{}).Where("tid = ?", tid).Count(&stats.Retweets).Error; err != nil {
			return fmt.Errorf("failed to count retweets: %w", err)
		}
		if err := tx.Model(&models.Tweet{}).Where("replyto = ?", tid).Count(&stats.Replies).Error; err != nil {
			return fmt.Errorf("failed to count replies: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
