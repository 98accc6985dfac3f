package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lisanmuaddib/tweetbook/pkg/db"
	"github.com/lisanmuaddib/tweetbook/pkg/db/models"
	"github.com/lisanmuaddib/tweetbook/pkg/metrics"
	"github.com/lisanmuaddib/tweetbook/pkg/pagination"
)

// Profile summarizes a user for the follower browsing view.
type Profile struct {
	Usr            int64  `json:"usr"`
	Name           string `json:"name"`
	TweetCount     int64  `json:"tweet_count"`
	FollowingCount int64  `json:"following_count"`
	FollowerCount  int64  `json:"follower_count"`
}

// Graph answers questions about the directed follow relation.
type Graph struct {
	store  *db.Store
	logger *logrus.Logger
}

func New(store *db.Store) *Graph {
	return &Graph{
		store:  store,
		logger: store.Logger,
	}
}

// Followees returns the ids usr follows, ascending.
func (g *Graph) Followees(ctx context.Context, usr int64) (ids []int64, err error) {
	defer metrics.Observe(metrics.Relational, "graph.followees", time.Now(), &err)

	ids = []int64{}
	err = g.store.DB.WithContext(ctx).
		Model(&models.Follow{}).
		Where("flwer = ?", usr).
		Order("flwee").
		Pluck("flwee", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query followees: %w", err)
	}
	return ids, nil
}

// Followers returns the ids following usr, ascending.
func (g *Graph) Followers(ctx context.Context, usr int64) (ids []int64, err error) {
	defer metrics.Observe(metrics.Relational, "graph.followers", time.Now(), &err)

	ids = []int64{}
	err = g.store.DB.WithContext(ctx).
		Model(&models.Follow{}).
		Where("flwee = ?", usr).
		Order("flwer").
		Pluck("flwer", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query followers: %w", err)
	}
	return ids, nil
}

// FollowerUsers returns the user rows of everyone following usr.
func (g *Graph) FollowerUsers(ctx context.Context, usr int64) (users []models.UserSummary, err error) {
	defer metrics.Observe(metrics.Relational, "graph.follower_users", time.Now(), &err)

	users = []models.UserSummary{}
	err = g.store.DB.WithContext(ctx).
		Table("users").
		Select(models.UserSummaryColumns).
		Joins("JOIN follows ON follows.flwer = users.usr").
		Where("follows.flwee = ?", usr).
		Order("users.usr").
		Scan(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query follower users: %w", err)
	}
	metrics.ObserveRows(metrics.Relational, "graph.follower_users", len(users))
	return users, nil
}

// Follow records that flwer follows flwee. Following again refreshes the
// start date.
func (g *Graph) Follow(ctx context.Context, flwer, flwee int64) (err error) {
	defer metrics.Observe(metrics.Relational, "graph.follow", time.Now(), &err)

	follow := models.Follow{
		Flwer:     flwer,
		Flwee:     flwee,
		StartDate: g.store.Now(),
	}

	err = g.store.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "flwer"}, {Name: "flwee"}},
			DoUpdates: clause.AssignmentColumns([]string{"start_date"}),
		}).
		Create(&follow).Error
	if err != nil {
		return fmt.Errorf("failed to save follow: %w", err)
	}

	g.logger.WithFields(logrus.Fields{
		"flwer":      flwer,
		"flwee":      flwee,
		"start_date": follow.StartDate,
	}).Info("Saved follow")
	return nil
}

// Profile returns the user's name and activity counts.
func (g *Graph) Profile(ctx context.Context, usr int64) (p *Profile, err error) {
	defer metrics.Observe(metrics.Relational, "graph.profile", time.Now(), &err)

	p = &Profile{Usr: usr}
	err = g.store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("usr", "name").Where("usr = ?", usr).Take(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return db.ErrNotFound
			}
			return fmt.Errorf("failed to load user: %w", err)
		}
		p.Name = user.Name

		if err := tx.Model(&models.Tweet{}).Where("writer = ?", usr).Count(&p.TweetCount).Error; err != nil {
			return fmt.Errorf("failed to count tweets: %w", err)
		}
		if err := tx.Model(&models.Follow{}).Where("flwer = ?", usr).Count(&p.FollowingCount).Error; err != nil {
			return fmt.Errorf("failed to count followees: %w", err)
		}
		if err := tx.Model(&models.Follow{}).Where("flwee = ?", usr).Count(&p.FollowerCount).Error; err != nil {
			return fmt.Errorf("failed to count followers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UserTweets pages through the tweets written by usr, newest first.
func (g *Graph) UserTweets(ctx context.Context, usr int64, cursor pagination.Cursor) (tweets []models.Tweet, err error) {
	defer metrics.Observe(metrics.Relational, "graph.user_tweets", time.Now(), &err)

	tweets = []models.Tweet{}
	err = g.store.DB.WithContext(ctx).
		Where("writer = ?", usr).
		Order("tdate DESC").
		Order("tid ASC").
		Offset(cursor.Offset()).
		Limit(cursor.Limit()).
		Find(&tweets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query user tweets: %w", err)
	}
	metrics.ObserveRows(metrics.Relational, "graph.user_tweets", len(tweets))
	return tweets, nil
}
