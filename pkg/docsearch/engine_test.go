package docsearch_test

import (
	"context"
	"errors"
	"io"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/tweetbook/pkg/docsearch"
	"github.com/lisanmuaddib/tweetbook/pkg/docstore"
	"github.com/lisanmuaddib/tweetbook/pkg/docstore/docstoretest"
)

func tweet(id int64, content string, user docstore.UserDoc, retweets, likes, quotes int64) docstore.TweetDoc {
	return docstore.TweetDoc{
		ID:           id,
		Content:      content,
		User:         user,
		RetweetCount: retweets,
		LikeCount:    likes,
		QuoteCount:   quotes,
	}
}

func ids(tweets []docstore.TweetDoc) []int64 {
	out := make([]int64, 0, len(tweets))
	for _, t := range tweets {
		out = append(out, t.ID)
	}
	return out
}

var _ = Describe("Engine", func() {
	var (
		coll   *docstoretest.Collection
		engine *docsearch.Engine
		ctx    context.Context

		farmer = docstore.UserDoc{Username: "farmer", Displayname: "Punjab Farmer", Location: "Amritsar", FollowersCount: 10}
		union  = docstore.UserDoc{Username: "union", Displayname: "Kisan Union", Location: "Delhi, India", FollowersCount: 50}
		press  = docstore.UserDoc{Username: "press", Displayname: "Farmers Press", Location: "Mumbai", FollowersCount: 30}
	)

	seed := func(docs ...docstore.TweetDoc) {
		batch := make([]interface{}, 0, len(docs))
		for _, d := range docs {
			batch = append(batch, d)
		}
		_, err := coll.InsertMany(ctx, batch)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		logger := logrus.New()
		logger.SetOutput(io.Discard)

		coll = docstoretest.New()
		engine = docsearch.New(coll, logger, docsearch.Options{
			Now: func() time.Time { return time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC) },
		})
		ctx = context.Background()
	})

	Describe("SearchTweets", func() {
		BeforeEach(func() {
			seed(
				tweet(1, "Farmers protest in Delhi", farmer, 0, 0, 0),
				tweet(2, "the PROTEST continues", union, 0, 0, 0),
				tweet(3, "delhi weather", press, 0, 0, 0),
				tweet(4, "cost is $5 (approx)", press, 0, 0, 0),
			)
		})

		It("matches all keywords ignoring case", func() {
			tweets, err := engine.SearchTweets(ctx, []string{"protest", "DELHI"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(tweets)).To(Equal([]int64{1}))
		})

		It("matches a single keyword anywhere in the content", func() {
			tweets, err := engine.SearchTweets(ctx, []string{"protest"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(tweets)).To(Equal([]int64{1, 2}))
		})

		It("treats regex metacharacters literally", func() {
			tweets, err := engine.SearchTweets(ctx, []string{"$5 (approx)"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(tweets)).To(Equal([]int64{4}))
		})

		It("returns nothing without keywords", func() {
			tweets, err := engine.SearchTweets(ctx, []string{"", "  "})
			Expect(err).NotTo(HaveOccurred())
			Expect(tweets).To(BeEmpty())
			Expect(coll.Calls("Find")).To(BeZero())
		})
	})

	Describe("SearchUsers", func() {
		It("matches whole words in display name or location, once per username", func() {
			updated := farmer
			updated.FollowersCount = 99
			seed(
				tweet(1, "a", farmer, 0, 0, 0),
				tweet(2, "b", union, 0, 0, 0),
				tweet(3, "c", press, 0, 0, 0),
				tweet(4, "d", updated, 0, 0, 0),
			)

			users, err := engine.SearchUsers(ctx, "farmer")
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
			Expect(users[0].Username).To(Equal("farmer"))
			Expect(users[0].FollowersCount).To(Equal(int64(99)))

			users, err = engine.SearchUsers(ctx, "INDIA")
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
			Expect(users[0].Username).To(Equal("union"))
		})

		It("returns nothing for a blank keyword", func() {
			users, err := engine.SearchUsers(ctx, " ")
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(BeEmpty())
		})
	})

	Describe("TopTweets", func() {
		BeforeEach(func() {
			seed(
				tweet(1, "a", farmer, 5, 1, 0),
				tweet(2, "b", union, 9, 3, 2),
				tweet(3, "c", press, 5, 7, 2),
				tweet(4, "d", press, 1, 2, 0),
			)
		})

		It("ranks by the metric with ties in insertion order", func() {
			tweets, err := engine.TopTweets(ctx, docsearch.RetweetCount, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(tweets)).To(Equal([]int64{2, 1, 3}))

			tweets, err = engine.TopTweets(ctx, docsearch.QuoteCount, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(tweets)).To(Equal([]int64{2, 3}))
		})

		It("returns nothing for n <= 0", func() {
			tweets, err := engine.TopTweets(ctx, docsearch.LikeCount, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(tweets).To(BeEmpty())
		})

		It("rejects unknown metrics", func() {
			_, err := engine.TopTweets(ctx, docsearch.Metric("viewCount"), 3)
			Expect(errors.Is(err, docsearch.ErrUnknownMetric)).To(BeTrue())
		})
	})

	Describe("TopUsers", func() {
		It("ranks each username by its largest follower count", func() {
			grown := union
			grown.FollowersCount = 10
			seed(
				tweet(1, "a", farmer, 0, 0, 0),
				tweet(2, "b", grown, 0, 0, 0),
				tweet(3, "c", union, 0, 0, 0),
				tweet(4, "d", press, 0, 0, 0),
			)

			users, err := engine.TopUsers(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
			Expect(users[0].Username).To(Equal("union"))
			Expect(users[0].MaxFollowersCount).To(Equal(int64(50)))
			Expect(users[0].Displayname).To(Equal("Kisan Union"))
			Expect(users[0].Full.FollowersCount).To(Equal(int64(10)))
			Expect(users[1].Username).To(Equal("press"))
		})

		It("returns nothing for n <= 0", func() {
			users, err := engine.TopUsers(ctx, -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(BeEmpty())
			Expect(coll.Calls("Aggregate")).To(BeZero())
		})
	})

	Describe("Compose", func() {
		It("inserts a document by the compose user", func() {
			doc, err := engine.Compose(ctx, "hello #world")
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.User.Username).To(Equal(docsearch.DefaultComposeUsername))
			Expect(doc.Date).To(Equal("2024-07-01T12:00:00Z"))
			Expect(doc.ObjectID.IsZero()).To(BeFalse())

			tweets, err := engine.SearchTweets(ctx, []string{"#WORLD"})
			Expect(err).NotTo(HaveOccurred())
			Expect(tweets).To(HaveLen(1))
			Expect(tweets[0].User.Username).To(Equal("291user"))
		})
	})

	It("wraps backend failures", func() {
		down := errors.New("connection refused")
		coll.FailWith(down)

		_, err := engine.SearchTweets(ctx, []string{"x"})
		Expect(errors.Is(err, down)).To(BeTrue())
		_, err = engine.TopUsers(ctx, 1)
		Expect(errors.Is(err, down)).To(BeTrue())
	})
})
