package graph_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/tweetbook/pkg/db"
	"github.com/lisanmuaddib/tweetbook/pkg/db/dbtest"
	"github.com/lisanmuaddib/tweetbook/pkg/db/models"
	"github.com/lisanmuaddib/tweetbook/pkg/graph"
	"github.com/lisanmuaddib/tweetbook/pkg/pagination"
)

var _ = Describe("Graph", func() {
	var (
		store *db.Store
		clock *dbtest.Clock
		g     *graph.Graph
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		store, err = dbtest.NewStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		clock = dbtest.NewClock(dbtest.Day(2024, 5, 1))
		store.Clock = clock.Now
		g = graph.New(store)
		ctx = context.Background()

		Expect(dbtest.Seed(store,
			&models.User{Usr: 1, Name: "alice", City: "Edmonton"},
			&models.User{Usr: 2, Name: "bob", City: "Calgary"},
			&models.User{Usr: 3, Name: "carol", City: "Banff"},
		)).To(Succeed())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	Context("when nobody follows anyone", func() {
		It("returns empty, non-nil slices", func() {
			followees, err := g.Followees(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(followees).NotTo(BeNil())
			Expect(followees).To(BeEmpty())

			followers, err := g.Followers(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(followers).To(BeEmpty())
		})
	})

	Context("with follow edges", func() {
		BeforeEach(func() {
			Expect(g.Follow(ctx, 1, 3)).To(Succeed())
			Expect(g.Follow(ctx, 1, 2)).To(Succeed())
			Expect(g.Follow(ctx, 2, 3)).To(Succeed())
		})

		It("lists followees and followers in id order", func() {
			followees, err := g.Followees(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(followees).To(Equal([]int64{2, 3}))

			followers, err := g.Followers(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(followers).To(Equal([]int64{1, 2}))
		})

		It("returns follower user rows", func() {
			users, err := g.FollowerUsers(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
			Expect(users[0].Name).To(Equal("alice"))
			Expect(users[1].City).To(Equal("Calgary"))
		})

		It("keeps one edge on re-follow and refreshes its start date", func() {
			clock.Advance(48 * time.Hour)
			Expect(g.Follow(ctx, 1, 3)).To(Succeed())

			var edges []models.Follow
			Expect(store.DB.Where("flwer = ? AND flwee = ?", 1, 3).Find(&edges).Error).To(Succeed())
			Expect(edges).To(HaveLen(1))
			Expect(edges[0].StartDate).To(BeTemporally("==", dbtest.Day(2024, 5, 3)))
		})

		It("summarizes a profile", func() {
			Expect(dbtest.Seed(store,
				&models.Tweet{Tid: 1, Writer: 3, Tdate: dbtest.Day(2024, 1, 1), Text: "one"},
				&models.Tweet{Tid: 2, Writer: 3, Tdate: dbtest.Day(2024, 1, 2), Text: "two"},
			)).To(Succeed())

			p, err := g.Profile(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(*p).To(Equal(graph.Profile{
				Usr:            3,
				Name:           "carol",
				TweetCount:     2,
				FollowingCount: 0,
				FollowerCount:  2,
			}))
		})
	})

	It("reports unknown profiles as not found", func() {
		_, err := g.Profile(ctx, 404)
		Expect(err).To(MatchError(db.ErrNotFound))
	})

	It("pages through a user's tweets newest first", func() {
		for i := 1; i <= 4; i++ {
			Expect(dbtest.Seed(store, &models.Tweet{
				Tid:    int64(i),
				Writer: 2,
				Tdate:  dbtest.Day(2024, 1, i),
				Text:   "t",
			})).To(Succeed())
		}

		cursor := pagination.New(pagination.FollowerTweetsPageSize)
		first, err := g.UserTweets(ctx, 2, cursor)
		Expect(err).NotTo(HaveOccurred())
		Expect(tids(first)).To(Equal([]int64{4, 3, 2}))
		Expect(cursor.HasMore(len(first))).To(BeTrue())

		second, err := g.UserTweets(ctx, 2, cursor.Next())
		Expect(err).NotTo(HaveOccurred())
		Expect(tids(second)).To(Equal([]int64{1}))
	})
})

func tids(tweets []models.Tweet) []int64 {
	out := make([]int64, 0, len(tweets))
	for _, t := range tweets {
		out = append(out, t.Tid)
	}
	return out
}
