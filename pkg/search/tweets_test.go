package search_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/tweetbook/pkg/db"
	"github.com/lisanmuaddib/tweetbook/pkg/db/dbtest"
	"github.com/lisanmuaddib/tweetbook/pkg/db/models"
	"github.com/lisanmuaddib/tweetbook/pkg/search"
)

var _ = Describe("SearchTweets", func() {
	var (
		store  *db.Store
		engine *search.Engine
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		store, err = dbtest.NewStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		engine = search.New(store, search.DefaultOptions())
		ctx = context.Background()

		Expect(dbtest.Seed(store,
			&models.User{Usr: 1, Name: "writer"},
			&models.Tweet{Tid: 1, Writer: 1, Tdate: dbtest.Day(2024, 1, 1), Text: "learning #go today"},
			&models.Tweet{Tid: 2, Writer: 1, Tdate: dbtest.Day(2024, 1, 2), Text: "go is fun"},
			&models.Tweet{Tid: 3, Writer: 1, Tdate: dbtest.Day(2024, 1, 3), Text: "Go with #go"},
			&models.Tweet{Tid: 4, Writer: 1, Tdate: dbtest.Day(2024, 1, 4), Text: "nothing here"},
			&models.Hashtag{Term: "go"},
			&models.Mention{Tid: 1, Term: "go"},
			&models.Mention{Tid: 3, Term: "go"},
		)).To(Succeed())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("returns nothing for no terms", func() {
		tweets, err := engine.SearchTweets(ctx, nil, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(tweets).NotTo(BeNil())
		Expect(tweets).To(BeEmpty())

		tweets, err = engine.SearchTweets(ctx, []string{" ", "#"}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(tweets).To(BeEmpty())
	})

	It("matches hashtags exactly through mentions", func() {
		tweets, err := engine.SearchTweets(ctx, []string{"#go"}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(tids(tweets)).To(Equal([]int64{3, 1}))

		tweets, err = engine.SearchTweets(ctx, []string{"#Go"}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(tweets).To(BeEmpty())
	})

	It("matches text as a case-sensitive substring", func() {
		tweets, err := engine.SearchTweets(ctx, []string{"go"}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(tids(tweets)).To(Equal([]int64{3, 2, 1}))

		tweets, err = engine.SearchTweets(ctx, []string{"Go"}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(tids(tweets)).To(Equal([]int64{3}))
	})

	It("merges terms keeping the first occurrence of each tweet", func() {
		tweets, err := engine.SearchTweets(ctx, []string{"#go", "fun", "go"}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(tids(tweets)).To(Equal([]int64{3, 1, 2}))
	})

	It("treats LIKE wildcards in text literally", func() {
		tweets, err := engine.SearchTweets(ctx, []string{"%"}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(tweets).To(BeEmpty())
	})

	It("pages each term with its own size", func() {
		engine = search.New(store, search.Options{HashtagPageSize: 1, TextPageSize: 2})

		tweets, err := engine.SearchTweets(ctx, []string{"#go"}, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(tids(tweets)).To(Equal([]int64{1}))

		tweets, err = engine.SearchTweets(ctx, []string{"go"}, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(tids(tweets)).To(Equal([]int64{1}))
	})

	It("splits queries on whitespace", func() {
		Expect(search.ParseTerms("  #go   fun\tgo ")).To(Equal([]string{"#go", "fun", "go"}))
	})
})

func tids(tweets []models.Tweet) []int64 {
	out := make([]int64, 0, len(tweets))
	for _, t := range tweets {
		out = append(out, t.Tid)
	}
	return out
}
