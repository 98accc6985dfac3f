package docsearch_test

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/tweetbook/pkg/docsearch"
	"github.com/lisanmuaddib/tweetbook/pkg/docstore"
)

func init() {
	if err := godotenv.Load("../../.env"); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
}

// The same queries run against a real mongod so that the in-memory
// collection cannot drift from server behaviour unnoticed.
var _ = Describe("Engine against mongod", Ordered, func() {
	var (
		client *docstore.Client
		engine *docsearch.Engine
		ctx    context.Context
		cancel context.CancelFunc

		farmer = docstore.UserDoc{Username: "farmer", Displayname: "Punjab Farmer", Location: "Amritsar", FollowersCount: 10}
		union  = docstore.UserDoc{Username: "union", Displayname: "Kisan Union", Location: "Delhi, India", FollowersCount: 50}
		press  = docstore.UserDoc{Username: "press", Displayname: "Farmers Press", Location: "Mumbai", FollowersCount: 30}
	)

	BeforeAll(func() {
		if os.Getenv("INTEGRATION_TESTS") != "true" {
			Skip("Skipping integration test")
		}
		uri := os.Getenv("TWEETBOOK_TEST_MONGO_URI")
		Expect(uri).NotTo(BeEmpty(), "TWEETBOOK_TEST_MONGO_URI environment variable is required")

		logger := logrus.New()
		logger.SetLevel(logrus.DebugLevel)

		ctx, cancel = context.WithTimeout(context.Background(), time.Minute)
		DeferCleanup(cancel)

		var err error
		client, err = docstore.Connect(ctx, docstore.Config{
			URI:        uri,
			Database:   "tweetbook_test",
			Collection: "tweets_" + uuid.NewString(),
			Timeout:    10 * time.Second,
		}, logger)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			Expect(client.Collection().Drop(context.Background())).To(Succeed())
			Expect(client.Close(context.Background())).To(Succeed())
		})

		_, err = docstore.EnsureIndexes(ctx, client.Collection())
		Expect(err).NotTo(HaveOccurred())

		grown := union
		grown.FollowersCount = 10
		updated := farmer
		updated.FollowersCount = 99
		_, err = client.Collection().InsertMany(ctx, []interface{}{
			tweet(1, "Farmers protest in Delhi", farmer, 5, 1, 0),
			tweet(2, "the PROTEST continues", grown, 9, 3, 2),
			tweet(3, "delhi weather", union, 5, 7, 2),
			tweet(4, "cost is $5 (approx)", press, 1, 2, 0),
			tweet(5, "farmland", updated, 0, 0, 0),
		})
		Expect(err).NotTo(HaveOccurred())

		engine = docsearch.New(client.Collection(), logger, docsearch.Options{})
	})

	It("matches every keyword ignoring case and quotes metacharacters", func() {
		tweets, err := engine.SearchTweets(ctx, []string{"protest", "DELHI"})
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(tweets)).To(Equal([]int64{1}))

		tweets, err = engine.SearchTweets(ctx, []string{"$5 (approx)"})
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(tweets)).To(Equal([]int64{4}))
	})

	It("matches whole words once per username with the last value seen", func() {
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

	It("breaks metric ties in insertion order", func() {
		tweets, err := engine.TopTweets(ctx, docsearch.RetweetCount, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(tweets)).To(Equal([]int64{2, 1, 3}))
	})

	It("unwinds the embedded user and keeps the largest follower count", func() {
		users, err := engine.TopUsers(ctx, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(HaveLen(3))
		Expect(users[0].Username).To(Equal("farmer"))
		Expect(users[0].MaxFollowersCount).To(Equal(int64(99)))
		Expect(users[1].Username).To(Equal("union"))
		Expect(users[1].MaxFollowersCount).To(Equal(int64(50)))
		Expect(users[1].Full.FollowersCount).To(Equal(int64(10)))
		Expect(users[2].Username).To(Equal("press"))
	})
})
