package docstore_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/lisanmuaddib/tweetbook/pkg/docstore"
	"github.com/lisanmuaddib/tweetbook/pkg/docstore/docstoretest"
)

var _ = Describe("Loader", func() {
	var (
		coll   *docstoretest.Collection
		logger *logrus.Logger
		ctx    context.Context
	)

	ndjson := func(n int) string {
		var b strings.Builder
		for i := 1; i <= n; i++ {
			fmt.Fprintf(&b, `{"id": %d, "content": "tweet %d", "user": {"username": "u%d", "followersCount": %d}, "media": null}`+"\n", i, i, i%3, i*10)
		}
		return b.String()
	}

	BeforeEach(func() {
		coll = docstoretest.New()
		logger = logrus.New()
		logger.SetOutput(io.Discard)
		ctx = context.Background()
	})

	It("inserts documents in batches", func() {
		loader := docstore.NewLoader(coll, logger, docstore.LoaderOptions{BatchSize: 2})

		report, err := loader.Load(ctx, strings.NewReader(ndjson(5)))
		Expect(err).NotTo(HaveOccurred())
		Expect(report).To(Equal(docstore.LoadReport{Inserted: 5, Batches: 3}))
		Expect(coll.Len()).To(Equal(5))
		Expect(coll.Calls("InsertMany")).To(Equal(3))
	})

	It("skips blank and malformed lines", func() {
		input := ndjson(2) + "\n{not json}\n" + `{"id": 3, "content": "ok"}` + "\n"
		loader := docstore.NewLoader(coll, logger, docstore.LoaderOptions{})

		report, err := loader.Load(ctx, strings.NewReader(input))
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Inserted).To(Equal(3))
		Expect(report.Skipped).To(Equal(1))
		Expect(report.Batches).To(Equal(1))
	})

	It("clears the collection first when resetting", func() {
		_, err := coll.InsertOne(ctx, bson.D{{Key: "id", Value: 99}})
		Expect(err).NotTo(HaveOccurred())

		loader := docstore.NewLoader(coll, logger, docstore.LoaderOptions{Reset: true})
		_, err = loader.Load(ctx, strings.NewReader(ndjson(2)))
		Expect(err).NotTo(HaveOccurred())
		Expect(coll.Len()).To(Equal(2))
	})

	It("keeps existing documents without reset", func() {
		_, err := coll.InsertOne(ctx, bson.D{{Key: "id", Value: 99}})
		Expect(err).NotTo(HaveOccurred())

		loader := docstore.NewLoader(coll, logger, docstore.LoaderOptions{})
		_, err = loader.Load(ctx, strings.NewReader(ndjson(2)))
		Expect(err).NotTo(HaveOccurred())
		Expect(coll.Len()).To(Equal(3))
	})

	It("loads the documents so they decode as tweets", func() {
		path := filepath.Join(GinkgoT().TempDir(), "tweets.json")
		Expect(os.WriteFile(path, []byte(ndjson(3)), 0o644)).To(Succeed())

		loader := docstore.NewLoader(coll, logger, docstore.LoaderOptions{BatchesPerSecond: 100})
		report, err := loader.LoadFile(ctx, path)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Inserted).To(Equal(3))

		cur, err := coll.Find(ctx, bson.D{{Key: "user.username", Value: "u1"}})
		Expect(err).NotTo(HaveOccurred())
		var tweets []docstore.TweetDoc
		Expect(cur.All(ctx, &tweets)).To(Succeed())
		Expect(tweets).To(HaveLen(1))
		Expect(tweets[0].ID).To(Equal(int64(1)))
		Expect(tweets[0].User.FollowersCount).To(Equal(int64(10)))
	})

	It("reports a missing file", func() {
		loader := docstore.NewLoader(coll, logger, docstore.LoaderOptions{})
		_, err := loader.LoadFile(ctx, filepath.Join(GinkgoT().TempDir(), "absent.json"))
		Expect(err).To(HaveOccurred())
	})

	It("stops on insert failures", func() {
		down := errors.New("write failed")
		coll.FailWith(down)

		loader := docstore.NewLoader(coll, logger, docstore.LoaderOptions{})
		_, err := loader.Load(ctx, strings.NewReader(ndjson(1)))
		Expect(errors.Is(err, down)).To(BeTrue())
	})
})
