package docstore_test

import (
	"context"
	"errors"
	"io"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/lisanmuaddib/tweetbook/pkg/docstore"
	"github.com/lisanmuaddib/tweetbook/pkg/docstore/docstoretest"
)

var _ = Describe("BreakerCollection", func() {
	var (
		inner  *docstoretest.Collection
		logger *logrus.Logger
		ctx    context.Context
		cfg    docstore.BreakerConfig
	)

	BeforeEach(func() {
		inner = docstoretest.New()
		logger = logrus.New()
		logger.SetOutput(io.Discard)
		ctx = context.Background()
		cfg = docstore.BreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Timeout:          time.Minute,
			MinRequests:      3,
			ReadyToTripRatio: 0.5,
		}
	})

	It("returns the collection unchanged when disabled", func() {
		cfg.Enabled = false
		Expect(docstore.NewBreakerCollection(inner, cfg, logger, "test")).To(BeIdenticalTo(inner))
	})

	It("passes calls through while closed", func() {
		coll := docstore.NewBreakerCollection(inner, cfg, logger, "test")

		_, err := coll.InsertOne(ctx, bson.D{{Key: "content", Value: "x"}})
		Expect(err).NotTo(HaveOccurred())

		cur, err := coll.Find(ctx, bson.D{})
		Expect(err).NotTo(HaveOccurred())
		Expect(cur.RemainingBatchLength()).To(Equal(1))
	})

	It("opens after repeated failures and stops calling the backend", func() {
		coll := docstore.NewBreakerCollection(inner, cfg, logger, "test")
		down := errors.New("server selection timeout")
		inner.FailWith(down)

		for i := 0; i < 3; i++ {
			_, err := coll.Find(ctx, bson.D{})
			Expect(errors.Is(err, down)).To(BeTrue())
		}

		_, err := coll.Find(ctx, bson.D{})
		Expect(errors.Is(err, gobreaker.ErrOpenState)).To(BeTrue())
		Expect(inner.Calls("Find")).To(Equal(3))
		Expect(coll.(*docstore.BreakerCollection).State()).To(Equal(gobreaker.StateOpen))
	})
})
