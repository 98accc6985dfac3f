package search_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/tweetbook/pkg/db"
	"github.com/lisanmuaddib/tweetbook/pkg/db/dbtest"
	"github.com/lisanmuaddib/tweetbook/pkg/db/models"
	"github.com/lisanmuaddib/tweetbook/pkg/pagination"
	"github.com/lisanmuaddib/tweetbook/pkg/search"
)

var _ = Describe("SearchUsers", func() {
	var (
		store  *db.Store
		engine *search.Engine
		ctx    context.Context
		first  pagination.Cursor
	)

	BeforeEach(func() {
		var err error
		store, err = dbtest.NewStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		engine = search.New(store, search.Options{})
		ctx = context.Background()
		first = pagination.New(pagination.UserSearchPageSize)

		Expect(dbtest.Seed(store,
			&models.User{Usr: 1, Name: "Annabelle", City: "Toronto"},
			&models.User{Usr: 2, Name: "Ann", City: "Ottawa"},
			&models.User{Usr: 3, Name: "Joanna", City: "Hanna"},
			&models.User{Usr: 4, Name: "Anna", City: "Red Deer"},
			&models.User{Usr: 5, Name: "Bob", City: "Annapolis"},
			&models.User{Usr: 6, Name: "Carl", City: "Regina"},
		)).To(Succeed())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	names := func(users []models.UserSummary) []string {
		out := make([]string, 0, len(users))
		for _, u := range users {
			out = append(out, u.Name)
		}
		return out
	}

	It("ranks name prefixes first, then by name and city length", func() {
		users, err := engine.SearchUsers(ctx, "ann", first)
		Expect(err).NotTo(HaveOccurred())
		Expect(names(users)).To(Equal([]string{"Ann", "Anna", "Annabelle", "Bob", "Joanna"}))
	})

	It("ignores case in the keyword", func() {
		users, err := engine.SearchUsers(ctx, "ANN", first)
		Expect(err).NotTo(HaveOccurred())
		Expect(names(users)[0]).To(Equal("Ann"))
	})

	It("continues on the next page", func() {
		users, err := engine.SearchUsers(ctx, "an", first)
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(HaveLen(5))
		Expect(first.HasMore(len(users))).To(BeTrue())

		more, err := engine.SearchUsers(ctx, "an", first.Next())
		Expect(err).NotTo(HaveOccurred())
		Expect(more).To(BeEmpty())
	})

	It("returns nothing for a blank keyword", func() {
		users, err := engine.SearchUsers(ctx, "   ", first)
		Expect(err).NotTo(HaveOccurred())
		Expect(users).NotTo(BeNil())
		Expect(users).To(BeEmpty())
	})

	It("matches wildcard characters literally", func() {
		Expect(dbtest.Seed(store, &models.User{Usr: 7, Name: "50%_off", City: "x"})).To(Succeed())

		users, err := engine.SearchUsers(ctx, "%_", first)
		Expect(err).NotTo(HaveOccurred())
		Expect(names(users)).To(Equal([]string{"50%_off"}))
	})

	It("folds case beyond ASCII in names and cities", func() {
		Expect(dbtest.Seed(store,
			&models.User{Usr: 7, Name: "Élodie", City: "Québec"},
			&models.User{Usr: 8, Name: "Zoë", City: "Malmö"},
		)).To(Succeed())

		for _, keyword := range []string{"Élodie", "élodie", "ÉLODIE"} {
			users, err := engine.SearchUsers(ctx, keyword, first)
			Expect(err).NotTo(HaveOccurred())
			Expect(names(users)).To(Equal([]string{"Élodie"}), keyword)
		}

		users, err := engine.SearchUsers(ctx, "QUÉBEC", first)
		Expect(err).NotTo(HaveOccurred())
		Expect(names(users)).To(Equal([]string{"Élodie"}))

		users, err = engine.SearchUsers(ctx, "MALMÖ", first)
		Expect(err).NotTo(HaveOccurred())
		Expect(names(users)).To(Equal([]string{"Zoë"}))
	})

	It("ranks a non-ASCII name prefix first", func() {
		Expect(dbtest.Seed(store,
			&models.User{Usr: 7, Name: "Ölaf", City: "Oslo"},
			&models.User{Usr: 8, Name: "Bo", City: "Öland"},
		)).To(Succeed())

		users, err := engine.SearchUsers(ctx, "öl", first)
		Expect(err).NotTo(HaveOccurred())
		Expect(names(users)).To(Equal([]string{"Ölaf", "Bo"}))
	})

	It("does not expose passwords", func() {
		users, err := engine.SearchUsers(ctx, "carl", first)
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(ConsistOf(models.UserSummary{Usr: 6, Name: "Carl", City: "Regina"}))
	})
})
