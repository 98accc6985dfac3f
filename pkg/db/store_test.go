package db_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/lisanmuaddib/tweetbook/pkg/db"
	"github.com/lisanmuaddib/tweetbook/pkg/db/dbtest"
	"github.com/lisanmuaddib/tweetbook/pkg/db/models"
)

var _ = Describe("Store", func() {
	var (
		store *db.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		store, err = dbtest.NewStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred(), "Failed to setup database")
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	Context("when assigning ids", func() {
		insertUser := func(tx *gorm.DB, id int64) error {
			return tx.Create(&models.User{Usr: id, Name: "u"}).Error
		}

		It("starts at 1 on an empty table", func() {
			id, err := store.InsertWithNextID(ctx, "users", "usr", insertUser)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(int64(1)))
		})

		It("continues from the current maximum", func() {
			Expect(dbtest.Seed(store, &models.User{Usr: 41, Name: "x"})).To(Succeed())

			id, err := store.InsertWithNextID(ctx, "users", "usr", insertUser)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(int64(42)))
		})

		It("never assigns the same id twice under concurrency", func() {
			var (
				wg  sync.WaitGroup
				mu  sync.Mutex
				ids = map[int64]bool{}
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					id, err := store.InsertWithNextID(ctx, "users", "usr", insertUser)
					Expect(err).NotTo(HaveOccurred())
					mu.Lock()
					ids[id] = true
					mu.Unlock()
				}()
			}
			wg.Wait()
			Expect(ids).To(HaveLen(8))
		})

		It("rolls back when the callback fails", func() {
			boom := errors.New("boom")
			_, err := store.InsertWithNextID(ctx, "users", "usr", func(tx *gorm.DB, id int64) error {
				if err := insertUser(tx, id); err != nil {
					return err
				}
				return boom
			})
			Expect(err).To(MatchError(boom))

			var count int64
			Expect(store.DB.Model(&models.User{}).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})
	})

	It("truncates the clock to whole seconds in UTC", func() {
		clock := dbtest.NewClock(dbtest.Day(2024, 3, 1).Add(1500 * time.Millisecond))
		store.Clock = clock.Now
		Expect(store.Now()).To(BeTemporally("==", dbtest.Day(2024, 3, 1).Add(time.Second)))
	})

	It("enforces foreign keys", func() {
		err := dbtest.Seed(store, &models.Tweet{Tid: 1, Writer: 99, Tdate: dbtest.Day(2024, 1, 1)})
		Expect(err).To(HaveOccurred())
	})

	It("bootstraps idempotently", func() {
		Expect(db.Bootstrap(store.DB)).To(Succeed())
	})

	It("recognises foreign key violations", func() {
		err := store.DB.WithContext(ctx).Create(&models.Follow{Flwer: 1, Flwee: 2, StartDate: dbtest.Day(2024, 1, 1)}).Error
		Expect(err).To(HaveOccurred())
		Expect(db.IsForeignKeyViolation(err)).To(BeTrue())
		Expect(db.IsForeignKeyViolation(fmt.Errorf("failed to follow: %w", err))).To(BeTrue())
		Expect(db.IsForeignKeyViolation(errors.New("disk full"))).To(BeFalse())
	})

	It("lowercases beyond ASCII", func() {
		var lowered string
		query := "SELECT " + store.LowerExpr("?")
		Expect(store.DB.Raw(query, "ÉLODIE Ölaf").Row().Scan(&lowered)).To(Succeed())
		Expect(lowered).To(Equal("élodie ölaf"))
	})

	It("escapes LIKE wildcards", func() {
		Expect(db.EscapeLike(`50%_a\b`)).To(Equal(`50\%\_a\\b`))
	})
})

var _ = Describe("Config", func() {
	It("rejects unknown drivers", func() {
		Expect(db.Config{Driver: "oracle"}.Validate()).To(HaveOccurred())
	})

	It("requires connection fields for postgres", func() {
		err := db.Config{Driver: db.DriverPostgres, Host: "localhost"}.Validate()
		Expect(err).To(MatchError(ContainSubstring("user, name")))
	})

	It("accepts a postgres dsn on its own", func() {
		Expect(db.Config{Driver: db.DriverPostgres, DSN: "postgres://x"}.Validate()).To(Succeed())
	})

	It("requires a path for sqlite", func() {
		Expect(db.Config{Driver: db.DriverSQLite}.Validate()).To(HaveOccurred())
	})
})
