package db_test

import (
	"bytes"
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lisanmuaddib/tweetbook/pkg/db"
)

var _ = Describe("GormLogrusLogger", func() {
	var (
		buf  bytes.Buffer
		gl   logger.Interface
		ctx  = context.Background()
		stmt = func() (string, int64) { return "SELECT 1", 1 }
	)

	BeforeEach(func() {
		buf.Reset()
		base := logrus.New()
		base.SetOutput(&buf)
		base.SetFormatter(&logrus.JSONFormatter{})
		base.SetLevel(logrus.DebugLevel)
		gl = db.NewGormLogrusLogger(base)
	})

	It("logs failed statements as errors", func() {
		gl.Trace(ctx, time.Now(), stmt, errors.New("locked"))
		Expect(buf.String()).To(ContainSubstring(`"msg":"Query failed"`))
		Expect(buf.String()).To(ContainSubstring(`"level":"error"`))
		Expect(buf.String()).To(ContainSubstring(`"sql":"SELECT 1"`))
	})

	It("does not treat missing records as failures", func() {
		gl.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
		Expect(buf.String()).To(ContainSubstring(`"msg":"Query executed"`))
	})

	It("warns about slow statements", func() {
		gl.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
		Expect(buf.String()).To(ContainSubstring(`"msg":"Slow query"`))
	})

	It("stays quiet when silenced", func() {
		gl.LogMode(logger.Silent).Trace(ctx, time.Now(), stmt, errors.New("locked"))
		Expect(buf.String()).To(BeEmpty())
	})
})
