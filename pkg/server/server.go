package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/tweetbook/internal/config"
	tweetbook "github.com/lisanmuaddib/tweetbook/pkg"
	"github.com/lisanmuaddib/tweetbook/pkg/server/handlers"
)

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Server represents the HTTP server
type Server struct {
	config *config.ServerConfig
	app    *tweetbook.App
	logger *logrus.Logger
	router *gin.Engine
	server *http.Server
}

// New creates a new server instance
func New(cfg *config.ServerConfig, app *tweetbook.App, logger *logrus.Logger) *Server {
	return &Server{
		config: cfg,
		app:    app,
		logger: logger,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	if s.config.Mode != "" {
		gin.SetMode(s.config.Mode)
	}

	s.router = gin.New()
	s.router.Use(requestIDMiddleware())
	s.router.Use(loggingMiddleware(s.logger))
	s.router.Use(gin.Recovery())

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.app)
	usersHandler := handlers.NewUsersHandler(s.app)
	tweetsHandler := handlers.NewTweetsHandler(s.app)
	documentsHandler := handlers.NewDocumentsHandler(s.app)

	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/users", usersHandler.Register)

		user := v1.Group("/users/:usr")
		{
			user.GET("", usersHandler.Get)
			user.GET("/profile", usersHandler.Profile)
			user.GET("/followers", usersHandler.Followers)
			user.GET("/followees", usersHandler.Followees)
			user.POST("/follows", usersHandler.Follow)
			user.GET("/tweets", usersHandler.Tweets)
			user.POST("/tweets", tweetsHandler.Compose)
			user.POST("/retweets", tweetsHandler.Retweet)
			user.GET("/feed", tweetsHandler.Feed)
		}

		v1.GET("/tweets/:tid/stats", tweetsHandler.Stats)
		v1.GET("/search/tweets", tweetsHandler.SearchTweets)
		v1.GET("/search/users", tweetsHandler.SearchUsers)

		docs := v1.Group("/documents", documentsHandler.RequireDocuments)
		{
			docs.GET("/tweets", documentsHandler.SearchTweets)
			docs.POST("/tweets", documentsHandler.Compose)
			docs.GET("/users", documentsHandler.SearchUsers)
			docs.GET("/top-tweets", documentsHandler.TopTweets)
			docs.GET("/top-users", documentsHandler.TopUsers)
		}
	}
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the listen address set up by Setup.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start blocks serving requests until Stop is called.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.server.Addr).Info("Starting server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping server")
	return s.server.Shutdown(ctx)
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func loggingMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.WithError(c.Errors.Last().Err).Warn("Request failed")
			return
		}
		entry.Debug("Handled request")
	}
}
