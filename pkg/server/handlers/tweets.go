package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	tweetbook "github.com/lisanmuaddib/tweetbook/pkg"
	"github.com/lisanmuaddib/tweetbook/pkg/pagination"
	"github.com/lisanmuaddib/tweetbook/pkg/search"
)

// ComposeRequest is a new tweet. Text may be empty.
type ComposeRequest struct {
	Text    string `json:"text"`
	Replyto *int64 `json:"replyto,omitempty"`
}

// RetweetRequest names the tweet to retweet.
type RetweetRequest struct {
	Tid int64 `json:"tid" binding:"required"`
}

// TweetsHandler serves the timeline, tweet writes and relational search.
type TweetsHandler struct {
	app *tweetbook.App
}

func NewTweetsHandler(app *tweetbook.App) *TweetsHandler {
	return &TweetsHandler{app: app}
}

// Feed handles GET /api/v1/users/:usr/feed
func (h *TweetsHandler) Feed(c *gin.Context) {
	usr, ok := pathID(c, "usr")
	if !ok {
		return
	}
	page, ok := queryPage(c)
	if !ok {
		return
	}
	cursor := pagination.At(page, pagination.FeedPageSize)
	tweets, err := h.app.Feed.Timeline(c.Request.Context(), usr, cursor)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, tweets, len(tweets), cursor)
}

// Compose handles POST /api/v1/users/:usr/tweets
func (h *TweetsHandler) Compose(c *gin.Context) {
	usr, ok := pathID(c, "usr")
	if !ok {
		return
	}
	var req ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	composed, err := h.app.Compose.Compose(c.Request.Context(), usr, req.Text, req.Replyto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, composed)
}

// Retweet handles POST /api/v1/users/:usr/retweets
func (h *TweetsHandler) Retweet(c *gin.Context) {
	usr, ok := pathID(c, "usr")
	if !ok {
		return
	}
	var req RetweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.app.Compose.Retweet(c.Request.Context(), usr, req.Tid); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usr": usr, "tid": req.Tid})
}

// Stats handles GET /api/v1/tweets/:tid/stats
func (h *TweetsHandler) Stats(c *gin.Context) {
	tid, ok := pathID(c, "tid")
	if !ok {
		return
	}
	stats, err := h.app.Compose.Stats(c.Request.Context(), tid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SearchTweets handles GET /api/v1/search/tweets?q=&page=
// Each term is paged independently, so any non-empty page may be followed
// by another.
func (h *TweetsHandler) SearchTweets(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	tweets, err := h.app.Search.SearchTweets(c.Request.Context(), search.ParseTerms(c.Query("q")), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, tweets, page, len(tweets) > 0)
}

// SearchUsers handles GET /api/v1/search/users?q=&page=
func (h *TweetsHandler) SearchUsers(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	keyword := strings.TrimSpace(c.Query("q"))
	cursor := pagination.At(page, pagination.UserSearchPageSize)
	users, err := h.app.Search.SearchUsers(c.Request.Context(), keyword, cursor)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, users, len(users), cursor)
}
