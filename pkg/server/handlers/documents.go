package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	tweetbook "github.com/lisanmuaddib/tweetbook/pkg"
	"github.com/lisanmuaddib/tweetbook/pkg/docsearch"
)

// DefaultTopN is used when ?n= is absent.
const DefaultTopN = 10

// DocumentComposeRequest is a tweet written to the document store.
type DocumentComposeRequest struct {
	Text string `json:"text"`
}

// DocumentsHandler serves search and ranking over the tweet documents.
type DocumentsHandler struct {
	app *tweetbook.App
}

func NewDocumentsHandler(app *tweetbook.App) *DocumentsHandler {
	return &DocumentsHandler{app: app}
}

// RequireDocuments answers 503 when no document store is configured.
func (h *DocumentsHandler) RequireDocuments(c *gin.Context) {
	if !h.app.HasDocuments() {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   CodeUnavailable,
			Message: "document store is not configured",
		})
		return
	}
	c.Next()
}

// SearchTweets handles GET /api/v1/documents/tweets?q=
func (h *DocumentsHandler) SearchTweets(c *gin.Context) {
	tweets, err := h.app.Docs.SearchTweets(c.Request.Context(), strings.Fields(c.Query("q")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, tweets, 1, false)
}

// SearchUsers handles GET /api/v1/documents/users?q=
func (h *DocumentsHandler) SearchUsers(c *gin.Context) {
	users, err := h.app.Docs.SearchUsers(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, users, 1, false)
}

// TopTweets handles GET /api/v1/documents/top-tweets?metric=&n=
func (h *DocumentsHandler) TopTweets(c *gin.Context) {
	metric, err := docsearch.ParseMetric(c.DefaultQuery("metric", string(docsearch.RetweetCount)))
	if err != nil {
		respondError(c, err)
		return
	}
	n, ok := queryInt(c, "n", DefaultTopN)
	if !ok {
		return
	}
	tweets, err := h.app.Docs.TopTweets(c.Request.Context(), metric, n)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, tweets, 1, false)
}

// TopUsers handles GET /api/v1/documents/top-users?n=
func (h *DocumentsHandler) TopUsers(c *gin.Context) {
	n, ok := queryInt(c, "n", DefaultTopN)
	if !ok {
		return
	}
	users, err := h.app.Docs.TopUsers(c.Request.Context(), n)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, users, 1, false)
}

// Compose handles POST /api/v1/documents/tweets
func (h *DocumentsHandler) Compose(c *gin.Context) {
	var req DocumentComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	tweet, err := h.app.Docs.Compose(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tweet)
}
