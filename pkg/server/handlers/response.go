package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/lisanmuaddib/tweetbook/pkg/db"
	"github.com/lisanmuaddib/tweetbook/pkg/docsearch"
	"github.com/lisanmuaddib/tweetbook/pkg/pagination"
)

// ListResponse wraps a page of results.
type ListResponse struct {
	Items   interface{} `json:"items"`
	Page    int         `json:"page"`
	HasMore bool        `json:"has_more"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error codes
const (
	CodeBadRequest  = "bad_request"
	CodeNotFound    = "not_found"
	CodeUnavailable = "unavailable"
	CodeInternal    = "internal"
)

func respondList(c *gin.Context, items interface{}, page int, hasMore bool) {
	c.JSON(http.StatusOK, ListResponse{Items: items, Page: page, HasMore: hasMore})
}

func respondPage(c *gin.Context, items interface{}, n int, cursor pagination.Cursor) {
	respondList(c, items, cursor.Page(), cursor.HasMore(n))
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: CodeBadRequest, Message: message})
}

// respondError maps core errors onto status codes.
func respondError(c *gin.Context, err error) {
	status, code, message := http.StatusInternalServerError, CodeInternal, err.Error()
	switch {
	case errors.Is(err, db.ErrNotFound):
		status, code = http.StatusNotFound, CodeNotFound
	case db.IsForeignKeyViolation(err):
		status, code = http.StatusNotFound, CodeNotFound
		message = "referenced user or tweet does not exist"
	case errors.Is(err, docsearch.ErrUnknownMetric):
		status, code = http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status, code = http.StatusServiceUnavailable, CodeUnavailable
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: message})
}

// pathID parses an integer path parameter, answering 400 on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name+": "+c.Param(name))
		return 0, false
	}
	return id, true
}

// queryPage reads ?page=, defaulting to 1. Values below 1 are clamped by the
// cursor.
func queryPage(c *gin.Context) (int, bool) {
	raw := c.Query("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid page: "+raw)
		return 0, false
	}
	if page < 1 {
		page = 1
	}
	return page, true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid "+name+": "+raw)
		return 0, false
	}
	return v, true
}
