package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	tweetbook "github.com/lisanmuaddib/tweetbook/pkg"
	"github.com/lisanmuaddib/tweetbook/pkg/pagination"
	"github.com/lisanmuaddib/tweetbook/pkg/users"
)

// RegisterRequest is the signup body.
type RegisterRequest struct {
	Password string  `json:"password" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email"`
	City     string  `json:"city"`
	Timezone float64 `json:"timezone"`
}

// FollowRequest names the user to follow.
type FollowRequest struct {
	Flwee int64 `json:"flwee" binding:"required"`
}

// UsersHandler serves user records and the follow graph.
type UsersHandler struct {
	app *tweetbook.App
}

func NewUsersHandler(app *tweetbook.App) *UsersHandler {
	return &UsersHandler{app: app}
}

// Register handles POST /api/v1/users
func (h *UsersHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	usr, err := h.app.Users.Register(c.Request.Context(), users.NewUser{
		Password: req.Password,
		Name:     req.Name,
		Email:    req.Email,
		City:     req.City,
		Timezone: req.Timezone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"usr": usr})
}

// Get handles GET /api/v1/users/:usr
func (h *UsersHandler) Get(c *gin.Context) {
	usr, ok := pathID(c, "usr")
	if !ok {
		return
	}
	user, err := h.app.Users.Get(c.Request.Context(), usr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Profile handles GET /api/v1/users/:usr/profile
func (h *UsersHandler) Profile(c *gin.Context) {
	usr, ok := pathID(c, "usr")
	if !ok {
		return
	}
	profile, err := h.app.Graph.Profile(c.Request.Context(), usr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Followers handles GET /api/v1/users/:usr/followers
func (h *UsersHandler) Followers(c *gin.Context) {
	usr, ok := pathID(c, "usr")
	if !ok {
		return
	}
	followers, err := h.app.Graph.FollowerUsers(c.Request.Context(), usr)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, followers, 1, false)
}

// Followees handles GET /api/v1/users/:usr/followees
func (h *UsersHandler) Followees(c *gin.Context) {
	usr, ok := pathID(c, "usr")
	if !ok {
		return
	}
	ids, err := h.app.Graph.Followees(c.Request.Context(), usr)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, ids, 1, false)
}

// Tweets handles GET /api/v1/users/:usr/tweets
func (h *UsersHandler) Tweets(c *gin.Context) {
	usr, ok := pathID(c, "usr")
	if !ok {
		return
	}
	page, ok := queryPage(c)
	if !ok {
		return
	}
	cursor := pagination.At(page, pagination.FollowerTweetsPageSize)
	tweets, err := h.app.Graph.UserTweets(c.Request.Context(), usr, cursor)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, tweets, len(tweets), cursor)
}

// Follow handles POST /api/v1/users/:usr/follows
func (h *UsersHandler) Follow(c *gin.Context) {
	usr, ok := pathID(c, "usr")
	if !ok {
		return
	}
	var req FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.app.Graph.Follow(c.Request.Context(), usr, req.Flwee); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flwer": usr, "flwee": req.Flwee})
}
