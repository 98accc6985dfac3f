package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lisanmuaddib/tweetbook/pkg/db"
	"github.com/lisanmuaddib/tweetbook/pkg/db/models"
	"github.com/lisanmuaddib/tweetbook/pkg/metrics"
)

// NewUser holds the signup fields.
type NewUser struct {
	Password string
	Name     string
	Email    string
	City     string
	Timezone float64
}

// Validate checks the required fields.
func (u NewUser) Validate() error {
	var missing []string
	if strings.TrimSpace(u.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(u.Password) == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required user fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Registry creates and looks up users.
type Registry struct {
	store  *db.Store
	logger *logrus.Logger
}

func New(store *db.Store) *Registry {
	return &Registry{
		store:  store,
		logger: store.Logger,
	}
}

// Register stores a new user and returns the assigned id.
func (r *Registry) Register(ctx context.Context, u NewUser) (usr int64, err error) {
	defer metrics.Observe(metrics.Relational, "users.register", time.Now(), &err)

	if err := u.Validate(); err != nil {
		return 0, err
	}

	usr, err = r.store.InsertWithNextID(ctx, "users", "usr", func(tx *gorm.DB, id int64) error {
		row := models.User{
			Usr:      id,
			Pwd:      u.Password,
			Name:     u.Name,
			Email:    u.Email,
			City:     u.City,
			Timezone: u.Timezone,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.WithFields(logrus.Fields{
		"usr":  usr,
		"name": u.Name,
	}).Info("Registered user")
	return usr, nil
}

// Get returns the user without credentials.
func (r *Registry) Get(ctx context.Context, usr int64) (user *models.UserSummary, err error) {
	defer metrics.Observe(metrics.Relational, "users.get", time.Now(), &err)

	user = &models.UserSummary{}
	err = r.store.DB.WithContext(ctx).
		Table("users").
		Select(models.UserSummaryColumns).
		Where("usr = ?", usr).
		Take(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
