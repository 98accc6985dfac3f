package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/tweetbook/pkg/db"
	"github.com/lisanmuaddib/tweetbook/pkg/db/models"
	"github.com/lisanmuaddib/tweetbook/pkg/metrics"
	"github.com/lisanmuaddib/tweetbook/pkg/pagination"
)

// rankedUsers matches name or city and ranks name-prefix matches first.
// lower wraps a column in the backend's Unicode-aware lowercase function.
func rankedUsers(lower func(string) string) string {
	name, city := lower("name"), lower("city")
	return `SELECT ` + models.UserSummaryColumns + `
	FROM users
	WHERE ` + name + ` LIKE ? ESCAPE '\' OR ` + city + ` LIKE ? ESCAPE '\'
	ORDER BY
		CASE WHEN ` + name + ` LIKE ? ESCAPE '\' THEN 0 ELSE 1 END,
		LENGTH(name),
		LENGTH(city),
		usr
	LIMIT ? OFFSET ?`
}

// SearchUsers finds users whose name or city contains keyword, ignoring
// case. Results rank name-prefix matches first, then shorter names, then
// shorter cities.
func (e *Engine) SearchUsers(ctx context.Context, keyword string, cursor pagination.Cursor) (users []models.UserSummary, err error) {
	defer metrics.Observe(metrics.Relational, "search.users", time.Now(), &err)

	users = []models.UserSummary{}
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return users, nil
	}

	escaped := db.EscapeLike(keyword)
	contains := "%" + escaped + "%"
	prefix := escaped + "%"

	e.logger.WithFields(logrus.Fields{
		"term": keyword,
		"page": cursor.Page(),
	}).Debug("Searching users")

	err = e.store.DB.WithContext(ctx).
		Raw(rankedUsers(e.store.LowerExpr), contains, contains, prefix, cursor.Limit(), cursor.Offset()).
		Scan(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	metrics.ObserveRows(metrics.Relational, "search.users", len(users))
	return users, nil
}
