package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/lisanmuaddib/tweetbook/pkg/compose"
	"github.com/lisanmuaddib/tweetbook/pkg/db/models"
	"github.com/lisanmuaddib/tweetbook/pkg/docstore"
	"github.com/lisanmuaddib/tweetbook/pkg/graph"
)

// ErrInvalidSelection is returned when a selection falls outside the
// displayed items.
var ErrInvalidSelection = errors.New("invalid selection")

// Select checks that n names one of items displayed entries, numbered
// from 1.
func Select(n, items int) error {
	if n < 1 || n > items {
		if items == 0 {
			return fmt.Errorf("%w: %d, nothing is displayed", ErrInvalidSelection, n)
		}
		return fmt.Errorf("%w: %d, choose 1-%d", ErrInvalidSelection, n, items)
	}
	return nil
}

const dateLayout = "2006-01-02"

// renderer writes numbered listings.
type renderer struct {
	out     io.Writer
	heading *color.Color
	number  *color.Color
	faint   *color.Color
}

func newRenderer(out io.Writer, noColor bool) *renderer {
	r := &renderer{
		out:     out,
		heading: color.New(color.FgCyan, color.Bold),
		number:  color.New(color.FgGreen),
		faint:   color.New(color.FgWhite, color.Faint),
	}
	if noColor {
		r.heading.DisableColor()
		r.number.DisableColor()
		r.faint.DisableColor()
	}
	return r
}

func (r *renderer) title(format string, args ...interface{}) {
	fmt.Fprintln(r.out, r.heading.Sprintf(format, args...))
}

func (r *renderer) line(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// list prints lines numbered from 1, or an empty marker.
func (r *renderer) list(lines []string) {
	if len(lines) == 0 {
		fmt.Fprintln(r.out, r.faint.Sprint("(no results)"))
		return
	}
	for i, l := range lines {
		fmt.Fprintf(r.out, "%s %s\n", r.number.Sprintf("%d:", i+1), l)
	}
}

// pager prints the navigation hint for a paged listing.
func (r *renderer) pager(page int, hasMore bool) {
	var hints []string
	if page > 1 {
		hints = append(hints, fmt.Sprintf("previous: --page %d", page-1))
	}
	if hasMore {
		hints = append(hints, fmt.Sprintf("more: --page %d", page+1))
	}
	if len(hints) > 0 {
		fmt.Fprintln(r.out, r.faint.Sprintf("page %d (%s)", page, strings.Join(hints, ", ")))
	}
}

func (r *renderer) tweets(tweets []models.Tweet) {
	lines := make([]string, 0, len(tweets))
	for _, t := range tweets {
		lines = append(lines, tweetLine(t))
	}
	r.list(lines)
}

func tweetLine(t models.Tweet) string {
	line := fmt.Sprintf("%s [tweet %d by %d] %s", t.Tdate.Format(dateLayout), t.Tid, t.Writer, t.Text)
	if t.Replyto != nil {
		line += fmt.Sprintf(" (reply to %d)", *t.Replyto)
	}
	return line
}

func (r *renderer) users(users []models.UserSummary) {
	lines := make([]string, 0, len(users))
	for _, u := range users {
		lines = append(lines, fmt.Sprintf("%s [user %d] %s", u.Name, u.Usr, u.City))
	}
	r.list(lines)
}

func (r *renderer) user(u *models.UserSummary) {
	r.title("User %d", u.Usr)
	r.line("name:     %s", u.Name)
	r.line("email:    %s", u.Email)
	r.line("city:     %s", u.City)
	r.line("timezone: %g", u.Timezone)
}

func (r *renderer) profile(p *graph.Profile) {
	r.title("%s [user %d]", p.Name, p.Usr)
	r.line("tweets:    %d", p.TweetCount)
	r.line("following: %d", p.FollowingCount)
	r.line("followers: %d", p.FollowerCount)
}

func (r *renderer) stats(s *compose.TweetStats) {
	r.title("Tweet %d", s.Tid)
	r.line("retweets: %d", s.Retweets)
	r.line("replies:  %d", s.Replies)
}

func (r *renderer) documents(tweets []docstore.TweetDoc) {
	lines := make([]string, 0, len(tweets))
	for _, t := range tweets {
		lines = append(lines, fmt.Sprintf("%d %s @%s: %s", t.ID, docDate(t.Date), t.User.Username, t.Content))
	}
	r.list(lines)
}

func (r *renderer) documentUsers(users []docstore.UserDoc) {
	lines := make([]string, 0, len(users))
	for _, u := range users {
		lines = append(lines, fmt.Sprintf("@%s %s (%s)", u.Username, u.Displayname, u.Location))
	}
	r.list(lines)
}

func (r *renderer) ranks(ranks []docstore.UserRank) {
	lines := make([]string, 0, len(ranks))
	for _, u := range ranks {
		lines = append(lines, fmt.Sprintf("@%s %s followers=%d", u.Username, u.Displayname, u.MaxFollowersCount))
	}
	r.list(lines)
}

func (r *renderer) ranked(tweets []docstore.TweetDoc, metric string) {
	lines := make([]string, 0, len(tweets))
	for _, t := range tweets {
		lines = append(lines, fmt.Sprintf("%d %s @%s retweets=%d likes=%d quotes=%d: %s",
			t.ID, docDate(t.Date), t.User.Username, t.RetweetCount, t.LikeCount, t.QuoteCount, t.Content))
	}
	r.title("Top tweets by %s", metric)
	r.list(lines)
}

// detail prints v as indented JSON, the full-record view of a selection.
func (r *renderer) detail(v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render detail: %w", err)
	}
	fmt.Fprintln(r.out, string(raw))
	return nil
}

// docDate shortens an export timestamp to its date when it parses.
func docDate(s string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout)
		}
	}
	return s
}
