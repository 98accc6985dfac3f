package cli

import (
	"strings"

	"github.com/spf13/cobra"

	tweetbook "github.com/lisanmuaddib/tweetbook/pkg"
	"github.com/lisanmuaddib/tweetbook/pkg/db/models"
	"github.com/lisanmuaddib/tweetbook/pkg/pagination"
	"github.com/lisanmuaddib/tweetbook/pkg/search"
)

// showTweet prints the selected tweet with its interaction counts.
func showTweet(cmd *cobra.Command, s *state, app *tweetbook.App, tweet models.Tweet) error {
	stats, err := app.Compose.Stats(cmd.Context(), tweet.Tid)
	if err != nil {
		return err
	}
	r := newRenderer(cmd.OutOrStdout(), s.noColor)
	r.stats(stats)
	r.line("%s", tweetLine(tweet))
	return nil
}

// pickTweet renders tweets, or the selected one when selected is set.
func pickTweet(cmd *cobra.Command, s *state, app *tweetbook.App, title string, tweets []models.Tweet, selected, page int, hasMore bool) error {
	if selected != 0 {
		if err := Select(selected, len(tweets)); err != nil {
			return err
		}
		return showTweet(cmd, s, app, tweets[selected-1])
	}
	r := newRenderer(cmd.OutOrStdout(), s.noColor)
	r.title("%s", title)
	r.tweets(tweets)
	r.pager(page, hasMore)
	return nil
}

func newFeedCommand(s *state) *cobra.Command {
	var page, selected int
	cmd := &cobra.Command{
		Use:   "feed USR",
		Short: "Show tweets and retweets from the users USR follows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usr, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), false, func(app *tweetbook.App) error {
				cursor := pagination.At(page, pagination.FeedPageSize)
				tweets, err := app.Feed.Timeline(cmd.Context(), usr, cursor)
				if err != nil {
					return err
				}
				return pickTweet(cmd, s, app, "Feed", tweets, selected, cursor.Page(), cursor.HasMore(len(tweets)))
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&selected, "select", 0, "show the Nth tweet of the page with its stats")
	return cmd
}

func newComposeCommand(s *state) *cobra.Command {
	var replyTo int64
	cmd := &cobra.Command{
		Use:   "compose USR [TEXT...]",
		Short: "Write a tweet as USR; #terms become hashtags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usr, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			var reply *int64
			if cmd.Flags().Changed("reply-to") {
				reply = &replyTo
			}
			text := strings.Join(args[1:], " ")
			return s.run(cmd.Context(), false, func(app *tweetbook.App) error {
				composed, err := app.Compose.Compose(cmd.Context(), usr, text, reply)
				if err != nil {
					return err
				}
				r := newRenderer(cmd.OutOrStdout(), s.noColor)
				r.line("Posted tweet %d", composed.Tweet.Tid)
				if len(composed.Hashtags) > 0 {
					r.line("hashtags: %s", strings.Join(composed.Hashtags, ", "))
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&replyTo, "reply-to", 0, "id of the tweet being answered")
	return cmd
}

func newRetweetCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "retweet USR TID",
		Short: "Retweet TID as USR",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			usr, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			tid, err := parseID("tweet", args[1])
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), false, func(app *tweetbook.App) error {
				if err := app.Compose.Retweet(cmd.Context(), usr, tid); err != nil {
					return err
				}
				newRenderer(cmd.OutOrStdout(), s.noColor).line("User %d retweeted %d", usr, tid)
				return nil
			})
		},
	}
}

func newStatsCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "stats TID",
		Short: "Count retweets and replies of a tweet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tid, err := parseID("tweet", args[0])
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), false, func(app *tweetbook.App) error {
				stats, err := app.Compose.Stats(cmd.Context(), tid)
				if err != nil {
					return err
				}
				newRenderer(cmd.OutOrStdout(), s.noColor).stats(stats)
				return nil
			})
		},
	}
}

func newSearchCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search tweets and users in the relational store",
	}

	var tweetsPage, tweetsSelected int
	tweets := &cobra.Command{
		Use:   "tweets TERM...",
		Short: "Find tweets by #hashtag or text; results of all terms are merged",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			terms := search.ParseTerms(strings.Join(args, " "))
			return s.run(cmd.Context(), false, func(app *tweetbook.App) error {
				page := pagination.At(tweetsPage, 1).Page()
				found, err := app.Search.SearchTweets(cmd.Context(), terms, page)
				if err != nil {
					return err
				}
				return pickTweet(cmd, s, app, "Tweets", found, tweetsSelected, page, len(found) > 0)
			})
		},
	}
	tweets.Flags().IntVar(&tweetsPage, "page", 1, "page number, applied to every term")
	tweets.Flags().IntVar(&tweetsSelected, "select", 0, "show the Nth tweet with its stats")

	var usersPage, usersSelected, profilePage int
	usersCmd := &cobra.Command{
		Use:   "users KEYWORD",
		Short: "Find users by name or city, closest names first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), false, func(app *tweetbook.App) error {
				cursor := pagination.At(usersPage, pagination.UserSearchPageSize)
				found, err := app.Search.SearchUsers(cmd.Context(), strings.TrimSpace(args[0]), cursor)
				if err != nil {
					return err
				}
				if usersSelected != 0 {
					if err := Select(usersSelected, len(found)); err != nil {
						return err
					}
					return showUser(cmd, s, app, found[usersSelected-1].Usr, profilePage)
				}
				r := newRenderer(cmd.OutOrStdout(), s.noColor)
				r.title("Users")
				r.users(found)
				r.pager(cursor.Page(), cursor.HasMore(len(found)))
				return nil
			})
		},
	}
	usersCmd.Flags().IntVar(&usersPage, "page", 1, "page number")
	usersCmd.Flags().IntVar(&usersSelected, "select", 0, "show the profile of the Nth user")
	usersCmd.Flags().IntVar(&profilePage, "tweets-page", 1, "page of the selected user's tweets")

	cmd.AddCommand(tweets, usersCmd)
	return cmd
}
