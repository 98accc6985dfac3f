package cli

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	tweetbook "github.com/lisanmuaddib/tweetbook/pkg"
	"github.com/lisanmuaddib/tweetbook/pkg/docsearch"
	"github.com/lisanmuaddib/tweetbook/pkg/docstore"
)

func newDocCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Load, search and rank the tweet document collection",
	}
	cmd.AddCommand(
		newDocLoadCommand(s),
		newDocSearchTweetsCommand(s),
		newDocSearchUsersCommand(s),
		newDocTopTweetsCommand(s),
		newDocTopUsersCommand(s),
		newDocComposeCommand(s),
	)
	return cmd
}

func newDocLoadCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Import a newline-delimited JSON tweet export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), true, func(app *tweetbook.App) error {
				if s.client != nil {
					names, err := docstore.EnsureIndexes(cmd.Context(), s.client.Collection())
					if err != nil {
						return err
					}
					s.logger.WithField("indexes", names).Debug("Ensured document indexes")
				}

				report, err := app.Loader.LoadFile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				s.logger.WithFields(logrus.Fields{
					"file":     args[0],
					"inserted": report.Inserted,
					"skipped":  report.Skipped,
				}).Info("Loaded documents")

				r := newRenderer(cmd.OutOrStdout(), s.noColor)
				r.line("Inserted %d documents in %d batches, skipped %d lines", report.Inserted, report.Batches, report.Skipped)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&s.resetDocuments, "reset", false, "delete existing documents first")
	return cmd
}

func newDocSearchTweetsCommand(s *state) *cobra.Command {
	var selected int
	cmd := &cobra.Command{
		Use:   "search-tweets KEYWORD...",
		Short: "Find tweets containing every keyword, ignoring case",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keywords := strings.Fields(strings.Join(args, " "))
			return s.run(cmd.Context(), true, func(app *tweetbook.App) error {
				tweets, err := app.Docs.SearchTweets(cmd.Context(), keywords)
				if err != nil {
					return err
				}
				r := newRenderer(cmd.OutOrStdout(), s.noColor)
				if selected != 0 {
					if err := Select(selected, len(tweets)); err != nil {
						return err
					}
					return r.detail(tweets[selected-1])
				}
				r.title("Tweets")
				r.documents(tweets)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&selected, "select", 0, "show every field of the Nth tweet")
	return cmd
}

func newDocSearchUsersCommand(s *state) *cobra.Command {
	var selected int
	cmd := &cobra.Command{
		Use:   "search-users KEYWORD",
		Short: "Find users by display name or location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), true, func(app *tweetbook.App) error {
				users, err := app.Docs.SearchUsers(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				r := newRenderer(cmd.OutOrStdout(), s.noColor)
				if selected != 0 {
					if err := Select(selected, len(users)); err != nil {
						return err
					}
					return r.detail(users[selected-1])
				}
				r.title("Users")
				r.documentUsers(users)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&selected, "select", 0, "show every field of the Nth user")
	return cmd
}

func newDocTopTweetsCommand(s *state) *cobra.Command {
	var (
		metricName string
		n          int
	)
	cmd := &cobra.Command{
		Use:   "top-tweets",
		Short: "List the N tweets with the highest count of a metric",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := docsearch.ParseMetric(metricName)
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), true, func(app *tweetbook.App) error {
				tweets, err := app.Docs.TopTweets(cmd.Context(), metric, n)
				if err != nil {
					return err
				}
				newRenderer(cmd.OutOrStdout(), s.noColor).ranked(tweets, string(metric))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&metricName, "metric", string(docsearch.RetweetCount), "retweetCount, likeCount or quoteCount")
	cmd.Flags().IntVar(&n, "n", 10, "number of tweets")
	return cmd
}

func newDocTopUsersCommand(s *state) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "top-users",
		Short: "List the N users with the most followers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), true, func(app *tweetbook.App) error {
				users, err := app.Docs.TopUsers(cmd.Context(), n)
				if err != nil {
					return err
				}
				r := newRenderer(cmd.OutOrStdout(), s.noColor)
				r.title("Top users by followers")
				r.ranks(users)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 10, "number of users")
	return cmd
}

func newDocComposeCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "compose [TEXT...]",
		Short: "Write a tweet document under the configured username",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return s.run(cmd.Context(), true, func(app *tweetbook.App) error {
				tweet, err := app.Docs.Compose(cmd.Context(), text)
				if err != nil {
					return err
				}
				newRenderer(cmd.OutOrStdout(), s.noColor).line("Posted document as @%s at %s", tweet.User.Username, tweet.Date)
				return nil
			})
		},
	}
}
