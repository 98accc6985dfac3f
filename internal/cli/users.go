package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	tweetbook "github.com/lisanmuaddib/tweetbook/pkg"
	"github.com/lisanmuaddib/tweetbook/pkg/pagination"
	"github.com/lisanmuaddib/tweetbook/pkg/users"
)

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func newUsersCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Register and look up users",
	}

	var u users.NewUser
	register := &cobra.Command{
		Use:   "register",
		Short: "Create a user with the next free id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), false, func(app *tweetbook.App) error {
				usr, err := app.Users.Register(cmd.Context(), u)
				if err != nil {
					return err
				}
				newRenderer(cmd.OutOrStdout(), s.noColor).line("Registered user %d", usr)
				return nil
			})
		},
	}
	register.Flags().StringVar(&u.Name, "name", "", "display name")
	register.Flags().StringVar(&u.Password, "password", "", "password")
	register.Flags().StringVar(&u.Email, "email", "", "email address")
	register.Flags().StringVar(&u.City, "city", "", "city")
	register.Flags().Float64Var(&u.Timezone, "timezone", 0, "UTC offset in hours")

	show := &cobra.Command{
		Use:   "show USR",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usr, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), false, func(app *tweetbook.App) error {
				user, err := app.Users.Get(cmd.Context(), usr)
				if err != nil {
					return err
				}
				newRenderer(cmd.OutOrStdout(), s.noColor).user(user)
				return nil
			})
		},
	}

	cmd.AddCommand(register, show)
	return cmd
}

// showUser prints a profile followed by one page of the user's tweets.
func showUser(cmd *cobra.Command, s *state, app *tweetbook.App, usr int64, page int) error {
	ctx := cmd.Context()
	r := newRenderer(cmd.OutOrStdout(), s.noColor)

	profile, err := app.Graph.Profile(ctx, usr)
	if err != nil {
		return err
	}
	r.profile(profile)

	cursor := pagination.At(page, pagination.FollowerTweetsPageSize)
	tweets, err := app.Graph.UserTweets(ctx, usr, cursor)
	if err != nil {
		return err
	}
	r.title("Recent tweets")
	r.tweets(tweets)
	r.pager(cursor.Page(), cursor.HasMore(len(tweets)))
	return nil
}

func newProfileCommand(s *state) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "profile USR",
		Short: "Show a user's counts and recent tweets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usr, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), false, func(app *tweetbook.App) error {
				return showUser(cmd, s, app, usr, page)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page of recent tweets")
	return cmd
}

func newFollowersCommand(s *state) *cobra.Command {
	var selected, tweetsPage int
	cmd := &cobra.Command{
		Use:   "followers USR",
		Short: "List the users following USR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usr, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), false, func(app *tweetbook.App) error {
				followers, err := app.Graph.FollowerUsers(cmd.Context(), usr)
				if err != nil {
					return err
				}
				if selected != 0 {
					if err := Select(selected, len(followers)); err != nil {
						return err
					}
					return showUser(cmd, s, app, followers[selected-1].Usr, tweetsPage)
				}
				r := newRenderer(cmd.OutOrStdout(), s.noColor)
				r.title("Followers of %d", usr)
				r.users(followers)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&selected, "select", 0, "show the profile of the Nth follower")
	cmd.Flags().IntVar(&tweetsPage, "tweets-page", 1, "page of the selected follower's tweets")
	return cmd
}

func newFolloweesCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "followees USR",
		Short: "List the ids USR follows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usr, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), false, func(app *tweetbook.App) error {
				ids, err := app.Graph.Followees(cmd.Context(), usr)
				if err != nil {
					return err
				}
				lines := make([]string, 0, len(ids))
				for _, id := range ids {
					lines = append(lines, fmt.Sprintf("user %d", id))
				}
				r := newRenderer(cmd.OutOrStdout(), s.noColor)
				r.title("Followed by %d", usr)
				r.list(lines)
				return nil
			})
		},
	}
}

func newFollowCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "follow FLWER FLWEE",
		Short: "Make FLWER follow FLWEE, restarting the follow date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flwer, err := parseID("follower", args[0])
			if err != nil {
				return err
			}
			flwee, err := parseID("followee", args[1])
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), false, func(app *tweetbook.App) error {
				if err := app.Graph.Follow(cmd.Context(), flwer, flwee); err != nil {
					return err
				}
				newRenderer(cmd.OutOrStdout(), s.noColor).line("User %d now follows %d", flwer, flwee)
				return nil
			})
		},
	}
}
