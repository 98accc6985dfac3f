package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	tweetbook "github.com/lisanmuaddib/tweetbook/pkg"
	"github.com/lisanmuaddib/tweetbook/pkg/server"
)

func newServeCommand(s *state) *cobra.Command {
	var (
		serverHost string
		serverPort int
		serverMode string
		documents  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API over every relational operation. With --documents the
document search and ranking routes are served too; otherwise they answer 503.

Prometheus metrics are exposed on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				s.cfg.Server.Host = serverHost
			}
			if cmd.Flags().Changed("port") {
				s.cfg.Server.Port = serverPort
			}
			if cmd.Flags().Changed("mode") {
				s.cfg.Server.Mode = serverMode
			}

			return s.run(cmd.Context(), documents, func(app *tweetbook.App) error {
				srv := server.New(&s.cfg.Server, app, s.logger)
				srv.Setup()

				serverErrChan := make(chan error, 1)
				go func() {
					serverErrChan <- srv.Start()
				}()

				select {
				case err := <-serverErrChan:
					return err
				case <-cmd.Context().Done():
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
					defer cancel()
					if err := srv.Stop(shutdownCtx); err != nil {
						return fmt.Errorf("server shutdown error: %w", err)
					}
					s.logger.Info("Server stopped gracefully")
					return nil
				}
			})
		},
	}

	cmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	cmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	cmd.Flags().StringVar(&serverMode, "mode", "release", "Server mode (debug, release, test)")
	cmd.Flags().BoolVar(&documents, "documents", false, "connect the document store")
	return cmd
}
