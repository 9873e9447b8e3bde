package cli

import (
	"context"
	"fmt"

	"github.com/medigate/medigate-cli/internal/app"
	"github.com/spf13/cobra"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var port int
	var address string

	cmd := &cobra.Command{
		Use:   "serve-fixtures",
		Short: "Serve the fixture dataset over HTTP",
		Long: "Starts an HTTP server that answers every backend endpoint from the local\n" +
			"fixture dataset. Point api.base_url at it to exercise remote mode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				if cmd.Flags().Changed("port") {
					a.Config.DevServer.Port = port
				}
				if cmd.Flags().Changed("address") {
					a.Config.DevServer.Address = address
				}
				fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render("Fixture server on http://"+fmt.Sprintf("%s:%d", a.Config.DevServer.Address, a.Config.DevServer.Port)))
				return a.RunServer()
			})
		},
	}
	cmd.Flags().IntVar(&port, "port", 8888, "Listen port")
	cmd.Flags().StringVar(&address, "address", "127.0.0.1", "Listen address")
	return cmd
}

func statusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend mode, storage and session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				w := cmd.OutOrStdout()
				fmt.Fprintln(w, titleStyle.Render("Medigate "+a.Version))

				backend := a.Config.API.BaseURL
				if a.Client.IsLocal() {
					backend = "bundled fixtures"
					if a.Config.Fixtures.Path != "" {
						backend = a.Config.Fixtures.Path
					}
				}
				fmt.Fprintf(w, "  Mode:        %s (%s)\n", a.Client.Mode(), backend)
				fmt.Fprintf(w, "  Data dir:    %s\n", a.Config.Storage.DataDir)
				fmt.Fprintf(w, "  Credentials: %s\n", a.Credentials.Mode())
				fmt.Fprintf(w, "  Signed in:   %s\n", yesNo(a.Credentials.IsAuthenticated(ctx), "yes", "no"))

				pending, err := a.Store.CountPendingFeedback(ctx)
				if err != nil {
					return err
				}
				collector := a.Config.Feedback.CollectorURL
				if collector == "" {
					collector = "not configured"
				}
				fmt.Fprintf(w, "  Feedback:    %d pending, collector %s\n", pending, collector)
				return nil
			})
		},
	}
}
