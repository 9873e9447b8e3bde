// Package cli implements the medigate command tree.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/medigate/medigate-cli/internal/app"
	"github.com/medigate/medigate-cli/internal/config"
	"github.com/medigate/medigate-cli/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Version = "dev"

var errNotSignedIn = errors.New("not signed in, run 'medigate login' first")

type rootOptions struct {
	configPath string
	dataDir    string
	debug      bool
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "medigate",
		Short:         "Medigate patient client",
		Long:          "Sign in, browse your care data and manage appointments from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file")
	root.PersistentFlags().StringVar(&opts.dataDir, "data", "", "Path to data directory")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Verbose logging on stderr")

	root.AddCommand(
		loginCmd(opts),
		registerCmd(opts),
		logoutCmd(opts),
		whoamiCmd(opts),
		profileCmd(opts),
		doctorsCmd(opts),
		pharmaciesCmd(opts),
		emergencyCmd(opts),
		appointmentsCmd(opts),
		medsCmd(opts),
		recordsCmd(opts),
		notificationsCmd(opts),
		feedbackCmd(opts),
		serveCmd(opts),
		statusCmd(opts),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln(errorStyle.Render("Error: " + err.Error()))
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// withApp opens the application for the duration of fn.
func withApp(opts *rootOptions, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load(opts.configPath, opts.dataDir)
	if err != nil {
		return err
	}

	logger, err := newLogger(opts.debug || cfg.API.EnableLogging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	st, err := store.New(cfg, logger)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, st, logger, Version)
	if err != nil {
		st.Close()
		return err
	}
	defer a.Close()

	return fn(context.Background(), a)
}

// withSession is withApp for commands that need a signed-in user.
func withSession(opts *rootOptions, fn func(ctx context.Context, a *app.App) error) error {
	return withApp(opts, func(ctx context.Context, a *app.App) error {
		if !a.Credentials.IsAuthenticated(ctx) {
			return errNotSignedIn
		}
		return fn(ctx, a)
	})
}
