// Package cli provides the Cobra-based command line for productapi.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"productapi/internal/config"
	"productapi/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the state shared by all subcommands once flags are parsed.
type app struct {
	v   *viper.Viper
	cfg *config.Config
	log *logger.Logger
}

// NewRootCmd builds the command tree. Flags are bound into a fresh viper
// instance so environment variables and config files see the same keys.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "productapi",
		Short:         "GraphQL product catalog service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.New(logger.Config{
				Env:    cfg.App.Env,
				Level:  cfg.Log.Level,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("env", "", "environment: development|production|test (APP_ENV)")
	flags.String("storage", "", "storage driver: mongo|postgres|sqlite|memory (STORAGE_DRIVER)")
	flags.String("log-level", "", "log level (LOG_LEVEL)")
	_ = a.v.BindPFlag("APP_ENV", flags.Lookup("env"))
	_ = a.v.BindPFlag("STORAGE_DRIVER", flags.Lookup("storage"))
	_ = a.v.BindPFlag("LOG_LEVEL", flags.Lookup("log-level"))

	root.AddCommand(
		newServeCmd(a),
		newSeedCmd(a),
		newTokenCmd(a),
		newHashKeyCmd(),
		newEventsCmd(a),
	)
	return root
}

// Execute runs the root command until it returns or the process is signalled.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
