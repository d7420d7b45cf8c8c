// skout is the command-line client for SKOUT: search college coaching
// staffs, keep the ones worth contacting, and manage outreach templates.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/config"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/logging"
)

var (
	configPath string
	verbose    bool

	a *app
)

var rootCmd = &cobra.Command{
	Use:   "skout",
	Short: "Find and contact college coaches",
	Long: `skout searches a school's athletic staff for a sport, saves the coaches
you want to reach, and keeps your outreach templates in one place.

Sign in first with 'skout signin' (or create an account with 'skout signup').`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger, err := logging.New(level, cfg.LogDevelopment || verbose)
		if err != nil {
			return err
		}
		a, err = newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		a.out = cmd.OutOrStdout()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if a != nil {
			a.close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("SKOUT_CONFIG"), "path to YAML config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(signUpCmd, signInCmd, signOutCmd, whoAmICmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(contactsCmd)
	rootCmd.AddCommand(templatesCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if a != nil {
			a.logger.Debug("command failed", zap.Error(err))
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
