// Command altracrm runs the Altra CRM: the local HTTP API and the operator
// commands around it.
//
// @title                       Altra CRM API
// @version                     1.0
// @description                 Records, options, users, assistant and backups for the Altra CRM.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/altrapisos/crm/internal/pkg/config"
	"github.com/altrapisos/crm/pkg/logger"
)

var (
	// Global flags
	logLevel  string
	localPath string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "altracrm",
	Short: "Altra CRM",
	Long: `Altra CRM keeps the sales pipeline in a hosted store when one is
configured and reachable, and in local storage otherwise.

Run "altracrm serve" to start the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd.Context())
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("data") {
			cfg.Local.Path = localPath
		}
		logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, App: "altracrm"})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&localPath, "data", "./data", "local storage directory")

	rootCmd.AddCommand(serveCmd, backupCmd, restoreCmd, connectCmd, disconnectCmd, briefingCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
