package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/altrapisos/crm/internal/core/persistence"
	"github.com/altrapisos/crm/pkg/logger"
)

var backupOutput string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a full backup file",
	Long: `Writes records, options, users and audit logs from the active store to a
single JSON file. "-o -" writes to stdout.`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore a backup file into local storage",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func init() {
	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "output file (default altra_crm_backup_<date>.json)")
}

func runBackup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx, cfg, logger.Get(), nil)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	b, err := a.vault.Backup(ctx, operator())
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	name := backupOutput
	if name == "" {
		name = b.Filename(time.Now())
	}
	if name != "-" {
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create backup file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := persistence.WriteBackup(w, b); err != nil {
		return err
	}
	if name != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "backup written to %s\n", name)
	}
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	a, err := bootstrap(ctx, cfg, logger.Get(), nil)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	res, err := a.vault.Restore(ctx, operator(), f)
	if err != nil {
		return err
	}
	if res.Warning != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", res.Warning)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "backup restored")
	return nil
}
