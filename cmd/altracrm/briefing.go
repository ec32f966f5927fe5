package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/altrapisos/crm/internal/core/ports"
	"github.com/altrapisos/crm/internal/core/query"
	"github.com/altrapisos/crm/pkg/logger"
)

var briefingLang string

var briefingCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Print the daily coaching briefing for the open pipeline",
	Args:  cobra.NoArgs,
	RunE:  runBriefing,
}

func init() {
	briefingCmd.Flags().StringVar(&briefingLang, "lang", "", "es or en (default ASSISTANT_LANGUAGE)")
}

func runBriefing(cmd *cobra.Command, _ []string) error {
	if briefingLang != "" && briefingLang != ports.LanguageES && briefingLang != ports.LanguageEN {
		return fmt.Errorf("--lang must be %s or %s", ports.LanguageES, ports.LanguageEN)
	}
	ctx := cmd.Context()
	a, err := bootstrap(ctx, cfg, logger.Get(), nil)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	rs, err := a.records.List(ctx, query.Filter{}, query.Sort{})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), a.assistant.DailyBriefing(ctx, rs, briefingLang))
	return nil
}
