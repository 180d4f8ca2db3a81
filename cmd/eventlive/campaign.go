package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ustudiopd/eventlive/pkg/store/campaign"
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage campaign data in the local SQLite source",
}

var campaignImportCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Import exported campaigns into the SQLite campaign source",
	Long: `Import exported campaign JSON files into the SQLite campaign source named by
storage.campaigns.sqlite.path. An imported campaign replaces any earlier
import with the same id.

Examples:
  eventlive campaign import camp-1.json camp-2.json --config config.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCampaignImport,
}

func init() {
	rootCmd.AddCommand(campaignCmd)
	campaignCmd.AddCommand(campaignImportCmd)
}

func runCampaignImport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.Campaigns.Backend != "sqlite" {
		return fmt.Errorf("import requires the sqlite campaign backend, configured: %s", cfg.Storage.Campaigns.Backend)
	}

	source, err := campaign.NewSQLiteSource(campaign.SQLiteConfig{
		Path:        cfg.Storage.Campaigns.SQLite.Path,
		BusyTimeout: cfg.Storage.Campaigns.SQLite.BusyTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to open campaign source: %w", err)
	}
	defer source.Close()

	return importCampaigns(commandContext(cmd), source, args, func(id string, submissions int) {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %s (%d submissions)\n", id, submissions)
	})
}

func importCampaigns(ctx context.Context, source *campaign.SQLiteSource, files []string, done func(id string, submissions int)) error {
	for _, f := range files {
		data, err := readCampaignFile(f)
		if err != nil {
			return err
		}
		if err := source.Import(ctx, data); err != nil {
			return fmt.Errorf("failed to import %s: %w", f, err)
		}
		done(data.CampaignID, len(data.Submissions))
	}
	return nil
}
