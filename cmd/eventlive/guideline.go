package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ustudiopd/eventlive/pkg/cli"
	"ustudiopd/eventlive/pkg/config"
	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/store/guidelines"
	"ustudiopd/eventlive/pkg/store/guidelines/retention"
)

var guidelineCmd = &cobra.Command{
	Use:   "guideline",
	Short: "Manage stored guideline packs",
	Long: `Manage guideline packs in the configured guideline store.

Packs are created as drafts. Publishing a draft archives the campaign's
previously published pack; each campaign has at most one published pack.
Archived packs are removed by retention pruning.`,
}

var guidelineCreateFlags struct {
	campaignID string
	publish    bool
	format     string
}

var guidelineCreateCmd = &cobra.Command{
	Use:   "create PACK",
	Short: "Store a guideline pack as a draft",
	Long: `Validate a guideline pack file and store it as a draft.

Examples:
  eventlive guideline create pack.yaml
  eventlive guideline create pack.yaml --campaign camp-1 --publish`,
	Args: cobra.ExactArgs(1),
	RunE: runGuidelineCreate,
}

var guidelinePublishFlags struct {
	format string
}

var guidelinePublishCmd = &cobra.Command{
	Use:   "publish ID",
	Short: "Publish a draft guideline pack",
	Args:  cobra.ExactArgs(1),
	RunE:  runGuidelinePublish,
}

var guidelineListFlags struct {
	campaignID string
	status     string
	format     string
}

var guidelineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored guideline packs",
	Long: `List stored guideline packs, newest first.

Examples:
  eventlive guideline list
  eventlive guideline list --campaign camp-1 --status archived --format json`,
	RunE: runGuidelineList,
}

var guidelinePruneFlags struct {
	days   int
	keep   int
	dryRun bool
}

var guidelinePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired archived guideline packs",
	Long: `Apply the retention policy once: delete archived packs older than the
retention period and, when a cap is set, all but the newest archived packs.

Flags override the configured retention settings.

Examples:
  eventlive guideline prune
  eventlive guideline prune --days 30 --keep 10
  eventlive guideline prune --dry-run`,
	RunE: runGuidelinePrune,
}

func init() {
	rootCmd.AddCommand(guidelineCmd)
	guidelineCmd.AddCommand(guidelineCreateCmd, guidelinePublishCmd, guidelineListCmd, guidelinePruneCmd)

	guidelineCreateCmd.Flags().StringVar(&guidelineCreateFlags.campaignID, "campaign", "", "campaign id (overrides the pack's campaignId)")
	guidelineCreateCmd.Flags().BoolVar(&guidelineCreateFlags.publish, "publish", false, "publish the pack after creating it")
	guidelineCreateCmd.Flags().StringVar(&guidelineCreateFlags.format, "format", "text", "output format: text, json")

	guidelinePublishCmd.Flags().StringVar(&guidelinePublishFlags.format, "format", "text", "output format: text, json")

	guidelineListCmd.Flags().StringVar(&guidelineListFlags.campaignID, "campaign", "", "only packs of this campaign")
	guidelineListCmd.Flags().StringVar(&guidelineListFlags.status, "status", "", "only packs with this status: draft, published, archived")
	guidelineListCmd.Flags().StringVar(&guidelineListFlags.format, "format", "text", "output format: text, json")

	guidelinePruneCmd.Flags().IntVar(&guidelinePruneFlags.days, "days", -1, "retention period in days (0 keeps packs forever)")
	guidelinePruneCmd.Flags().IntVar(&guidelinePruneFlags.keep, "keep", -1, "maximum number of archived packs (0 means unlimited)")
	guidelinePruneCmd.Flags().BoolVar(&guidelinePruneFlags.dryRun, "dry-run", false, "list packs that would be deleted")
}

// withStore opens the configured guideline store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, store guidelines.Store) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openGuidelineStore(cfg.Storage.Guidelines)
	if err != nil {
		return fmt.Errorf("failed to open guideline store: %w", err)
	}
	defer store.Close()
	return fn(commandContext(cmd), cfg, store)
}

// PackSummary is one stored pack in command output.
type PackSummary struct {
	ID          string           `json:"id"`
	CampaignID  string           `json:"campaignId"`
	Title       string           `json:"title,omitempty"`
	Status      guideline.Status `json:"status"`
	Fingerprint string           `json:"formFingerprint"`
	CreatedAt   time.Time        `json:"createdAt"`
	PublishedAt *time.Time       `json:"publishedAt,omitempty"`
	ArchivedAt  *time.Time       `json:"archivedAt,omitempty"`
}

func summarize(p *guideline.Pack) PackSummary {
	return PackSummary{
		ID:          p.ID,
		CampaignID:  p.CampaignID,
		Title:       p.Title,
		Status:      p.Status,
		Fingerprint: p.FormFingerprint,
		CreatedAt:   p.CreatedAt,
		PublishedAt: p.PublishedAt,
		ArchivedAt:  p.ArchivedAt,
	}
}

// Text implements cli.Texter.
func (s PackSummary) Text() string {
	return fmt.Sprintf("%s  %-9s %s  %s", s.ID, s.Status, s.CampaignID, s.Title)
}

// PackList is the output of guideline list.
type PackList []PackSummary

// Text implements cli.Texter.
func (l PackList) Text() string {
	if len(l) == 0 {
		return "No guideline packs found"
	}
	var b strings.Builder
	for _, s := range l {
		b.WriteString(strings.TrimRight(s.Text(), " ") + "\n")
	}
	return b.String()
}

func runGuidelineCreate(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(guidelineCreateFlags.format)
	if err != nil {
		return err
	}
	pack, err := guideline.Load(args[0])
	if err != nil {
		return err
	}
	if guidelineCreateFlags.campaignID != "" {
		pack.CampaignID = guidelineCreateFlags.campaignID
	}
	if v := guideline.Validate(pack, ""); !v.IsValid {
		_ = cli.WriteDiagnostics(cmd.ErrOrStderr(), v.Errors, v.Warnings)
		return cli.Invalid("%s has %d error(s)", args[0], len(v.Errors))
	}

	return withStore(cmd, func(ctx context.Context, _ *config.Config, store guidelines.Store) error {
		pack.Status = ""
		if err := store.Create(ctx, pack); err != nil {
			return err
		}
		if guidelineCreateFlags.publish {
			if pack, err = store.Publish(ctx, pack.ID); err != nil {
				return err
			}
		}
		return formatter.FormatTo(cmd.OutOrStdout(), summarize(pack))
	})
}

func runGuidelinePublish(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(guidelinePublishFlags.format)
	if err != nil {
		return err
	}
	return withStore(cmd, func(ctx context.Context, _ *config.Config, store guidelines.Store) error {
		pack, err := store.Publish(ctx, args[0])
		if err != nil {
			return err
		}
		return formatter.FormatTo(cmd.OutOrStdout(), summarize(pack))
	})
}

func runGuidelineList(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(guidelineListFlags.format)
	if err != nil {
		return err
	}
	status := guideline.Status(guidelineListFlags.status)
	if status != "" && !status.Valid() {
		return fmt.Errorf("unknown status %q (valid: draft, published, archived)", guidelineListFlags.status)
	}

	return withStore(cmd, func(ctx context.Context, _ *config.Config, store guidelines.Store) error {
		packs, err := store.List(ctx, guidelines.Filter{
			CampaignID: guidelineListFlags.campaignID,
			Status:     status,
		})
		if err != nil {
			return err
		}
		list := make(PackList, 0, len(packs))
		for _, p := range packs {
			list = append(list, summarize(p))
		}
		return formatter.FormatTo(cmd.OutOrStdout(), list)
	})
}

func retentionConfig(cfg config.RetentionConfig) *retention.Config {
	return &retention.Config{
		RetentionDays:      cfg.Days,
		PruneSchedule:      cfg.PruneSchedule,
		MaxArchived:        cfg.MaxArchived,
		ExportBeforeDelete: cfg.ExportBeforeDelete,
		ExportPath:         cfg.ExportPath,
	}
}

func runGuidelinePrune(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, cfg *config.Config, store guidelines.Store) error {
		rc := retentionConfig(cfg.Retention)
		if guidelinePruneFlags.days >= 0 {
			rc.RetentionDays = guidelinePruneFlags.days
		}
		if guidelinePruneFlags.keep >= 0 {
			rc.MaxArchived = guidelinePruneFlags.keep
		}
		out := cmd.OutOrStdout()

		if guidelinePruneFlags.dryRun {
			doomed, err := pruneCandidates(ctx, store, rc, time.Now())
			if err != nil {
				return err
			}
			for _, p := range doomed {
				fmt.Fprintf(out, "would delete %s (campaign %s, archived %s)\n",
					p.ID, p.CampaignID, p.ArchivedAt.Format(time.RFC3339))
			}
			fmt.Fprintf(out, "%d pack(s) would be deleted\n", len(doomed))
			return nil
		}

		deleted, err := retention.NewPruner(store, rc, nil).Prune(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Deleted %d archived pack(s)\n", deleted)
		return nil
	})
}

// pruneCandidates lists the archived packs a prune would delete: those past
// the retention period, then the oldest beyond the cap.
func pruneCandidates(ctx context.Context, store guidelines.Store, rc *retention.Config, now time.Time) ([]*guideline.Pack, error) {
	archived, err := store.List(ctx, guidelines.Filter{Status: guideline.StatusArchived})
	if err != nil {
		return nil, err
	}

	var doomed, kept []*guideline.Pack
	cutoff := now.AddDate(0, 0, -rc.RetentionDays)
	for _, p := range archived {
		if rc.RetentionDays > 0 && p.ArchivedAt != nil && p.ArchivedAt.Before(cutoff) {
			doomed = append(doomed, p)
		} else {
			kept = append(kept, p)
		}
	}
	if rc.MaxArchived > 0 && len(kept) > rc.MaxArchived {
		sortNewestArchived(kept)
		doomed = append(doomed, kept[rc.MaxArchived:]...)
	}
	return doomed, nil
}

func sortNewestArchived(packs []*guideline.Pack) {
	sort.SliceStable(packs, func(i, j int) bool {
		a, b := packs[i].ArchivedAt, packs[j].ArchivedAt
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.After(*b)
	})
}
