// Package retention prunes archived guideline packs on a cron schedule.
//
// Pruning runs in two phases: packs archived longer ago than RetentionDays
// are removed, then the oldest archived packs beyond MaxArchived. Drafts and
// published packs are never touched. With ExportBeforeDelete the doomed packs
// are first written to a JSON file under ExportPath.
package retention
