// Package git keeps a local checkout of a git repository of guideline pack
// files in sync with its remote.
//
// A Repository clones the configured branch on its first Sync and pulls on
// every later one. Each sync reports the commits it moved between and the
// pack files (.json, .yaml, .yml) that changed under the configured path.
// A Poller runs Sync on an interval and remembers the last failure for
// health checks:
//
//	repo, err := git.NewRepository(&cfg.Server.GuidelineGit, logger)
//	if err != nil {
//	    return err
//	}
//	if _, err := repo.Sync(ctx); err != nil {
//	    return err
//	}
//	poller := git.NewPoller(repo, cfg.Server.GuidelineGit.PollInterval, logger)
//	go poller.Run(ctx, nil)
//
// The checkout directory, PackDir, is an ordinary pack directory: serve
// watches it with source.Watcher so pulled changes are re-linted like local
// edits.
//
// Pulls never force. A remote that was rewritten fails the pull and the
// checkout stays on the last good commit.
package git
