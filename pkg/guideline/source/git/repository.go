package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"ustudiopd/eventlive/pkg/config"
	"ustudiopd/eventlive/pkg/guideline/source"
)

// CommitInfo describes the checked-out commit.
type CommitInfo struct {
	SHA       string    `json:"sha"`
	Author    string    `json:"author"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// SyncResult reports one clone or pull.
type SyncResult struct {
	// Cloned is set when this sync created the checkout.
	Cloned  bool
	FromSHA string
	ToSHA   string
	// ChangedPacks lists changed pack files, slash-separated and relative
	// to the repository root. Deleted files are included.
	ChangedPacks []string
}

// Changed reports whether the sync moved HEAD.
func (r *SyncResult) Changed() bool {
	return r.Cloned || r.FromSHA != r.ToSHA
}

// Repository is a local checkout of a guideline pack repository.
type Repository struct {
	cfg    config.GitSourceConfig
	auth   transport.AuthMethod
	logger *slog.Logger

	mu   sync.Mutex
	repo *gogit.Repository
}

// NewRepository creates a repository manager. Nothing is fetched until Sync.
func NewRepository(cfg *config.GitSourceConfig, logger *slog.Logger) (*Repository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Repository == "" {
		return nil, errors.New("repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, errors.New("branch cannot be empty")
	}
	if cfg.LocalPath == "" {
		return nil, errors.New("local path cannot be empty")
	}

	auth, err := NewAuth(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth: %w", err)
	}
	if logger == nil {
		logger = slog.Default().With("component", "guideline_git")
	}

	r := &Repository{cfg: *cfg, auth: auth, logger: logger}
	if r.cfg.Timeout <= 0 {
		r.cfg.Timeout = config.DefaultGitTimeout
	}
	return r, nil
}

// PackDir returns the directory of pack files inside the checkout.
func (r *Repository) PackDir() string {
	return filepath.Join(r.cfg.LocalPath, r.cfg.Path)
}

// Sync clones the repository on first use, or opens an existing checkout,
// and pulls the tracked branch.
func (r *Repository) Sync(ctx context.Context) (*SyncResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		if _, err := os.Stat(filepath.Join(r.cfg.LocalPath, ".git")); err != nil {
			return r.clone(ctx)
		}
		repo, err := gogit.PlainOpen(r.cfg.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open existing checkout: %w", err)
		}
		r.repo = repo
	}
	return r.pull(ctx)
}

func (r *Repository) clone(ctx context.Context) (*SyncResult, error) {
	if err := os.MkdirAll(r.cfg.LocalPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkout directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	repo, err := gogit.PlainCloneContext(ctx, r.cfg.LocalPath, false, &gogit.CloneOptions{
		URL:           r.cfg.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(r.cfg.Branch),
		SingleBranch:  true,
		Auth:          r.auth,
	})
	if err != nil {
		// A failed clone leaves a partial .git behind.
		_ = os.RemoveAll(filepath.Join(r.cfg.LocalPath, ".git"))
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}
	r.repo = repo

	head, err := r.headSHA()
	if err != nil {
		return nil, err
	}
	r.logger.Info("cloned guideline repository",
		"repository", r.cfg.Repository, "branch", r.cfg.Branch, "commit", shortSHA(head))
	return &SyncResult{Cloned: true, ToSHA: head}, nil
}

func (r *Repository) pull(ctx context.Context) (*SyncResult, error) {
	from, err := r.headSHA()
	if err != nil {
		return nil, err
	}
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	err = worktree.PullContext(ctx, &gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(r.cfg.Branch),
		SingleBranch:  true,
		Auth:          r.auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil, fmt.Errorf("failed to pull: %w", err)
	}

	to, err := r.headSHA()
	if err != nil {
		return nil, err
	}
	res := &SyncResult{FromSHA: from, ToSHA: to}
	if from != to {
		if res.ChangedPacks, err = r.changedPacks(from, to); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Head returns the checked-out commit.
func (r *Repository) Head() (*CommitInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return nil, errors.New("repository not synced")
	}
	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}
	return &CommitInfo{
		SHA:       commit.Hash.String(),
		Author:    commit.Author.Name,
		Email:     commit.Author.Email,
		Timestamp: commit.Author.When,
		Message:   strings.TrimSpace(commit.Message),
	}, nil
}

func (r *Repository) headSHA() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// changedPacks diffs two commits and keeps pack files under the configured
// path.
func (r *Repository) changedPacks(from, to string) ([]string, error) {
	fromCommit, err := r.repo.CommitObject(plumbing.NewHash(from))
	if err != nil {
		return nil, fmt.Errorf("failed to get from commit: %w", err)
	}
	toCommit, err := r.repo.CommitObject(plumbing.NewHash(to))
	if err != nil {
		return nil, fmt.Errorf("failed to get to commit: %w", err)
	}
	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get from tree: %w", err)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get to tree: %w", err)
	}
	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	prefix := path.Clean(filepath.ToSlash(r.cfg.Path))
	var packs []string
	for _, change := range changes {
		name := change.To.Name
		if name == "" {
			name = change.From.Name
		}
		if prefix != "." && !strings.HasPrefix(name, prefix+"/") {
			continue
		}
		if slices.Contains(source.Extensions, strings.ToLower(path.Ext(name))) {
			packs = append(packs, name)
		}
	}
	slices.Sort(packs)
	return packs, nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
