package guidelines

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ustudiopd/eventlive/pkg/guideline"
)

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string
	// MaxOpenConns defaults to 4.
	MaxOpenConns int
	// WALMode enables write-ahead logging.
	WALMode bool
	// BusyTimeout is how long a writer waits for the lock.
	BusyTimeout time.Duration
	// Now stamps lifecycle transitions. Defaults to time.Now.
	Now func() time.Time
}

// DefaultSQLiteConfig returns the default configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/guidelines.db",
		MaxOpenConns: 4,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewSQLiteStore opens (and if needed creates) the database.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = 4
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	// Immediate transactions take the write lock at BEGIN, so two publishes
	// for the same campaign serialize instead of failing at commit.
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=%d&_foreign_keys=on",
		config.Path, config.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, newStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)

	s := &SQLiteStore{
		db:     db,
		config: config,
		now:    now,
		logger: slog.Default().With("component", "store.guidelines.sqlite"),
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Info("guideline store initialized", "path", config.Path, "wal_mode", config.WALMode)
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return newStorageError("sqlite", "enable_wal", err)
		}
	}
	if _, err := s.db.Exec(Schema); err != nil {
		return newStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return newStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return newStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return newStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

func nullableNanos(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

const upsertPack = `
INSERT INTO guideline_packs (
    id, campaign_id, form_id, form_fingerprint, status,
    created_at, updated_at, published_at, archived_at, body
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    campaign_id = excluded.campaign_id,
    form_id = excluded.form_id,
    form_fingerprint = excluded.form_fingerprint,
    status = excluded.status,
    updated_at = excluded.updated_at,
    published_at = excluded.published_at,
    archived_at = excluded.archived_at,
    body = excluded.body`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func writePack(ctx context.Context, db execer, p *guideline.Pack) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pack: %w", err)
	}
	_, err = db.ExecContext(ctx, upsertPack,
		p.ID, p.CampaignID, p.FormID, p.FormFingerprint, string(p.Status),
		p.CreatedAt.UnixNano(), p.UpdatedAt.UnixNano(),
		nullableNanos(p.PublishedAt), nullableNanos(p.ArchivedAt),
		string(body),
	)
	return err
}

// Create implements Store.
func (s *SQLiteStore) Create(ctx context.Context, p *guideline.Pack) error {
	if err := prepareCreate(p, s.now().UTC()); err != nil {
		return err
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM guideline_packs WHERE id = ?`, p.ID).Scan(&exists)
	if err == nil {
		return newStorageError("sqlite", "create", errDuplicate(p.ID))
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return newStorageError("sqlite", "create", err)
	}
	if err := writePack(ctx, s.db, p); err != nil {
		return newStorageError("sqlite", "create", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readPack(ctx context.Context, db queryer, where string, args ...any) (*guideline.Pack, error) {
	var body string
	err := db.QueryRowContext(ctx, `SELECT body FROM guideline_packs WHERE `+where, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p guideline.Pack
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("decode pack: %w", err)
	}
	return &p, nil
}

func wrap(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var le *guideline.LifecycleError
	var ee *EditError
	if errors.As(err, &le) || errors.As(err, &ee) {
		return err
	}
	return newStorageError("sqlite", op, err)
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*guideline.Pack, error) {
	p, err := readPack(ctx, s.db, `id = ?`, id)
	return p, wrap("get", err)
}

// Update implements Store.
func (s *SQLiteStore) Update(ctx context.Context, p *guideline.Pack) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := readPack(ctx, tx, `id = ?`, p.ID)
		if err != nil {
			return err
		}
		if cur.Status != guideline.StatusDraft {
			return &EditError{PackID: p.ID, Status: string(cur.Status)}
		}
		next := p.Clone()
		next.Status = guideline.StatusDraft
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = s.now().UTC()
		if err := writePack(ctx, tx, next); err != nil {
			return err
		}
		p.UpdatedAt = next.UpdatedAt
		return nil
	})
	return wrap("update", err)
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]*guideline.Pack, error) {
	var (
		conds []string
		args  []any
	)
	if f.CampaignID != "" {
		conds = append(conds, "campaign_id = ?")
		args = append(args, f.CampaignID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if !f.ArchivedBefore.IsZero() {
		conds = append(conds, "status = 'archived' AND archived_at < ?")
		args = append(args, f.ArchivedBefore.UnixNano())
	}
	query := `SELECT body FROM guideline_packs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	var out []*guideline.Pack
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, newStorageError("sqlite", "list", err)
		}
		var p guideline.Pack
		if err := json.Unmarshal([]byte(body), &p); err != nil {
			return nil, newStorageError("sqlite", "list", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("sqlite", "list", err)
	}
	return out, nil
}

// Published implements Store.
func (s *SQLiteStore) Published(ctx context.Context, campaignID string) (*guideline.Pack, error) {
	p, err := readPack(ctx, s.db, `campaign_id = ? AND status = 'published'`, campaignID)
	return p, wrap("published", err)
}

// Publish implements Store.
func (s *SQLiteStore) Publish(ctx context.Context, id string) (*guideline.Pack, error) {
	var out *guideline.Pack
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		p, err := readPack(ctx, tx, `id = ?`, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := p.Transition(guideline.StatusPublished, now); err != nil {
			return err
		}

		prev, err := readPack(ctx, tx, `campaign_id = ? AND status = 'published'`, p.CampaignID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return err
		default:
			if err := prev.Transition(guideline.StatusArchived, now); err != nil {
				return err
			}
			if err := writePack(ctx, tx, prev); err != nil {
				return err
			}
			s.logger.Info("archived previous guideline pack", "campaign_id", p.CampaignID, "pack_id", prev.ID)
		}

		if err := writePack(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, wrap("publish", err)
	}
	s.logger.Info("guideline pack published", "campaign_id", out.CampaignID, "pack_id", out.ID)
	return out, nil
}

// Archive implements Store.
func (s *SQLiteStore) Archive(ctx context.Context, id string) (*guideline.Pack, error) {
	var out *guideline.Pack
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		p, err := readPack(ctx, tx, `id = ?`, id)
		if err != nil {
			return err
		}
		if err := p.Transition(guideline.StatusArchived, s.now().UTC()); err != nil {
			return err
		}
		out = p
		return writePack(ctx, tx, p)
	})
	if err != nil {
		return nil, wrap("archive", err)
	}
	return out, nil
}

// DeleteArchived implements Store.
func (s *SQLiteStore) DeleteArchived(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM guideline_packs WHERE status = 'archived' AND archived_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, newStorageError("sqlite", "delete_archived", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeleteOldestArchived implements Store.
func (s *SQLiteStore) DeleteOldestArchived(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM guideline_packs
		WHERE status = 'archived' AND id NOT IN (
			SELECT id FROM guideline_packs
			WHERE status = 'archived'
			ORDER BY archived_at DESC
			LIMIT ?
		)`, keep)
	if err != nil {
		return 0, newStorageError("sqlite", "delete_oldest_archived", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return newStorageError("sqlite", "close", err)
	}
	return nil
}
