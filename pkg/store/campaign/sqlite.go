package campaign

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"ustudiopd/eventlive/pkg/survey"
)

// SQLiteConfig configures the SQLite source.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string
	// BusyTimeout is how long a reader waits while an import holds the lock.
	BusyTimeout time.Duration
	// ReadOnly opens the file without creating the schema.
	ReadOnly bool
}

// SQLiteSource reads campaign exports from a SQLite file.
type SQLiteSource struct {
	db     *sql.DB
	config SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteSource opens the database. Unless ReadOnly is set, missing tables
// are created so the file can be seeded with Import.
func NewSQLiteSource(config SQLiteConfig, logger *slog.Logger) (*SQLiteSource, error) {
	if config.Path == "" {
		return nil, newStorageError("sqlite", "open", errors.New("path is required"))
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		config.Path, config.BusyTimeout.Milliseconds())
	if config.ReadOnly {
		dsn += "&mode=ro"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, newStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(1)

	if !config.ReadOnly {
		if _, err := db.Exec(Schema); err != nil {
			db.Close()
			return nil, newStorageError("sqlite", "create_schema", err)
		}
	}

	return &SQLiteSource{
		db:     db,
		config: config,
		logger: logger.With("component", "store.campaign.sqlite"),
	}, nil
}

// Load implements Source.
func (s *SQLiteSource) Load(ctx context.Context, campaignID string) (*survey.CampaignData, error) {
	data := &survey.CampaignData{CampaignID: campaignID}
	err := s.db.QueryRowContext(ctx,
		`SELECT form_id, form_revision, title FROM campaigns WHERE id = ?`, campaignID,
	).Scan(&data.FormID, &data.FormRevision, &data.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, newStorageError("sqlite", "load_campaign", err)
	}

	if data.Questions, err = s.loadQuestions(ctx, campaignID); err != nil {
		return nil, err
	}
	if data.Submissions, err = s.loadSubmissions(ctx, campaignID); err != nil {
		return nil, err
	}
	if data.Answers, err = s.loadAnswers(ctx, campaignID); err != nil {
		return nil, err
	}

	sortSnapshot(data)
	s.logger.Debug("campaign loaded",
		"campaign_id", campaignID,
		"questions", len(data.Questions),
		"submissions", len(data.Submissions),
		"answers", len(data.Answers),
	)
	return data, nil
}

func (s *SQLiteSource) loadQuestions(ctx context.Context, campaignID string) ([]survey.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_no, body, type, options, role_override
		FROM form_questions WHERE campaign_id = ? ORDER BY order_no, id`, campaignID)
	if err != nil {
		return nil, newStorageError("sqlite", "load_questions", err)
	}
	defer rows.Close()

	var raws []survey.RawQuestion
	for rows.Next() {
		var raw survey.RawQuestion
		var options sql.NullString
		if err := rows.Scan(&raw.ID, &raw.OrderNo, &raw.Body, &raw.Type, &options, &raw.RoleOverride); err != nil {
			return nil, newStorageError("sqlite", "load_questions", err)
		}
		if options.Valid {
			raw.Options = options.String
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("sqlite", "load_questions", err)
	}

	qs, err := survey.ParseQuestions(raws)
	if err != nil {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, err)
	}
	return qs, nil
}

func (s *SQLiteSource) loadSubmissions(ctx context.Context, campaignID string) ([]survey.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, submitted_at FROM form_submissions WHERE campaign_id = ?`, campaignID)
	if err != nil {
		return nil, newStorageError("sqlite", "load_submissions", err)
	}
	defer rows.Close()

	var out []survey.Submission
	for rows.Next() {
		var sub survey.Submission
		var nanos int64
		if err := rows.Scan(&sub.ID, &nanos); err != nil {
			return nil, newStorageError("sqlite", "load_submissions", err)
		}
		sub.SubmittedAt = time.Unix(0, nanos).UTC()
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("sqlite", "load_submissions", err)
	}
	return out, nil
}

func (s *SQLiteSource) loadAnswers(ctx context.Context, campaignID string) ([]survey.Answer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT submission_id, question_id, option_ids, text
		FROM form_answers WHERE campaign_id = ? ORDER BY seq`, campaignID)
	if err != nil {
		return nil, newStorageError("sqlite", "load_answers", err)
	}
	defer rows.Close()

	var out []survey.Answer
	for rows.Next() {
		var a survey.Answer
		var ids sql.NullString
		if err := rows.Scan(&a.SubmissionID, &a.QuestionID, &ids, &a.Text); err != nil {
			return nil, newStorageError("sqlite", "load_answers", err)
		}
		if ids.Valid && ids.String != "" {
			if err := json.Unmarshal([]byte(ids.String), &a.OptionIDs); err != nil {
				return nil, newStorageError("sqlite", "load_answers",
					fmt.Errorf("answer %s/%s: option_ids: %w", a.SubmissionID, a.QuestionID, err))
			}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("sqlite", "load_answers", err)
	}
	return out, nil
}

// Import replaces the stored copy of a campaign.
func (s *SQLiteSource) Import(ctx context.Context, data *survey.CampaignData) error {
	if s.config.ReadOnly {
		return newStorageError("sqlite", "import", errors.New("source is read-only"))
	}
	if data == nil || data.CampaignID == "" {
		return newStorageError("sqlite", "import", errors.New("campaign id is required"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return newStorageError("sqlite", "import", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, data.CampaignID); err != nil {
		return newStorageError("sqlite", "import", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO campaigns (id, form_id, form_revision, title) VALUES (?, ?, ?, ?)`,
		data.CampaignID, data.FormID, data.FormRevision, data.Title,
	); err != nil {
		return newStorageError("sqlite", "import", err)
	}

	for _, q := range data.Questions {
		var options any
		if len(q.Options) > 0 {
			b, err := json.Marshal(q.Options)
			if err != nil {
				return newStorageError("sqlite", "import", err)
			}
			options = string(b)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO form_questions (campaign_id, id, order_no, body, type, options, role_override)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			data.CampaignID, q.ID, q.OrderNo, q.Body, string(q.Type), options, q.RoleOverride,
		); err != nil {
			return newStorageError("sqlite", "import_question", err)
		}
	}

	for _, sub := range data.Submissions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO form_submissions (campaign_id, id, submitted_at) VALUES (?, ?, ?)`,
			data.CampaignID, sub.ID, sub.SubmittedAt.UnixNano(),
		); err != nil {
			return newStorageError("sqlite", "import_submission", err)
		}
	}

	for i, a := range data.Answers {
		var ids any
		if len(a.OptionIDs) > 0 {
			b, err := json.Marshal(a.OptionIDs)
			if err != nil {
				return newStorageError("sqlite", "import", err)
			}
			ids = string(b)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO form_answers (campaign_id, seq, submission_id, question_id, option_ids, text)
			VALUES (?, ?, ?, ?, ?, ?)`,
			data.CampaignID, i, a.SubmissionID, a.QuestionID, ids, a.Text,
		); err != nil {
			return newStorageError("sqlite", "import_answer", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return newStorageError("sqlite", "import", err)
	}
	s.logger.Info("campaign imported",
		"campaign_id", data.CampaignID,
		"questions", len(data.Questions),
		"submissions", len(data.Submissions),
	)
	return nil
}

// Close implements Source.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
