package campaign

// Schema creates the campaign export tables. Question options are stored as
// the text payload the form builder produced and normalized on read.
const Schema = `
CREATE TABLE IF NOT EXISTS campaigns (
    id TEXT PRIMARY KEY,
    form_id TEXT NOT NULL,
    form_revision TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS form_questions (
    campaign_id TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    order_no INTEGER NOT NULL,
    body TEXT NOT NULL,
    type TEXT NOT NULL,
    options TEXT,
    role_override TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (campaign_id, id)
);

CREATE TABLE IF NOT EXISTS form_submissions (
    campaign_id TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    submitted_at INTEGER NOT NULL,
    PRIMARY KEY (campaign_id, id)
);

CREATE TABLE IF NOT EXISTS form_answers (
    campaign_id TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    submission_id TEXT NOT NULL,
    question_id TEXT NOT NULL,
    option_ids TEXT,
    text TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (campaign_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_form_answers_submission ON form_answers(campaign_id, submission_id);
`
