package guidelines

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the guideline pack tables. The partial unique index allows
// one published pack per campaign.
const Schema = `
CREATE TABLE IF NOT EXISTS guideline_packs (
    id TEXT PRIMARY KEY,
    campaign_id TEXT NOT NULL,
    form_id TEXT NOT NULL,
    form_fingerprint TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('draft', 'published', 'archived')),
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    published_at INTEGER,
    archived_at INTEGER,
    body TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_guideline_packs_campaign ON guideline_packs(campaign_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_guideline_packs_archived ON guideline_packs(status, archived_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_guideline_packs_one_published
    ON guideline_packs(campaign_id) WHERE status = 'published';

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

// GetSchemaVersion reads the newest schema version.
const GetSchemaVersion = `SELECT version FROM schema_version ORDER BY version DESC LIMIT 1`
