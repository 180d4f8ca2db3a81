// Package guidelines persists guideline packs and enforces their lifecycle.
//
// A campaign has at most one published pack. Publish archives the previous
// published pack and publishes the new one as a single step: the SQLite
// backend does both in one transaction behind a partial unique index on
// (campaign_id) WHERE status = 'published', and the memory backend holds its
// write lock across both updates. No reader can observe zero or two
// published packs for a campaign during a publish.
//
// Backends:
//   - MemoryStore: in-process, for tests and single-shot CLI runs
//   - SQLiteStore: file-backed, using github.com/mattn/go-sqlite3
package guidelines
