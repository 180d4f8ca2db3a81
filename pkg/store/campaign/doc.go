// Package campaign reads campaign forms and answer data.
//
// A Source returns a read-only survey.CampaignData snapshot for a campaign.
// Three backends exist: an in-memory source for tests and the CLI's JSON
// input, a SQLite source (modernc.org/sqlite, no cgo) for local exports, and
// a MongoDB source for the hosted event platform. All of them hand stored
// option payloads to survey.ParseQuestion, so legacy shapes (JSON strings,
// newline lists, bare string arrays) are normalized in one place.
package campaign
