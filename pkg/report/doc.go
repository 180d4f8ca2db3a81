// Package report renders analysis packs, merged reports and guideline packs
// for people: markdown documents, a styled terminal view, and a CSV export of
// scored leads.
//
// The markdown renderers are pure functions of their input. Timestamps come
// from the documents themselves, so the same pack always renders to the same
// bytes.
package report
