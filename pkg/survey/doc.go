// Package survey defines the form schema and answer data the analysis engine
// operates on.
//
// Questions arrive from the hosted data store in loosely typed shapes. Every
// ingestion path goes through ParseQuestion, which calls NormalizeOptions
// exactly once; downstream code only ever sees the typed Question.
//
// # Blueprint and Fingerprint
//
// A Blueprint is the normalized, ordered question list of one form. Its
// Fingerprint is a SHA-256 over a canonical JSON rendering and serves as the
// structural version marker for guideline packs:
//
//	bp := survey.NewBlueprint(formID, questions)
//	fp := survey.Fingerprint(bp)
//
// Two blueprints built from the same questions in any input order produce the
// same fingerprint. Changing a body, an option id or text, the option set, a
// question type, or an order number changes it.
package survey
