// Package compiler resolves a guideline pack against one concrete form
// revision.
//
// A pack references questions abstractly: by question id, by a logical key
// that survives form edits, or by role. Compile replaces every reference
// with a concrete question id of the current form and records how each was
// resolved. Resolution tries, in order:
//
//  1. Direct id match.
//  2. Logical-key match, when a key table is supplied with WithLogicalKeys.
//  3. Role match: the first question carrying the slot's role.
//
// Role matches always produce a warning. A core slot that does not resolve is
// an error and no compiled guideline is returned; supporting and optional
// slots are dropped with a warning. Crosstab pairs and lead-scoring
// components resolve the same way and are dropped with a warning when they
// cannot be placed.
//
// Compile is pure: it never reads answers and never mutates its inputs.
package compiler
