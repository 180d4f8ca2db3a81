// Package analysis computes the deterministic statistical digest of a
// campaign: per-question distributions, pairwise crosstabs with lift, a
// weighted lead score with tiers, and data-quality notes.
//
// Every reportable number is entered into an Evidence Catalog with a
// sequential id (E1, E2, ...). Highlights and any downstream text cite those
// ids instead of restating numbers, which is what lets the merge stage verify
// an externally written recommendation against the digest.
//
// All functions are pure transformations of their inputs. BuildAnalysisPack
// takes its clock and id source from Options so repeated runs over the same
// data produce identical packs.
package analysis
