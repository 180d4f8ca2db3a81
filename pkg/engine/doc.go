// Package engine runs one analysis request end to end.
//
// Analyze is synchronous: it loads the campaign from the configured
// source, infers question roles, picks the guideline pack (the one passed
// in, else the campaign's published pack), reconciles it when the form
// fingerprint has drifted, compiles it (through the compiled-guideline
// cache when one is configured), builds the analysis pack, optionally asks
// the recommendation generator for a decision pack, merges the two and
// hands the result to a sink.
//
// Every stage is timed into the metrics collector and traced as a child
// span of the run. Log records carry the run id and campaign id.
//
// # Failure modes
//
//   - *CompileError: a core slot could not be resolved. No analysis runs.
//   - *ReconcileError: the pack drifted too far from the live form. With
//     FallbackToDefaults the run continues on default analysis settings.
//   - *StageError wrapping *decision.GenerationError or
//     *decision.ValidationFailure: the generator could not be reached or
//     never produced a valid decision pack.
//
// Merge inconsistencies are never failures; they are repaired and listed
// on the merged report.
package engine
