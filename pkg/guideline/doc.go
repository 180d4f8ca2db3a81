// Package guideline defines the Guideline Pack: a versioned, author-editable
// document describing how a form's roles are interpreted for analysis.
//
// A pack references roles and logical keys rather than concrete question ids
// wherever it can, so it survives edits to the form. It is compiled against a
// concrete form revision by package compiler, and remapped after structural
// drift by package reconciler.
//
// # Document format
//
// Packs are JSON or YAML documents tagged with a version:
//
//	version: gp-1.0
//	formId: form-42
//	formFingerprint: 3f1c...
//	questionMap:
//	  - role: timeline
//	    importance: core
//	    optionScores:
//	      - optionText: 1 week
//	        score: 100
//	crosstabPlan:
//	  minCellCount: 5
//	  pinned:
//	    - rowRole: timeline
//	      colRole: followup_intent
//	leadScoring:
//	  enabled: true
//	  components:
//	    - role: timeline
//	      weight: 2
//	  tierThresholds: {p0: 80, p1: 60, p2: 40, p3: 20}
//
// Parse rejects any document whose version tag is missing or unknown; there is
// no best-effort parse. Role spellings are normalized during Parse.
//
// # Lifecycle
//
// Packs move draft → published → archived. At most one pack per campaign is
// published at a time; the storage layer enforces that (see store/guidelines).
package guideline
