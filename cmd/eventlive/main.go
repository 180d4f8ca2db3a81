// Eventlive compiles survey guideline packs and analyzes webinar and event
// registration campaigns.
//
// It reads a campaign's form and answers, resolves the campaign's published
// guideline pack against the live form, and produces:
//   - An analysis pack with per-question statistics, crosstabs and lead tiers
//   - An optional decision pack drafted by a language model
//   - A merged report with the drafted numbers repaired against the evidence
//
// Usage:
//
//	# Lint guideline packs
//	eventlive lint guidelines/
//
//	# Compile a pack against an exported campaign
//	eventlive compile --guideline pack.yaml --data campaign.json
//
//	# Analyze a campaign from the configured data source
//	eventlive analyze --campaign camp-1 --config config.yaml
//
//	# Serve metrics and health endpoints and run retention
//	eventlive serve --config config.yaml
package main

func main() {
	Execute()
}
