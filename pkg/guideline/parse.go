package guideline

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ustudiopd/eventlive/pkg/roles"
)

// VersionError is returned for a pack whose version tag is missing or not
// supported. It is never recovered from.
type VersionError struct {
	Got string
}

// Error implements the error interface.
func (e *VersionError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("guideline pack has no version tag (want %q)", Version)
	}
	return fmt.Sprintf("unsupported guideline pack version %q (want %q)", e.Got, Version)
}

// ParseError is returned for a document that is not well-formed JSON or YAML.
type ParseError struct {
	Format string
	Cause  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed guideline pack (%s): %v", e.Format, e.Cause)
}

// Unwrap returns the underlying decoder error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

type versionHeader struct {
	Version string `json:"version" yaml:"version"`
}

// Parse decodes a JSON or YAML pack document. The version tag is checked
// before the body is decoded, and role spellings are normalized afterwards.
func Parse(data []byte) (*Pack, error) {
	trimmed := bytes.TrimSpace(data)
	isJSON := bytes.HasPrefix(trimmed, []byte("{"))

	var head versionHeader
	if err := decode(trimmed, isJSON, &head); err != nil {
		return nil, err
	}
	if head.Version != Version {
		return nil, &VersionError{Got: head.Version}
	}

	var pack Pack
	if err := decode(trimmed, isJSON, &pack); err != nil {
		return nil, err
	}
	NormalizeRoles(&pack)
	return &pack, nil
}

func decode(data []byte, isJSON bool, v any) error {
	if isJSON {
		if err := json.Unmarshal(data, v); err != nil {
			return &ParseError{Format: "json", Cause: err}
		}
		return nil
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return &ParseError{Format: "yaml", Cause: err}
	}
	return nil
}

// Load reads and parses a pack file.
func Load(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guideline pack %q: %w", path, err)
	}
	pack, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load guideline pack %q: %w", path, err)
	}
	return pack, nil
}

// Marshal encodes a pack as indented JSON, stamping the current version.
func Marshal(p *Pack) ([]byte, error) {
	out := *p
	out.Version = Version
	return json.MarshalIndent(&out, "", "  ")
}

// ContentHash returns the hex SHA-256 of the pack's encoded settings.
// Lifecycle fields are cleared first, so publishing or archiving a pack keeps
// its hash while any edit to the analysis settings changes it.
func ContentHash(p *Pack) (string, error) {
	out := *p
	out.Status = ""
	out.CreatedAt, out.UpdatedAt = time.Time{}, time.Time{}
	out.PublishedAt, out.ArchivedAt = nil, nil
	data, err := Marshal(&out)
	if err != nil {
		return "", fmt.Errorf("failed to encode guideline pack: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// NormalizeRoles rewrites every known role synonym in the pack to its
// canonical spelling. Unknown spellings are left for Validate to report.
func NormalizeRoles(p *Pack) {
	norm := func(r roles.Role) roles.Role {
		if r == "" {
			return r
		}
		if c, ok := roles.Normalize(string(r)); ok {
			return c
		}
		return r
	}

	for i := range p.QuestionMap {
		p.QuestionMap[i].Role = norm(p.QuestionMap[i].Role)
	}
	for i := range p.Objectives.DecisionQuestions {
		dq := &p.Objectives.DecisionQuestions[i]
		for j := range dq.Roles {
			dq.Roles[j] = norm(dq.Roles[j])
		}
	}
	for _, pairs := range [][]CrosstabPair{p.CrosstabPlan.Pinned, p.CrosstabPlan.Pairs} {
		for i := range pairs {
			pairs[i].RowRole = norm(pairs[i].RowRole)
			pairs[i].ColRole = norm(pairs[i].ColRole)
		}
	}
	for i := range p.LeadScoring.Components {
		p.LeadScoring.Components[i].Role = norm(p.LeadScoring.Components[i].Role)
	}
}
