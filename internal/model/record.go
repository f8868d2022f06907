// Package model defines the core record data types and enum normalization.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Record represents a stored memory entry.
type Record struct {
	ID               int64     `json:"id"`
	Content          string    `json:"content"`
	Tags             string    `json:"tags,omitempty"`
	Context          string    `json:"context,omitempty"`
	MemoryType       string    `json:"memory_type"`
	Certainty        string    `json:"certainty"`
	Status           string    `json:"status"`
	SupersededBy     *int64    `json:"superseded_by,omitempty"`
	SourceAgent      string    `json:"source_agent,omitempty"`
	LastUpdatedBy    string    `json:"last_updated_by,omitempty"`
	UpdateCount      int       `json:"update_count"`
	Refs             []string  `json:"refs"`
	RefsMalformed    bool      `json:"refs_malformed,omitempty"`
	ExpiresAfterDays *int      `json:"expires_after_days,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TagList splits the comma-joined tags column into trimmed labels.
func (r *Record) TagList() []string {
	return SplitTags(r.Tags)
}

// SplitTags splits a comma-joined tag string, dropping empty entries.
func SplitTags(tags string) []string {
	if strings.TrimSpace(tags) == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(tags, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Memory types.
const (
	TypeDecision   = "decision"
	TypeConvention = "convention"
	TypeGotcha     = "gotcha"
	TypePreference = "preference"
	TypeConstraint = "constraint"
	TypeReference  = "reference"
	TypeStatus     = "status"
)

// Certainty tiers (canonical).
const (
	CertaintyVerified    = "verified"
	CertaintyInferred    = "inferred"
	CertaintySpeculative = "speculative"
)

// Record statuses.
const (
	StatusActive       = "active"
	StatusDeprecated   = "deprecated"
	StatusSupersededBy = "superseded_by"
)

// ValidTypes are the allowed memory types.
var ValidTypes = map[string]bool{
	TypeDecision:   true,
	TypeConvention: true,
	TypeGotcha:     true,
	TypePreference: true,
	TypeConstraint: true,
	TypeReference:  true,
	TypeStatus:     true,
}

// ValidStatuses are the allowed record statuses.
var ValidStatuses = map[string]bool{
	StatusActive:       true,
	StatusDeprecated:   true,
	StatusSupersededBy: true,
}

// certaintyAliases maps legacy certainty values onto the canonical tiers.
// Old databases (and old callers) used hard/soft/uncertain.
var certaintyAliases = map[string]string{
	"hard":      CertaintyVerified,
	"soft":      CertaintyInferred,
	"uncertain": CertaintySpeculative,
}

// NormalizeCertainty resolves legacy aliases and validates the result.
// Applied at every read and write boundary so the alias never escapes.
func NormalizeCertainty(v string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(v))
	if alias, ok := certaintyAliases[c]; ok {
		c = alias
	}
	switch c {
	case CertaintyVerified, CertaintyInferred, CertaintySpeculative:
		return c, nil
	}
	return "", fmt.Errorf("invalid certainty %q (expected verified, inferred, speculative)", v)
}

// NormalizeType validates a memory type.
func NormalizeType(v string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(v))
	if !ValidTypes[t] {
		return "", fmt.Errorf("invalid memory type %q (expected %s)", v, strings.Join(sortedKeys(ValidTypes), ", "))
	}
	return t, nil
}

// NormalizeStatus validates a record status.
func NormalizeStatus(v string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(v))
	if !ValidStatuses[s] {
		return "", fmt.Errorf("invalid status %q (expected active, deprecated, superseded_by)", v)
	}
	return s, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
