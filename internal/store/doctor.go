package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mnemo-sh/mnemo/internal/dedup"
	"github.com/mnemo-sh/mnemo/internal/model"
)

// DoctorOptions tunes the hygiene sweep.
type DoctorOptions struct {
	// Threshold overrides the configured near-duplicate similarity.
	Threshold float64
	// Apply deletes exact-duplicate losers. Near-duplicate and
	// integrity findings are always report-only; their remediation
	// commands are for the operator to run.
	Apply bool
}

// DoctorReport is the outcome of one hygiene sweep. Every finding
// carries a ready-to-run remediation command.
type DoctorReport struct {
	Scanned      int             `json:"scanned"`
	Exact        []dedup.Finding `json:"exact_duplicates,omitempty"`
	Near         []dedup.Finding `json:"near_duplicates,omitempty"`
	Integrity    []dedup.Finding `json:"integrity,omitempty"`
	Expired      []dedup.Finding `json:"expired,omitempty"`
	Deleted      []int64         `json:"deleted,omitempty"`
	DeleteFailed []int64         `json:"delete_failed,omitempty"`
}

// Doctor runs the full hygiene sweep: exact duplicates, bounded
// near-duplicate detection, refs/supersession integrity, and advisory
// TTL expiry.
func (s *Store) Doctor(ctx context.Context, opts DoctorOptions) (*DoctorReport, error) {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = s.cfg.NearDupThreshold
	}

	active, err := s.ActiveRecords(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.AllRecords(ctx)
	if err != nil {
		return nil, err
	}

	report := &DoctorReport{
		Scanned: len(all),
		Exact:   dedup.FindExact(active),
		Near:    dedup.FindNear(active, threshold),
	}
	report.Integrity = append(report.Integrity, integrityFindings(all)...)
	report.Expired = expiredFindings(all, time.Now().UTC())

	if opts.Apply {
		for _, f := range report.Exact {
			if err := s.Delete(ctx, f.ID); err != nil {
				report.DeleteFailed = append(report.DeleteFailed, f.ID)
				continue
			}
			report.Deleted = append(report.Deleted, f.ID)
		}
	}
	return report, nil
}

// integrityFindings flags malformed refs and broken supersession
// chains.
func integrityFindings(records []model.Record) []dedup.Finding {
	byID := make(map[int64]bool, len(records))
	for _, r := range records {
		byID[r.ID] = true
	}

	var findings []dedup.Finding
	for _, r := range records {
		if r.RefsMalformed {
			findings = append(findings, dedup.Finding{
				Kind:        "malformed_refs",
				ID:          r.ID,
				Summary:     fmt.Sprintf("record %d has an unreadable refs field", r.ID),
				Remediation: fmt.Sprintf("mnemo update %d --refs \"\"", r.ID),
			})
		}
		if r.Status != model.StatusSupersededBy {
			continue
		}
		switch {
		case r.SupersededBy == nil:
			findings = append(findings, dedup.Finding{
				Kind:        "missing_supersession",
				ID:          r.ID,
				Summary:     fmt.Sprintf("record %d is marked superseded but names no successor", r.ID),
				Remediation: fmt.Sprintf("mnemo deprecate %d", r.ID),
			})
		case *r.SupersededBy == r.ID:
			findings = append(findings, dedup.Finding{
				Kind:        "self_supersession",
				ID:          r.ID,
				Summary:     fmt.Sprintf("record %d claims to supersede itself", r.ID),
				Remediation: fmt.Sprintf("mnemo deprecate %d", r.ID),
			})
		case !byID[*r.SupersededBy]:
			findings = append(findings, dedup.Finding{
				Kind:        "dangling_supersession",
				ID:          r.ID,
				OtherID:     *r.SupersededBy,
				Summary:     fmt.Sprintf("record %d is superseded by %d, which no longer exists", r.ID, *r.SupersededBy),
				Remediation: fmt.Sprintf("mnemo deprecate %d", r.ID),
			})
		}
	}
	return findings
}

// expiredFindings lists records past their advisory TTL. Expiry is
// never enforced here; the remediation points at the sweep command.
func expiredFindings(records []model.Record, now time.Time) []dedup.Finding {
	var findings []dedup.Finding
	for _, r := range records {
		if !isExpired(r, now) {
			continue
		}
		findings = append(findings, dedup.Finding{
			Kind:        "expired",
			ID:          r.ID,
			Summary:     fmt.Sprintf("record %d passed its %d-day TTL", r.ID, *r.ExpiresAfterDays),
			Remediation: "mnemo sweep --delete",
		})
	}
	return findings
}

func isExpired(r model.Record, now time.Time) bool {
	if r.ExpiresAfterDays == nil || r.CreatedAt.IsZero() {
		return false
	}
	deadline := r.CreatedAt.Add(time.Duration(*r.ExpiresAfterDays) * 24 * time.Hour)
	return now.After(deadline)
}

// SweepReport lists advisory-TTL-expired records; Deleted is populated
// only when the sweep ran with deletion enabled.
type SweepReport struct {
	Expired []model.Record `json:"expired"`
	Deleted []int64        `json:"deleted,omitempty"`
}

// Sweep is the explicit, idempotent TTL pass: dry-run by default,
// deleting only when asked. Nothing in the engine expires records
// autonomously.
func (s *Store) Sweep(ctx context.Context, del bool) (*SweepReport, error) {
	all, err := s.AllRecords(ctx)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{}
	now := time.Now().UTC()
	for _, r := range all {
		if !isExpired(r, now) {
			continue
		}
		report.Expired = append(report.Expired, r)
		if del {
			if err := s.Delete(ctx, r.ID); err == nil {
				report.Deleted = append(report.Deleted, r.ID)
			}
		}
	}
	return report, nil
}
