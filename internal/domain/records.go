// Package domain contains the core data structures and domain logic for the application.
// Everything in this package is pure: functions take immutable inputs and return new values.
package domain

import (
	"sort"
	"time"
)

// RawPullRequest is a pull request as delivered by a fetcher, before validation.
// Optional fields are pointers so a missing value can be told apart from zero.
type RawPullRequest struct {
	Number       int     `json:"number"`
	CreatedAt    *string `json:"createdAt,omitempty"`
	MergedAt     *string `json:"mergedAt,omitempty"`
	Additions    *int    `json:"additions,omitempty"`
	Deletions    *int    `json:"deletions,omitempty"`
	ChangedFiles *int    `json:"changedFiles,omitempty"`
}

// RawDeployment is a deployment, release or tag event as delivered by a fetcher.
type RawDeployment struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

// ChangeRecord is a merged pull request with complete change counts.
type ChangeRecord struct {
	Number       int
	MergedAt     time.Time
	Additions    int
	Deletions    int
	ChangedFiles int
}

// TotalChanges returns additions plus deletions.
func (r ChangeRecord) TotalChanges() int {
	return r.Additions + r.Deletions
}

// ThroughputRecord is a merged pull request with its change volume and lead time.
type ThroughputRecord struct {
	Number    int
	MergedAt  time.Time
	Additions int
	Deletions int
	LeadTime  time.Duration
}

// DeploymentRecord is a single deployment event.
type DeploymentRecord struct {
	ID        string
	Timestamp time.Time
}

// NormalizeChangeRecords drops records that are unmerged, lack a count, carry negative
// counts or an unparsable merge timestamp. The result is sorted by merge time.
func NormalizeChangeRecords(raw []RawPullRequest) []ChangeRecord {
	records := make([]ChangeRecord, 0, len(raw))
	for _, pr := range raw {
		if pr.MergedAt == nil || pr.Additions == nil || pr.Deletions == nil || pr.ChangedFiles == nil {
			continue
		}
		if *pr.Additions < 0 || *pr.Deletions < 0 || *pr.ChangedFiles < 0 {
			continue
		}
		mergedAt, ok := parseTimestamp(*pr.MergedAt)
		if !ok {
			continue
		}
		records = append(records, ChangeRecord{
			Number:       pr.Number,
			MergedAt:     mergedAt,
			Additions:    *pr.Additions,
			Deletions:    *pr.Deletions,
			ChangedFiles: *pr.ChangedFiles,
		})
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].MergedAt.Before(records[j].MergedAt)
	})
	return records
}

// NormalizeThroughputRecords keeps merged pull requests that have both timestamps and
// change counts. A merge recorded before creation yields a zero lead time.
func NormalizeThroughputRecords(raw []RawPullRequest) []ThroughputRecord {
	records := make([]ThroughputRecord, 0, len(raw))
	for _, pr := range raw {
		if pr.CreatedAt == nil || pr.MergedAt == nil || pr.Additions == nil || pr.Deletions == nil {
			continue
		}
		if *pr.Additions < 0 || *pr.Deletions < 0 {
			continue
		}
		createdAt, ok := parseTimestamp(*pr.CreatedAt)
		if !ok {
			continue
		}
		mergedAt, ok := parseTimestamp(*pr.MergedAt)
		if !ok {
			continue
		}
		leadTime := mergedAt.Sub(createdAt)
		if leadTime < 0 {
			leadTime = 0
		}
		records = append(records, ThroughputRecord{
			Number:    pr.Number,
			MergedAt:  mergedAt,
			Additions: *pr.Additions,
			Deletions: *pr.Deletions,
			LeadTime:  leadTime,
		})
	}
	return records
}

// NormalizeDeploymentRecords drops events whose timestamp cannot be parsed and
// sorts the rest chronologically.
func NormalizeDeploymentRecords(raw []RawDeployment) []DeploymentRecord {
	records := make([]DeploymentRecord, 0, len(raw))
	for _, d := range raw {
		ts, ok := parseTimestamp(d.Timestamp)
		if !ok {
			continue
		}
		records = append(records, DeploymentRecord{ID: d.ID, Timestamp: ts})
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
