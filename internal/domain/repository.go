package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidRepository is returned when a repository reference cannot be parsed.
var ErrInvalidRepository = errors.New("invalid repository")

// ErrInvalidDateRange is returned when a date range is malformed or inverted.
var ErrInvalidDateRange = errors.New("invalid date range")

var repoNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Repository identifies a GitHub repository.
type Repository struct {
	Owner string
	Name  string
}

// FullName returns "owner/name".
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// ParseRepository accepts "owner/name", an https GitHub URL or an ssh clone URL.
func ParseRepository(ref string) (Repository, error) {
	s := strings.TrimSpace(ref)
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")
	for _, prefix := range []string{"https://github.com/", "http://github.com/", "github.com/", "git@github.com:"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			break
		}
	}

	parts := strings.Split(s, "/")
	if len(parts) != 2 || !repoNamePattern.MatchString(parts[0]) || !repoNamePattern.MatchString(parts[1]) {
		return Repository{}, fmt.Errorf("%w: %q must look like owner/name or a github.com URL", ErrInvalidRepository, ref)
	}
	return Repository{Owner: parts[0], Name: parts[1]}, nil
}

// DateLayout is the layout of dates accepted on the command line and sent to GitHub search.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar days. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange parses optional YYYY-MM-DD bounds. To is extended to the end of its day.
func NewDateRange(from, to string) (DateRange, error) {
	var dr DateRange
	if from != "" {
		t, err := time.Parse(DateLayout, from)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: from date %q must be YYYY-MM-DD", ErrInvalidDateRange, from)
		}
		dr.From = t
	}
	if to != "" {
		t, err := time.Parse(DateLayout, to)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: to date %q must be YYYY-MM-DD", ErrInvalidDateRange, to)
		}
		dr.To = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !dr.From.IsZero() && !dr.To.IsZero() && dr.From.After(dr.To) {
		return DateRange{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidDateRange, from, to)
	}
	return dr, nil
}

// Contains reports whether t falls within the range.
func (dr DateRange) Contains(t time.Time) bool {
	if !dr.From.IsZero() && t.Before(dr.From) {
		return false
	}
	if !dr.To.IsZero() && t.After(dr.To) {
		return false
	}
	return true
}

// SearchQualifier renders the range as a GitHub search qualifier for the given field,
// e.g. " merged:2024-01-01..2024-03-31". It is empty for an unbounded range.
// NOTE: The leading space is important for concatenation.
func (dr DateRange) SearchQualifier(field string) string {
	if dr.From.IsZero() && dr.To.IsZero() {
		return ""
	}
	fromQuery, toQuery := "*", "*"
	if !dr.From.IsZero() {
		fromQuery = dr.From.Format(DateLayout)
	}
	if !dr.To.IsZero() {
		toQuery = dr.To.Format(DateLayout)
	}
	return fmt.Sprintf(" %s:%s..%s", field, fromQuery, toQuery)
}
