package szz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agusespa/szz/internal/types"
	"github.com/araddon/dateparse"
)

// IsRevert reports whether c is a revert by message convention.
func IsRevert(c types.Commit) bool {
	return strings.HasPrefix(c.Message, "Revert") || strings.Contains(c.Message, "This reverts commit")
}

// FilterReverts drops revert commits.
func FilterReverts(set *types.CandidateSet) *types.CandidateSet {
	return set.Filter(func(c types.Commit) bool {
		return !IsRevert(c)
	})
}

// FilterByIssueDate keeps the commits authored strictly before issued.
func FilterByIssueDate(set *types.CandidateSet, issued time.Time) *types.CandidateSet {
	return set.Filter(func(c types.Commit) bool {
		return c.AuthoredDate.Before(issued)
	})
}

// Issue date fields of a fix record, in order of preference.
var issueDateFields = []string{"earliest_issue_date", "best_scenario_issue_date"}

// ParseIssueDate reads the issue report instant of a record. It returns
// false when the record carries no issue date.
func ParseIssueDate(record types.FixRecord) (time.Time, bool, error) {
	for _, field := range issueDateFields {
		raw, ok := record.StringField(field)
		if !ok {
			continue
		}
		t, err := ParseTimestamp(raw)
		if err != nil {
			return time.Time{}, true, fmt.Errorf("invalid %s: %w", field, err)
		}
		return t, true, nil
	}
	return time.Time{}, false, nil
}

// ParseTimestamp accepts the free-form dates found in issue trackers:
// ISO-8601 with or without a zone, numeric offsets, zone names and
// written-out dates. Timestamps without a zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q: %w", s, err)
	}
	return t, nil
}
