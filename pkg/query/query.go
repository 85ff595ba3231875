// Package query builds the search strings the feature page writes into its
// search box and parses them back into a filter over the catalog.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/chromedash/chromedash/pkg/types"
)

const (
	FieldMilestone = "milestone"
	FieldCategory  = "category"
	FieldComponent = "component"
	FieldOwners    = "browsers.chrome.owners"
	FieldStatus    = "browsers.chrome.status"
)

var milestonePattern = regexp.MustCompile(`^[0-9]+$`)

// IsMilestone reports whether a metadata version is a milestone number.
func IsMilestone(version string) bool {
	return milestonePattern.MatchString(version)
}

func Milestone(version string) string {
	return FieldMilestone + "=" + version
}

func Status(version string) string {
	return FieldStatus + `:"` + version + `"`
}

// ForVersion maps a metadata panel selection to a search string.
func ForVersion(version string) string {
	if IsMilestone(version) {
		return Milestone(version)
	}
	return Status(version)
}

func Category(val string) string {
	return FieldCategory + ": " + val
}

func Owner(val string) string {
	return FieldOwners + ": " + val
}

func Component(val string) string {
	return FieldComponent + ": " + val
}

// Query is a parsed search string. Field is empty for free text.
type Query struct {
	Raw   string
	Field string
	Value string
}

// Empty reports whether the query matches everything.
func (q Query) Empty() bool {
	return q.Field == "" && q.Value == ""
}

// Parse accepts `field=value`, `field: value`, `field:"value"` or free text.
func Parse(raw string) Query {
	q := Query{Raw: raw}
	s := strings.TrimSpace(raw)
	if s == "" {
		return q
	}

	if idx := strings.IndexAny(s, "=:"); idx > 0 {
		field := strings.ToLower(strings.TrimSpace(s[:idx]))
		if !strings.ContainsAny(field, " \t") {
			q.Field = field
			q.Value = unquote(strings.TrimSpace(s[idx+1:]))
			return q
		}
	}

	q.Value = s
	return q
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Match reports whether f satisfies q. Unknown fields match nothing.
func (q Query) Match(f *types.Feature) bool {
	if q.Empty() {
		return true
	}

	switch q.Field {
	case "":
		return containsFold(f.Name, q.Value) || containsFold(f.Summary, q.Value)
	case FieldMilestone:
		m, err := strconv.Atoi(q.Value)
		return err == nil && f.Milestone == m
	case FieldCategory:
		return strings.EqualFold(f.Category, q.Value)
	case FieldComponent:
		return strings.EqualFold(f.Component, q.Value)
	case FieldStatus:
		return strings.EqualFold(f.Status, q.Value)
	case FieldOwners:
		for _, o := range f.Owners {
			if strings.EqualFold(o, q.Value) {
				return true
			}
		}
		return false
	}
	return false
}

// Filter returns the features matching q, preserving order.
func (q Query) Filter(features []*types.Feature) []*types.Feature {
	out := make([]*types.Feature, 0, len(features))
	for _, f := range features {
		if q.Match(f) {
			out = append(out, f)
		}
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
