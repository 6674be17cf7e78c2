package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// NotAvailable is the sentinel for fields the registry did not supply.
const NotAvailable = "N/A"

// Severity labels produced by the CVSS v2 mapping.
const (
	SeverityLow    = "LOW"
	SeverityMedium = "MEDIUM"
	SeverityHigh   = "HIGH"
)

var cveIDPattern = regexp.MustCompile(`(?i)^CVE-\d{4}-\d{4,}$`)

// NormalizeCVEID validates id and returns it uppercased.
// Surrounding whitespace is ignored.
func NormalizeCVEID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if !cveIDPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return strings.ToUpper(trimmed), nil
}

// IsValidCVEID reports whether id is a well-formed CVE identifier.
func IsValidCVEID(id string) bool {
	_, err := NormalizeCVEID(id)
	return err == nil
}

// CVSSScore is one normalised scoring entry.
type CVSSScore struct {
	// Version is the scheme version ("3.1", "3.0" or "2.0").
	Version string

	// BaseScore is nil when the registry omitted the score.
	BaseScore *float64

	// BaseSeverity is the qualitative label, or "N/A".
	BaseSeverity string

	// VectorString is the CVSS vector, or "N/A".
	VectorString string
}

// HasScore reports whether the entry carries a numeric score.
func (s CVSSScore) HasScore() bool {
	return s.BaseScore != nil
}

// VulnerabilityInfo is the canonical record for one CVE identifier.
type VulnerabilityInfo struct {
	ID           string
	Published    string
	LastModified string
	Status       string
	Description  string

	// CVSSScores is ordered 3.1, then 3.0, then 2.0.
	CVSSScores []CVSSScore

	// CWEIDs holds weakness identifiers in order of first appearance.
	CWEIDs []string

	// AffectedProducts holds CPE criteria of vulnerable matches.
	AffectedProducts []string

	// References holds URLs in registry order. Duplicates are kept.
	References []string
}

// Severity returns the severity of the first CVSS entry, or "N/A".
// It is always derived, never stored.
func (v VulnerabilityInfo) Severity() string {
	if len(v.CVSSScores) == 0 {
		return NotAvailable
	}
	return v.CVSSScores[0].BaseSeverity
}

// CVSS2Severity maps a CVSS v2 base score to a qualitative label.
// CVSS v2 has no native label in the registry.
func CVSS2Severity(score float64) string {
	switch {
	case score <= 0:
		return NotAvailable
	case score < 4.0:
		return SeverityLow
	case score < 7.0:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// DateOnly truncates an ISO-8601 timestamp to its YYYY-MM-DD prefix.
// Sentinels and short values are returned unchanged.
func DateOnly(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}
