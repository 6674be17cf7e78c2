package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCVEID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "uppercase", input: "CVE-2021-44228", want: "CVE-2021-44228"},
		{name: "lowercase", input: "cve-2021-44228", want: "CVE-2021-44228"},
		{name: "mixed case", input: "Cve-2014-0160", want: "CVE-2014-0160"},
		{name: "long sequence", input: "CVE-2023-1234567", want: "CVE-2023-1234567"},
		{name: "surrounding spaces", input: "  CVE-2021-44228 ", want: "CVE-2021-44228"},
		{name: "empty", input: "", wantErr: true},
		{name: "short sequence", input: "CVE-2021-123", wantErr: true},
		{name: "short year", input: "CVE-21-44228", wantErr: true},
		{name: "missing prefix", input: "2021-44228", wantErr: true},
		{name: "trailing text", input: "CVE-2021-44228x", wantErr: true},
		{name: "wrong separator", input: "CVE_2021_44228", wantErr: true},
		{name: "other scheme", input: "GHSA-jfh8-c2jp-5v3q", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCVEID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidIdentifier))
				assert.False(t, IsValidCVEID(tt.input))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsValidCVEID(tt.input))
		})
	}
}

func TestCVSS2Severity(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, NotAvailable},
		{0.1, SeverityLow},
		{3.9, SeverityLow},
		{4.0, SeverityMedium},
		{6.9, SeverityMedium},
		{7.0, SeverityHigh},
		{10.0, SeverityHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CVSS2Severity(tt.score), "score %.1f", tt.score)
	}
}

func TestVulnerabilityInfo_Severity(t *testing.T) {
	score := 9.8

	t.Run("no scores", func(t *testing.T) {
		info := VulnerabilityInfo{}
		assert.Equal(t, NotAvailable, info.Severity())
	})

	t.Run("first entry wins", func(t *testing.T) {
		info := VulnerabilityInfo{CVSSScores: []CVSSScore{
			{Version: "3.1", BaseScore: &score, BaseSeverity: "CRITICAL"},
			{Version: "2.0", BaseScore: &score, BaseSeverity: SeverityHigh},
		}}
		assert.Equal(t, "CRITICAL", info.Severity())
	})

	t.Run("first entry without label", func(t *testing.T) {
		info := VulnerabilityInfo{CVSSScores: []CVSSScore{
			{Version: "3.1", BaseSeverity: NotAvailable},
			{Version: "2.0", BaseScore: &score, BaseSeverity: SeverityHigh},
		}}
		assert.Equal(t, NotAvailable, info.Severity())
	})
}

func TestCVSSScore_HasScore(t *testing.T) {
	score := 5.0
	assert.True(t, CVSSScore{BaseScore: &score}.HasScore())
	assert.False(t, CVSSScore{}.HasScore())
}

func TestDateOnly(t *testing.T) {
	assert.Equal(t, "2021-12-10", DateOnly("2021-12-10T10:15:09.143"))
	assert.Equal(t, "2021-12-10", DateOnly("2021-12-10"))
	assert.Equal(t, NotAvailable, DateOnly(NotAvailable))
	assert.Equal(t, "", DateOnly(""))
}
