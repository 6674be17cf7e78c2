package domain

// RawVulnerability is one entry of the registry's "vulnerabilities" array.
// It mirrors the NVD CVE API 2.0 wire shape; every field is optional and
// the extractor degrades missing data to sentinel values.
type RawVulnerability struct {
	CVE RawCVE `json:"cve"`
}

// RawCVE is the "cve" object inside a registry record.
type RawCVE struct {
	ID             string             `json:"id"`
	Published      string             `json:"published"`
	LastModified   string             `json:"lastModified"`
	VulnStatus     string             `json:"vulnStatus"`
	Descriptions   []RawLangString    `json:"descriptions"`
	Metrics        RawMetrics         `json:"metrics"`
	Weaknesses     []RawWeakness      `json:"weaknesses"`
	Configurations []RawConfiguration `json:"configurations"`
	References     []RawReference     `json:"references"`
}

// RawLangString is a language-tagged text value.
type RawLangString struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

// RawMetrics groups CVSS metrics by scheme version.
type RawMetrics struct {
	CVSSMetricV31 []RawCVSSMetric `json:"cvssMetricV31"`
	CVSSMetricV30 []RawCVSSMetric `json:"cvssMetricV30"`
	CVSSMetricV2  []RawCVSSMetric `json:"cvssMetricV2"`
}

// RawCVSSMetric is a single scoring entry.
type RawCVSSMetric struct {
	Source   string      `json:"source"`
	Type     string      `json:"type"`
	CVSSData RawCVSSData `json:"cvssData"`

	// BaseSeverity is set on v2 entries at the metric level in some
	// registry responses. The extractor derives v2 severity from the score.
	BaseSeverity string `json:"baseSeverity"`
}

// RawCVSSData holds the scored values. BaseSeverity is absent for CVSS v2.
type RawCVSSData struct {
	Version      string   `json:"version"`
	VectorString string   `json:"vectorString"`
	BaseScore    *float64 `json:"baseScore"`
	BaseSeverity string   `json:"baseSeverity"`
}

// RawWeakness lists weakness classifications from one source.
type RawWeakness struct {
	Source      string          `json:"source"`
	Type        string          `json:"type"`
	Description []RawLangString `json:"description"`
}

// RawConfiguration is a set of applicability nodes.
type RawConfiguration struct {
	Nodes []RawConfigNode `json:"nodes"`
}

// RawConfigNode holds platform matches combined by Operator.
type RawConfigNode struct {
	Operator string        `json:"operator"`
	Negate   bool          `json:"negate"`
	CPEMatch []RawCPEMatch `json:"cpeMatch"`
}

// RawCPEMatch is a single platform identifier match.
type RawCPEMatch struct {
	Vulnerable bool   `json:"vulnerable"`
	Criteria   string `json:"criteria"`
}

// RawReference is an external link attached to a record.
type RawReference struct {
	URL    string   `json:"url"`
	Source string   `json:"source"`
	Tags   []string `json:"tags"`
}
