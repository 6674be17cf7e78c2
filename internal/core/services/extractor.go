package services

import (
	"strings"

	"github.com/custodia-labs/cvescope/internal/core/domain"
)

// CVSS versions in registry priority order.
const (
	cvssVersion31 = "3.1"
	cvssVersion30 = "3.0"
	cvssVersion20 = "2.0"
)

const langEnglish = "en"

// Extract normalises a raw registry record. It never fails: missing
// fields become "N/A" or empty slices.
func Extract(raw domain.RawVulnerability) domain.VulnerabilityInfo {
	cve := raw.CVE

	return domain.VulnerabilityInfo{
		ID:               strings.ToUpper(orNA(cve.ID)),
		Published:        orNA(cve.Published),
		LastModified:     orNA(cve.LastModified),
		Status:           orNA(cve.VulnStatus),
		Description:      englishDescription(cve.Descriptions),
		CVSSScores:       cvssScores(cve.Metrics),
		CWEIDs:           cweIDs(cve.Weaknesses),
		AffectedProducts: affectedProducts(cve.Configurations),
		References:       references(cve.References),
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.NotAvailable
	}
	return s
}

func englishDescription(descs []domain.RawLangString) string {
	for _, d := range descs {
		if d.Lang == langEnglish {
			return orNA(d.Value)
		}
	}
	return domain.NotAvailable
}

func cvssScores(m domain.RawMetrics) []domain.CVSSScore {
	scores := make([]domain.CVSSScore, 0, len(m.CVSSMetricV31)+len(m.CVSSMetricV30)+len(m.CVSSMetricV2))

	for _, metric := range m.CVSSMetricV31 {
		scores = append(scores, v3Score(cvssVersion31, metric))
	}
	for _, metric := range m.CVSSMetricV30 {
		scores = append(scores, v3Score(cvssVersion30, metric))
	}
	for _, metric := range m.CVSSMetricV2 {
		data := metric.CVSSData
		var score float64
		if data.BaseScore != nil {
			score = *data.BaseScore
		}
		scores = append(scores, domain.CVSSScore{
			Version:      cvssVersion20,
			BaseScore:    data.BaseScore,
			BaseSeverity: domain.CVSS2Severity(score),
			VectorString: orNA(data.VectorString),
		})
	}

	return scores
}

func v3Score(version string, metric domain.RawCVSSMetric) domain.CVSSScore {
	data := metric.CVSSData
	return domain.CVSSScore{
		Version:      version,
		BaseScore:    data.BaseScore,
		BaseSeverity: orNA(data.BaseSeverity),
		VectorString: orNA(data.VectorString),
	}
}

func cweIDs(weaknesses []domain.RawWeakness) []string {
	ids := []string{}
	seen := make(map[string]struct{})
	for _, w := range weaknesses {
		for _, d := range w.Description {
			if d.Lang != langEnglish || !strings.HasPrefix(d.Value, "CWE-") {
				continue
			}
			if _, ok := seen[d.Value]; ok {
				continue
			}
			seen[d.Value] = struct{}{}
			ids = append(ids, d.Value)
		}
	}
	return ids
}

func affectedProducts(configs []domain.RawConfiguration) []string {
	products := []string{}
	for _, c := range configs {
		for _, node := range c.Nodes {
			for _, match := range node.CPEMatch {
				if match.Vulnerable && match.Criteria != "" {
					products = append(products, match.Criteria)
				}
			}
		}
	}
	return products
}

func references(refs []domain.RawReference) []string {
	urls := []string{}
	for _, r := range refs {
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}
	return urls
}
