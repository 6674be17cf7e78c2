// Package domain defines the core business entities for cvescope.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawVulnerability: A registry record as returned by the NVD API
//   - VulnerabilityInfo: The normalised view of one CVE
//   - Session: A conversation transcript with the CVEs queried in it
//   - ReportRecord: A persisted analysis report
//   - GenerationRequest: Input to the text-generation collaborator
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
