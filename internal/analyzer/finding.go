// Package analyzer contains the security scoring engines for AUR packages:
// a PKGBUILD safety analyzer that pattern-matches untrusted build scripts,
// and a metadata risk analyzer that scores community/maintenance signals.
//
// Both analyzers are pure functions over in-memory input. They perform no
// I/O, hold no state, and never fail: malformed or adversarial input
// degrades to a best-effort report, never an error. PKGBUILD content is
// attacker-controlled by design, so a crash on malicious input would itself
// be a vulnerability.
package analyzer

// Severity classifies how dangerous a single finding is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityWeights maps severity to its risk-score contribution.
// Weights must stay strictly ordered (critical > high > medium > low);
// the scoring monotonicity guarantee depends on it.
var severityWeights = map[Severity]int{
	SeverityCritical: 35,
	SeverityHigh:     25,
	SeverityMedium:   12,
	SeverityLow:      5,
}

// Weight returns the risk-score contribution of this severity.
// Unknown severities contribute nothing.
func (s Severity) Weight() int {
	return severityWeights[s]
}

// RedFlag reports whether a finding at this severity marks a package
// unsafe on its own, regardless of the aggregate score.
func (s Severity) RedFlag() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// Finding is one detected issue. Findings are immutable value records;
// their order in a report follows rule-table order, not text position.
type Finding struct {
	Issue    string   `json:"issue"`
	Severity Severity `json:"severity"`
	Evidence string   `json:"evidence,omitempty"`
}
