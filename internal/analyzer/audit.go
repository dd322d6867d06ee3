package analyzer

// Combined-audit risk tiers, most severe first.
const (
	TierHighRisk   = "HIGH RISK"
	TierMediumRisk = "MEDIUM RISK"
	TierLowRisk    = "LOW RISK"
)

// AuditReport merges a PKGBUILD safety verdict and a metadata trust verdict
// into one package-level assessment. Either input may be absent (nil) when
// the caller could only obtain one of the two.
type AuditReport struct {
	Package  string              `json:"package,omitempty"`
	Safety   *SafetyReport       `json:"pkgbuild_safety,omitempty"`
	Metadata *MetadataRiskReport `json:"metadata_risk,omitempty"`
	RiskTier string              `json:"risk_tier"`
	Summary  string              `json:"summary"`
}

// CombineAudit selects the most severe tier supported by either report:
// a trust score below 50 or a risk score above 70 is high risk on its own;
// a trust score below 70 or a risk score above 30 warrants caution.
func CombineAudit(pkg string, safety *SafetyReport, metadata *MetadataRiskReport) AuditReport {
	tier := TierLowRisk

	if metadata != nil && metadata.TrustScore < 70 {
		tier = TierMediumRisk
	}
	if safety != nil && (safety.RiskScore > riskScoreLow || !safety.Safe) {
		tier = TierMediumRisk
	}
	if metadata != nil && metadata.TrustScore < 50 {
		tier = TierHighRisk
	}
	if safety != nil && safety.RiskScore > riskScoreHigh {
		tier = TierHighRisk
	}

	return AuditReport{
		Package:  pkg,
		Safety:   safety,
		Metadata: metadata,
		RiskTier: tier,
		Summary:  auditSummary(tier),
	}
}

func auditSummary(tier string) string {
	switch tier {
	case TierHighRisk:
		return "⚠️ HIGH RISK — find an alternative package or review the source code manually before installing."
	case TierMediumRisk:
		return "⚠️ MEDIUM RISK — proceed with caution and review the findings."
	default:
		return "✅ LOW RISK — package appears safe to install."
	}
}
