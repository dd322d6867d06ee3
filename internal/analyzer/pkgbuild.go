package analyzer

// SafetyReport is the verdict for one PKGBUILD analysis. Constructed fresh
// per call; the caller owns it outright.
type SafetyReport struct {
	Safe           bool      `json:"safe"`
	RedFlags       []Finding `json:"red_flags"`
	Warnings       []Finding `json:"warnings"`
	RiskScore      int       `json:"risk_score"`
	Recommendation string    `json:"recommendation"`
}

// Risk-score band edges. Below riskScoreLow a package reads as clean;
// above riskScoreHigh it is clearly dangerous.
const (
	riskScoreLow  = 30
	riskScoreHigh = 70
	riskScoreMax  = 100
)

// AnalyzePKGBUILD inspects raw PKGBUILD text for dangerous shell idioms and
// returns a safety verdict. The input is arbitrary attacker-controlled text
// and may not be a valid script; the function never fails: empty or
// non-matching input yields an all-clear report with risk score 0.
//
// A package is safe only when the aggregate score stays at or below the
// high-risk edge AND no critical/high finding fired: a single red flag
// marks the package unsafe regardless of the total.
func AnalyzePKGBUILD(content string) SafetyReport {
	info := inspectScript(content)

	redFlags := []Finding{}
	warnings := []Finding{}
	score := 0

	for _, rule := range pkgbuildRules {
		evidence, ok := rule.match(info)
		if !ok {
			continue
		}
		finding := Finding{
			Issue:    rule.issue,
			Severity: rule.severity,
			Evidence: evidence,
		}
		score += rule.severity.Weight()
		if rule.severity.RedFlag() {
			redFlags = append(redFlags, finding)
		} else {
			warnings = append(warnings, finding)
		}
	}

	if score > riskScoreMax {
		score = riskScoreMax
	}
	safe := score <= riskScoreHigh && len(redFlags) == 0

	return SafetyReport{
		Safe:           safe,
		RedFlags:       redFlags,
		Warnings:       warnings,
		RiskScore:      score,
		Recommendation: safetyRecommendation(safe, score),
	}
}

func safetyRecommendation(safe bool, score int) string {
	switch {
	case !safe && score > riskScoreHigh:
		return "⚠️ DO NOT INSTALL — critical security issues detected. Review every red flag before going anywhere near this package."
	case !safe:
		return "⚠️ CAUTION — dangerous constructs found. Manually review the PKGBUILD and all sources before installing."
	case score >= riskScoreLow:
		return "MOSTLY SAFE — only minor warnings detected, but review them before installing."
	default:
		return "SAFE — no dangerous patterns detected. Standard review is still recommended for any AUR package."
	}
}
