package analyzer

import (
	"fmt"
	"time"
)

// PackageMeta is the metadata slice of an AUR package that feeds trust
// scoring. Fields map 1:1 to the AUR RPC payload. Missing values degrade to
// the conservative branch of each rule rather than skipping it:
//
//   - Maintainer nil: orphaned; always produces a risk factor.
//   - OutOfDate nil: package is current (nil is the AUR "not flagged" value).
//   - FirstSubmitted 0: unknown age; earns no maturity credit.
//   - LastModified 0: no update history; counts as stale.
type PackageMeta struct {
	Name           string   `json:"name,omitempty"`
	Votes          int      `json:"votes"`
	Popularity     float64  `json:"popularity"`
	OutOfDate      *int64   `json:"out_of_date"`
	Maintainer     *string  `json:"maintainer"`
	FirstSubmitted int64    `json:"first_submitted"`
	LastModified   int64    `json:"last_modified"`
}

// MetadataRiskReport is the trust verdict over community and maintenance
// signals. Pure output, caller-owned.
type MetadataRiskReport struct {
	TrustScore      int       `json:"trust_score"`
	RiskFactors     []Finding `json:"risk_factors"`
	TrustIndicators []string  `json:"trust_indicators"`
	Recommendation  string    `json:"recommendation"`
}

// Trust heuristic thresholds. Tunable; only the orderings they induce are
// load-bearing (negative-signal packages must score materially below
// positive-signal ones).
const (
	trustBaseline = 50

	lowVoteThreshold  = 5
	lowPopularity     = 0.1
	highVoteThreshold = 50

	staleWindow    = 2 * 365 * 24 * time.Hour
	freshWindow    = 30 * 24 * time.Hour
	maturityWindow = 365 * 24 * time.Hour
	newPkgWindow   = 7 * 24 * time.Hour
)

// AnalyzeMetadata scores AUR package metadata for trustworthiness. It never
// fails; age-based rules read the wall clock exactly once so banding stays
// consistent within a single evaluation.
func AnalyzeMetadata(meta PackageMeta) MetadataRiskReport {
	return analyzeMetadataAt(meta, time.Now())
}

func analyzeMetadataAt(meta PackageMeta, now time.Time) MetadataRiskReport {
	risks := []Finding{}
	indicators := []string{}
	score := trustBaseline

	// --- Risk factors ---

	if meta.Maintainer == nil {
		risks = append(risks, Finding{
			Issue:    "orphaned package: no maintainer assigned",
			Severity: SeverityHigh,
		})
		score -= 20
	}

	if meta.OutOfDate != nil {
		risks = append(risks, Finding{
			Issue:    "package flagged out of date",
			Severity: SeverityMedium,
			Evidence: time.Unix(*meta.OutOfDate, 0).UTC().Format("2006-01-02"),
		})
		score -= 15
	}

	if meta.Votes < lowVoteThreshold && meta.Popularity < lowPopularity {
		risks = append(risks, Finding{
			Issue:    fmt.Sprintf("low community validation: %d votes", meta.Votes),
			Severity: SeverityMedium,
		})
		score -= 10
	}

	// LastModified 0 means no history at all, which is treated like the
	// oldest possible modification time.
	lastModified := time.Unix(meta.LastModified, 0)
	if now.Sub(lastModified) > staleWindow {
		risks = append(risks, Finding{
			Issue:    "not updated recently: possibly abandoned",
			Severity: SeverityMedium,
			Evidence: fmt.Sprintf("last modified %s", lastModified.UTC().Format("2006-01-02")),
		})
		score -= 10
	}

	if meta.FirstSubmitted > 0 && now.Sub(time.Unix(meta.FirstSubmitted, 0)) < newPkgWindow {
		risks = append(risks, Finding{
			Issue:    "very new package: unproven",
			Severity: SeverityLow,
		})
		score -= 10
	}

	// --- Trust indicators ---

	if meta.Votes >= highVoteThreshold {
		indicators = append(indicators, fmt.Sprintf("popular package: %d votes (community vetted)", meta.Votes))
		score += 15
	}

	if meta.Maintainer != nil && meta.OutOfDate == nil {
		indicators = append(indicators, fmt.Sprintf("actively maintained by %s", *meta.Maintainer))
		score += 10
	}

	if meta.FirstSubmitted > 0 && now.Sub(time.Unix(meta.FirstSubmitted, 0)) > maturityWindow {
		indicators = append(indicators, "established package: over a year in the AUR")
		score += 10
	}

	if meta.LastModified > 0 && now.Sub(lastModified) < freshWindow {
		indicators = append(indicators, "recently updated")
		score += 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return MetadataRiskReport{
		TrustScore:      score,
		RiskFactors:     risks,
		TrustIndicators: indicators,
		Recommendation:  trustRecommendation(score),
	}
}

func trustRecommendation(score int) string {
	switch {
	case score >= 70:
		return "TRUSTED — well-maintained package with strong community validation."
	case score >= 50:
		return "MODERATE — Generally acceptable; review the risk factors before installing."
	case score >= 30:
		return "RISKY — multiple risk factors present. Install only after a manual review."
	default:
		return "UNTRUSTED — strong risk signals. Avoid installing unless you fully audit the package."
	}
}
