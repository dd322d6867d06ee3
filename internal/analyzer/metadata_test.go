package analyzer

import (
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }
func i64Ptr(v int64) *int64   { return &v }

// fixed reference clock so age-based rules are reproducible
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func epochDaysAgo(days int) int64 {
	return testNow.Add(-time.Duration(days) * 24 * time.Hour).Unix()
}

func TestAnalyzeMetadata_TrustedPackage(t *testing.T) {
	meta := PackageMeta{
		Name:           "test-package",
		Votes:          42,
		Popularity:     0.5,
		OutOfDate:      nil,
		Maintainer:     strPtr("testuser"),
		FirstSubmitted: epochDaysAgo(900),
		LastModified:   epochDaysAgo(7),
	}

	result := analyzeMetadataAt(meta, testNow)

	if result.TrustScore < 40 {
		t.Errorf("expected trust score >= 40, got %d", result.TrustScore)
	}
	if len(result.TrustIndicators) == 0 {
		t.Error("expected at least one trust indicator")
	}
	positive := false
	for _, word := range []string{"TRUSTED", "MODERATE", "Generally", "acceptable"} {
		if strings.Contains(result.Recommendation, word) {
			positive = true
		}
	}
	if !positive {
		t.Errorf("expected a positive recommendation, got %q", result.Recommendation)
	}
}

func TestAnalyzeMetadata_UntrustedPackage(t *testing.T) {
	meta := PackageMeta{
		Votes:          0,
		Popularity:     0.0,
		OutOfDate:      i64Ptr(1234567890),
		Maintainer:     nil,
		FirstSubmitted: 1234567890,
		LastModified:   1234567890,
	}

	result := analyzeMetadataAt(meta, testNow)

	if result.TrustScore >= 50 {
		t.Errorf("expected trust score < 50, got %d", result.TrustScore)
	}
	if len(result.RiskFactors) == 0 {
		t.Error("expected risk factors")
	}
	if !strings.Contains(result.Recommendation, "UNTRUSTED") && !strings.Contains(result.Recommendation, "RISKY") {
		t.Errorf("expected UNTRUSTED/RISKY recommendation, got %q", result.Recommendation)
	}
	if !anyIssueContains(result.RiskFactors, "orphan") {
		t.Errorf("expected orphaned risk factor, got %v", result.RiskFactors)
	}
	if !anyIssueContains(result.RiskFactors, "out of date") {
		t.Errorf("expected out-of-date risk factor, got %v", result.RiskFactors)
	}
}

func TestAnalyzeMetadata_RiskFactorRules(t *testing.T) {
	tests := []struct {
		name      string
		meta      PackageMeta
		issueWord string
	}{
		{
			name: "orphaned fires regardless of other signals",
			meta: PackageMeta{
				Votes: 100, Popularity: 5.0,
				Maintainer:     nil,
				FirstSubmitted: epochDaysAgo(900),
				LastModified:   epochDaysAgo(3),
			},
			issueWord: "orphan",
		},
		{
			name: "out of date",
			meta: PackageMeta{
				Votes: 10, Popularity: 0.5,
				OutOfDate:      i64Ptr(epochDaysAgo(30)),
				Maintainer:     strPtr("testuser"),
				FirstSubmitted: epochDaysAgo(900),
				LastModified:   epochDaysAgo(30),
			},
			issueWord: "out of date",
		},
		{
			name: "low community validation",
			meta: PackageMeta{
				Votes: 1, Popularity: 0.0,
				Maintainer:     strPtr("testuser"),
				FirstSubmitted: epochDaysAgo(900),
				LastModified:   epochDaysAgo(3),
			},
			issueWord: "low community validation",
		},
		{
			name: "stale package",
			meta: PackageMeta{
				Votes: 10, Popularity: 0.5,
				Maintainer:     strPtr("testuser"),
				FirstSubmitted: epochDaysAgo(2000),
				LastModified:   epochDaysAgo(800),
			},
			issueWord: "not updated recently",
		},
		{
			name: "very new package",
			meta: PackageMeta{
				Votes: 10, Popularity: 0.5,
				Maintainer:     strPtr("newuser"),
				FirstSubmitted: epochDaysAgo(1),
				LastModified:   epochDaysAgo(1),
			},
			issueWord: "very new",
		},
		{
			name: "missing modification history counts as stale",
			meta: PackageMeta{
				Votes: 10, Popularity: 0.5,
				Maintainer:     strPtr("testuser"),
				FirstSubmitted: epochDaysAgo(900),
				LastModified:   0,
			},
			issueWord: "not updated recently",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyzeMetadataAt(tt.meta, testNow)
			if !anyIssueContains(result.RiskFactors, tt.issueWord) {
				t.Errorf("expected risk factor mentioning %q, got %v", tt.issueWord, result.RiskFactors)
			}
		})
	}
}

func TestAnalyzeMetadata_TrustIndicatorRules(t *testing.T) {
	tests := []struct {
		name          string
		meta          PackageMeta
		indicatorWord string
	}{
		{
			name: "high vote count",
			meta: PackageMeta{
				Votes: 250, Popularity: 3.0,
				Maintainer:     strPtr("testuser"),
				FirstSubmitted: epochDaysAgo(900),
				LastModified:   epochDaysAgo(3),
			},
			indicatorWord: "popular",
		},
		{
			name: "actively maintained",
			meta: PackageMeta{
				Votes: 10, Popularity: 0.5,
				Maintainer:     strPtr("testuser"),
				FirstSubmitted: epochDaysAgo(900),
				LastModified:   epochDaysAgo(3),
			},
			indicatorWord: "maintained",
		},
		{
			name: "established package",
			meta: PackageMeta{
				Votes: 10, Popularity: 0.5,
				Maintainer:     strPtr("testuser"),
				FirstSubmitted: epochDaysAgo(800),
				LastModified:   epochDaysAgo(3),
			},
			indicatorWord: "established",
		},
		{
			name: "recently updated",
			meta: PackageMeta{
				Votes: 10, Popularity: 0.5,
				Maintainer:     strPtr("testuser"),
				FirstSubmitted: epochDaysAgo(900),
				LastModified:   epochDaysAgo(5),
			},
			indicatorWord: "recently updated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyzeMetadataAt(tt.meta, testNow)
			found := false
			for _, ind := range result.TrustIndicators {
				if strings.Contains(strings.ToLower(ind), tt.indicatorWord) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected indicator mentioning %q, got %v", tt.indicatorWord, result.TrustIndicators)
			}
		})
	}
}

func TestAnalyzeMetadata_ScoreBounds(t *testing.T) {
	allNegative := PackageMeta{}
	allPositive := PackageMeta{
		Votes: 10000, Popularity: 50,
		Maintainer:     strPtr("testuser"),
		FirstSubmitted: epochDaysAgo(3000),
		LastModified:   epochDaysAgo(1),
	}

	for _, meta := range []PackageMeta{allNegative, allPositive} {
		result := analyzeMetadataAt(meta, testNow)
		if result.TrustScore < 0 || result.TrustScore > 100 {
			t.Errorf("trust score out of bounds: %d", result.TrustScore)
		}
	}

	neg := analyzeMetadataAt(allNegative, testNow)
	pos := analyzeMetadataAt(allPositive, testNow)
	if pos.TrustScore <= neg.TrustScore {
		t.Errorf("all-positive package (%d) must outscore all-negative package (%d)",
			pos.TrustScore, neg.TrustScore)
	}
}

func TestAnalyzeMetadata_ZeroValueNeverFails(t *testing.T) {
	result := analyzeMetadataAt(PackageMeta{}, testNow)

	// Zero value means orphaned, no votes, no history: every conservative
	// branch fires and the package lands in a distrust band.
	if result.TrustScore >= 50 {
		t.Errorf("zero-value metadata should score below 50, got %d", result.TrustScore)
	}
	if !anyIssueContains(result.RiskFactors, "orphan") {
		t.Errorf("zero-value metadata must flag orphaned, got %v", result.RiskFactors)
	}
}
