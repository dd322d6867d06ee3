// Package unicode detects character-level obfuscation in PKGBUILD text.
// Invisible and bidirectional control characters let a build script display
// one thing and execute another (Trojan Source), and can split keywords so
// that pattern matching misses them. Scan reports the offending characters
// and returns a sanitized copy with them stripped, so downstream pattern
// rules always see the de-cloaked script.
package unicode

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Threat is one obfuscation indicator found in the input.
type Threat struct {
	Category    string // "zero-width", "bidi-override", "tag-char", "control-char", "homoglyph-*", "invalid-utf8"
	Description string
	Position    int    // byte offset in the input
	Codepoint   string // e.g. "U+200B"
	// Invisible marks characters that are removed from the sanitized copy.
	// Homoglyphs are visible and kept; they only warrant a warning.
	Invisible bool
}

// ScanResult holds the outcome of scanning one script.
type ScanResult struct {
	Clean   bool
	Threats []Threat
	// Sanitized is the input with invisible characters and invalid bytes
	// removed. Visible characters, including homoglyphs, are preserved.
	Sanitized string
}

// HasInvisible reports whether any threat hides content from display.
func (r ScanResult) HasInvisible() bool {
	for _, t := range r.Threats {
		if t.Invisible {
			return true
		}
	}
	return false
}

// Homoglyphs returns only the confusable-character threats.
func (r ScanResult) Homoglyphs() []Threat {
	var out []Threat
	for _, t := range r.Threats {
		if !t.Invisible {
			out = append(out, t)
		}
	}
	return out
}

// Scan inspects script text for character-level smuggling.
func Scan(input string) ScanResult {
	result := ScanResult{Clean: true}
	var sanitized strings.Builder
	sanitized.Grow(len(input))

	i := 0
	for i < len(input) {
		r, size := utf8.DecodeRuneInString(input[i:])

		if r == utf8.RuneError && size == 1 {
			result.Clean = false
			result.Threats = append(result.Threats, Threat{
				Category:    "invalid-utf8",
				Description: "invalid UTF-8 byte sequence",
				Position:    i,
				Codepoint:   fmt.Sprintf("0x%02X", input[i]),
				Invisible:   true,
			})
			i++
			continue
		}

		if threat, found := classifyRune(r, i); found {
			result.Clean = false
			result.Threats = append(result.Threats, threat)
			if !threat.Invisible {
				sanitized.WriteRune(r)
			}
			i += size
			continue
		}

		sanitized.WriteRune(r)
		i += size
	}

	result.Sanitized = sanitized.String()
	return result
}

func classifyRune(r rune, pos int) (Threat, bool) {
	cp := fmt.Sprintf("U+%04X", r)

	if isZeroWidth(r) {
		return Threat{
			Category:    "zero-width",
			Description: fmt.Sprintf("zero-width character %s hides content and splits keywords", cp),
			Position:    pos,
			Codepoint:   cp,
			Invisible:   true,
		}, true
	}

	if isBidiOverride(r) {
		return Threat{
			Category:    "bidi-override",
			Description: fmt.Sprintf("bidirectional override %s makes displayed text differ from executed text", cp),
			Position:    pos,
			Codepoint:   cp,
			Invisible:   true,
		}, true
	}

	// Unicode tag characters (U+E0001..U+E007F) smuggle hidden ASCII.
	if r >= 0xE0001 && r <= 0xE007F {
		return Threat{
			Category:    "tag-char",
			Description: fmt.Sprintf("unicode tag character %s can carry hidden instructions", cp),
			Position:    pos,
			Codepoint:   cp,
			Invisible:   true,
		}, true
	}

	if isUnsafeControl(r) {
		return Threat{
			Category:    "control-char",
			Description: fmt.Sprintf("control character %s does not belong in a build script", cp),
			Position:    pos,
			Codepoint:   cp,
			Invisible:   true,
		}, true
	}

	if cat, desc := checkHomoglyph(r, cp); cat != "" {
		return Threat{
			Category:    cat,
			Description: desc,
			Position:    pos,
			Codepoint:   cp,
		}, true
	}

	return Threat{}, false
}

func isZeroWidth(r rune) bool {
	switch r {
	case '​', // ZERO WIDTH SPACE
		'‌', // ZERO WIDTH NON-JOINER
		'‍', // ZERO WIDTH JOINER
		'\uFEFF', // ZERO WIDTH NO-BREAK SPACE (BOM)
		'⁠', // WORD JOINER
		'᠎', // MONGOLIAN VOWEL SEPARATOR
		'‎', // LEFT-TO-RIGHT MARK
		'‏': // RIGHT-TO-LEFT MARK
		return true
	}
	return false
}

func isBidiOverride(r rune) bool {
	switch r {
	case '‪', // LEFT-TO-RIGHT EMBEDDING
		'‫', // RIGHT-TO-LEFT EMBEDDING
		'‬', // POP DIRECTIONAL FORMATTING
		'‭', // LEFT-TO-RIGHT OVERRIDE
		'‮', // RIGHT-TO-LEFT OVERRIDE
		'⁦', // LEFT-TO-RIGHT ISOLATE
		'⁧', // RIGHT-TO-LEFT ISOLATE
		'⁨', // FIRST STRONG ISOLATE
		'⁩': // POP DIRECTIONAL ISOLATE
		return true
	}
	return false
}

// isUnsafeControl flags C0/C1 controls and DEL; tab, newline, and carriage
// return are normal script content.
func isUnsafeControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	if r <= 0x1F || r == 0x7F {
		return true
	}
	return r >= 0x80 && r <= 0x9F
}

// checkHomoglyph flags Cyrillic and Greek letters that render like Latin
// ones. In a source URL, "pаckage.org" with a Cyrillic а is a different
// host than it appears to be.
func checkHomoglyph(r rune, cp string) (category string, description string) {
	if unicode.Is(unicode.Cyrillic, r) {
		if confusable, ok := cyrillicHomoglyphs[r]; ok {
			return "homoglyph-cyrillic",
				fmt.Sprintf("cyrillic %s renders like latin '%c'", cp, confusable)
		}
	}
	if unicode.Is(unicode.Greek, r) {
		if confusable, ok := greekHomoglyphs[r]; ok {
			return "homoglyph-greek",
				fmt.Sprintf("greek %s renders like latin '%c'", cp, confusable)
		}
	}
	return "", ""
}

var cyrillicHomoglyphs = map[rune]rune{
	'а': 'a', 'А': 'A',
	'В': 'B',
	'с': 'c', 'С': 'C',
	'е': 'e', 'Е': 'E',
	'Н': 'H',
	'і': 'i', 'І': 'I',
	'К': 'K',
	'М': 'M',
	'о': 'o', 'О': 'O',
	'р': 'p', 'Р': 'P',
	'Т': 'T',
	'х': 'x', 'Х': 'X',
	'у': 'y', 'У': 'Y',
}

var greekHomoglyphs = map[rune]rune{
	'Α': 'A', 'Β': 'B', 'Ε': 'E', 'Η': 'H', 'Ι': 'I',
	'Κ': 'K', 'Μ': 'M', 'Ν': 'N', 'Ο': 'O', 'ο': 'o',
	'Ρ': 'P', 'Τ': 'T', 'Χ': 'X', 'Υ': 'Y', 'Ζ': 'Z',
}
