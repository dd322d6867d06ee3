package analyzer

import (
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/aurguard/aurguard/internal/unicode"
)

// scriptInfo is the structural view of a PKGBUILD used by source-related
// rules: the source= array entries, whether usable checksums exist, and any
// character-level obfuscation found before pattern matching.
type scriptInfo struct {
	raw       string
	lower     string
	sources   []string
	checksums []string
	charScan  unicode.ScanResult
}

// hasVerifiedChecksums reports whether at least one checksum entry is a
// real digest rather than SKIP. Binary-download findings are suppressed
// when the package author ships verifiable checksums.
func (s *scriptInfo) hasVerifiedChecksums() bool {
	for _, sum := range s.checksums {
		if !strings.EqualFold(strings.TrimSpace(sum), "SKIP") && strings.TrimSpace(sum) != "" {
			return true
		}
	}
	return false
}

// sourceEntries returns the extracted source= values, or every line of the
// script when extraction found nothing. Rules that inspect source URLs
// still fire on scripts too broken to parse.
func (s *scriptInfo) sourceEntries() []string {
	if len(s.sources) > 0 {
		return s.sources
	}
	return strings.Split(s.raw, "\n")
}

// checksumArray matches the standard makepkg integrity arrays, including
// per-arch variants such as sha256sums_x86_64.
var checksumArray = regexp.MustCompile(`^(md5|sha1|sha224|sha256|sha384|sha512|b2)sums(_\w+)?$`)

func isSourceArray(name string) bool {
	return name == "source" || strings.HasPrefix(name, "source_")
}

// inspectScript extracts source and checksum arrays from PKGBUILD content.
// It first strips invisible characters, so a zero-width space cannot split
// "curl" out of a rule's reach, then parses the script as bash; if the
// script does not parse (the input may be arbitrary text), it falls back to
// line-level extraction. inspectScript never fails; worst case it returns
// raw text only.
func inspectScript(content string) *scriptInfo {
	charScan := unicode.Scan(content)
	content = charScan.Sanitized

	info := &scriptInfo{
		raw:      content,
		lower:    strings.ToLower(content),
		charScan: charScan,
	}

	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(content), "PKGBUILD")
	if err != nil {
		extractArraysFallback(info)
		return info
	}

	syntax.Walk(file, func(node syntax.Node) bool {
		assign, ok := node.(*syntax.Assign)
		if !ok || assign.Name == nil {
			return true
		}
		name := assign.Name.Value
		switch {
		case isSourceArray(name):
			info.sources = append(info.sources, assignValues(assign)...)
		case checksumArray.MatchString(name):
			info.checksums = append(info.checksums, assignValues(assign)...)
		}
		return true
	})

	if len(info.sources) == 0 && len(info.checksums) == 0 {
		// Parsed fine but arrays may hide behind constructs the walker
		// missed (e.g. sourced fragments); try the text pass too.
		extractArraysFallback(info)
	}
	return info
}

// assignValues flattens an assignment into its literal string values,
// handling both scalar (source=url) and array (source=(a b c)) forms.
func assignValues(assign *syntax.Assign) []string {
	if assign.Array != nil {
		values := make([]string, 0, len(assign.Array.Elems))
		for _, elem := range assign.Array.Elems {
			if v := wordText(elem.Value); v != "" {
				values = append(values, v)
			}
		}
		return values
	}
	if assign.Value != nil {
		if v := wordText(assign.Value); v != "" {
			return []string{v}
		}
	}
	return nil
}

// wordText concatenates the literal parts of a shell word. Expansions are
// dropped rather than evaluated; a $pkgver inside a URL still leaves the
// host and extension visible, which is all the rules need.
func wordText(word *syntax.Word) string {
	if word == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range word.Parts {
		writeWordPart(&b, part)
	}
	return b.String()
}

func writeWordPart(b *strings.Builder, part syntax.WordPart) {
	switch p := part.(type) {
	case *syntax.Lit:
		b.WriteString(p.Value)
	case *syntax.SglQuoted:
		b.WriteString(p.Value)
	case *syntax.DblQuoted:
		for _, inner := range p.Parts {
			writeWordPart(b, inner)
		}
	}
}

var (
	arrayAssignRE  = regexp.MustCompile(`(?s)\b((?:md5|sha1|sha224|sha256|sha384|sha512|b2)sums(?:_\w+)?|source(?:_\w+)?)=\(([^)]*)\)`)
	scalarAssignRE = regexp.MustCompile(`(?m)^\s*(source(?:_\w+)?|(?:md5|sha1|sha224|sha256|sha384|sha512|b2)sums(?:_\w+)?)=([^(\s][^\s]*)`)
	quoteTrim      = "\"'"
)

// extractArraysFallback scrapes source/checksum assignments out of raw text
// when shell parsing is unavailable.
func extractArraysFallback(info *scriptInfo) {
	for _, m := range arrayAssignRE.FindAllStringSubmatch(info.raw, -1) {
		values := splitArrayBody(m[2])
		if isSourceArray(m[1]) {
			info.sources = append(info.sources, values...)
		} else {
			info.checksums = append(info.checksums, values...)
		}
	}
	for _, m := range scalarAssignRE.FindAllStringSubmatch(info.raw, -1) {
		value := strings.Trim(m[2], quoteTrim)
		if value == "" {
			continue
		}
		if isSourceArray(m[1]) {
			info.sources = append(info.sources, value)
		} else {
			info.checksums = append(info.checksums, value)
		}
	}
}

func splitArrayBody(body string) []string {
	var values []string
	for _, field := range strings.Fields(body) {
		field = strings.Trim(field, quoteTrim)
		if field != "" {
			values = append(values, field)
		}
	}
	return values
}
