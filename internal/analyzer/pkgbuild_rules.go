package analyzer

import (
	"regexp"
	"strings"
)

// pkgbuildRule is one detection category applied to PKGBUILD content.
// Rules are data: adding a category never touches scoring logic. Every rule
// is evaluated independently, with no early exit, and finding order
// in the report follows table order so output is deterministic.
type pkgbuildRule struct {
	issue    string
	severity Severity
	match    func(info *scriptInfo) (evidence string, ok bool)
}

var (
	curlPipeShellRE = regexp.MustCompile(`(?i)\bcurl\b[^|\n]*\|[^|\n]*\b(sh|bash|zsh)\b`)
	wgetPipeShellRE = regexp.MustCompile(`(?i)\bwget\b[^|\n]*\|[^|\n]*\b(sh|bash|zsh)\b`)
	forkBombRE      = regexp.MustCompile(`:\s*\(\s*\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`)
	devTCPRE        = regexp.MustCompile(`/dev/tcp/[^/\s]+/\d+`)
	ncShellRE       = regexp.MustCompile(`(?i)\b(nc|ncat|netcat)\b[^\n]*\s-e\s*[^\n]*\b(sh|bash)\b`)
	rmRootRE        = regexp.MustCompile(`\brm\s+(-[a-zA-Z]*r[a-zA-Z]*f[a-zA-Z]*|-[a-zA-Z]*f[a-zA-Z]*r[a-zA-Z]*)\s+("/"|/(\s|$|\*)|/(etc|usr|var|boot|bin|sbin|lib|home)\b)`)
	rmWildcardRE    = regexp.MustCompile(`\brm\s+(-[a-zA-Z]*r[a-zA-Z]*f[a-zA-Z]*|-[a-zA-Z]*f[a-zA-Z]*r[a-zA-Z]*)\s+\S*[*$]`)
	ddBlockDevRE    = regexp.MustCompile(`\bdd\b[^\n]*\bof=/dev/(sd[a-z]|hd[a-z]|nvme\d|mmcblk\d|vd[a-z])`)
	exfilPipeRE     = regexp.MustCompile(`(?i)(/etc/passwd|/etc/shadow|\.ssh/|id_rsa|id_ed25519|\.gnupg)[^\n|]*\|[^\n]*\b(curl|wget|nc|ncat)\b`)
	exfilUploadRE   = regexp.MustCompile(`(?i)\b(curl|wget)\b[^\n]*(--data|-d\s|-F\s|--upload-file|-T\s)[^\n]*(/etc/passwd|/etc/shadow|\.ssh/|id_rsa|id_ed25519)`)
	base64DecodeRE  = regexp.MustCompile(`(?i)\b(base64\s+(-d|--decode)|openssl\s+enc\s+-d|xxd\s+-r)`)
	evalRE          = regexp.MustCompile(`(?i)\beval\b`)
	binarySourceRE  = regexp.MustCompile(`(?i)\.(bin|exe|run|appimage|deb|rpm|jar|pyc|so)("|'|\s|$)`)
)

// minerIndicators are substrings that mark cryptocurrency mining payloads:
// known miner binaries, pool protocols, and miner-specific flags.
var minerIndicators = []string{
	"xmrig",
	"minerd",
	"cpuminer",
	"cgminer",
	"cryptonight",
	"stratum+tcp://",
	"stratum+ssl://",
	"mining pool",
	"--donate-level",
	"coinhive",
	"monero",
}

// pasteSiteDomains host throwaway scripts; a PKGBUILD sourcing from one
// cannot be audited against an upstream release.
var pasteSiteDomains = []string{
	"pastebin.com",
	"paste.ee",
	"hastebin.com",
	"ghostbin.co",
	"dpaste.org",
	"dpaste.com",
	"termbin.com",
	"ix.io",
	"0x0.st",
	"transfer.sh",
}

// shortenerDomains hide the real download origin.
var shortenerDomains = []string{
	"bit.ly",
	"tinyurl.com",
	"goo.gl",
	"t.co",
	"is.gd",
	"ow.ly",
	"cutt.ly",
	"rb.gy",
	"shorturl.at",
}

func matchRegex(re *regexp.Regexp) func(info *scriptInfo) (string, bool) {
	return func(info *scriptInfo) (string, bool) {
		if m := re.FindString(info.raw); m != "" {
			return strings.TrimSpace(m), true
		}
		return "", false
	}
}

func matchAnyRegex(res ...*regexp.Regexp) func(info *scriptInfo) (string, bool) {
	return func(info *scriptInfo) (string, bool) {
		for _, re := range res {
			if m := re.FindString(info.raw); m != "" {
				return strings.TrimSpace(m), true
			}
		}
		return "", false
	}
}

func matchAnySubstring(needles []string) func(info *scriptInfo) (string, bool) {
	return func(info *scriptInfo) (string, bool) {
		for _, needle := range needles {
			if strings.Contains(info.lower, needle) {
				return needle, true
			}
		}
		return "", false
	}
}

func matchSourceDomain(domains []string) func(info *scriptInfo) (string, bool) {
	return func(info *scriptInfo) (string, bool) {
		for _, entry := range info.sourceEntries() {
			lower := strings.ToLower(entry)
			for _, domain := range domains {
				if strings.Contains(lower, domain) {
					return strings.TrimSpace(entry), true
				}
			}
		}
		return "", false
	}
}

// pkgbuildRules is the full detection table, ordered by severity tier.
// Issue strings are part of the contract with callers: they substring-match
// on category keywords ("curl", "shell", "fork bomb", ...).
var pkgbuildRules = []pkgbuildRule{
	{
		issue:    "curl output piped directly to a shell interpreter (remote code execution)",
		severity: SeverityCritical,
		match:    matchRegex(curlPipeShellRE),
	},
	{
		issue:    "wget output piped directly to a shell interpreter (remote code execution)",
		severity: SeverityCritical,
		match:    matchRegex(wgetPipeShellRE),
	},
	{
		issue:    "fork bomb pattern",
		severity: SeverityCritical,
		match: func(info *scriptInfo) (string, bool) {
			if m := forkBombRE.FindString(info.raw); m != "" {
				return m, true
			}
			// The canonical one-liner with no spaces.
			if strings.Contains(info.raw, ":(){") {
				return ":(){", true
			}
			return "", false
		},
	},
	{
		issue:    "reverse shell via /dev/tcp or netcat",
		severity: SeverityCritical,
		match:    matchAnyRegex(devTCPRE, ncShellRE),
	},
	{
		issue:    "destructive filesystem operation: recursive delete of system paths (rm -rf)",
		severity: SeverityHigh,
		match:    matchRegex(rmRootRE),
	},
	{
		issue:    "destructive filesystem operation: dd writing to a block device",
		severity: SeverityHigh,
		match:    matchRegex(ddBlockDevRE),
	},
	{
		issue:    "cryptocurrency mining indicator",
		severity: SeverityHigh,
		match:    matchAnySubstring(minerIndicators),
	},
	{
		issue:    "data exfiltration: sensitive files piped to a network command",
		severity: SeverityHigh,
		match:    matchAnyRegex(exfilPipeRE, exfilUploadRE),
	},
	{
		issue:    "unicode obfuscation: invisible or bidirectional control characters in script",
		severity: SeverityHigh,
		match: func(info *scriptInfo) (string, bool) {
			if !info.charScan.HasInvisible() {
				return "", false
			}
			for _, t := range info.charScan.Threats {
				if t.Invisible {
					return t.Codepoint + " (" + t.Category + ")", true
				}
			}
			return "", false
		},
	},
	{
		issue:    "obfuscated execution: eval combined with a decode pipeline (base64)",
		severity: SeverityMedium,
		match: func(info *scriptInfo) (string, bool) {
			if !evalRE.MatchString(info.raw) {
				return "", false
			}
			if m := base64DecodeRE.FindString(info.raw); m != "" {
				return strings.TrimSpace(m), true
			}
			return "", false
		},
	},
	{
		issue:    "wildcard recursive delete (rm -rf with glob or variable path)",
		severity: SeverityMedium,
		match: func(info *scriptInfo) (string, bool) {
			// Already reported by the system-path rule at high severity.
			if rmRootRE.MatchString(info.raw) {
				return "", false
			}
			if m := rmWildcardRE.FindString(info.raw); m != "" {
				return strings.TrimSpace(m), true
			}
			return "", false
		},
	},
	{
		issue:    "source URL points at a paste site",
		severity: SeverityMedium,
		match:    matchSourceDomain(pasteSiteDomains),
	},
	{
		issue:    "eval usage (dynamic code execution)",
		severity: SeverityLow,
		match: func(info *scriptInfo) (string, bool) {
			// Suppressed when the eval+decode rule already fired: the
			// obfuscation finding subsumes the bare-eval one.
			if base64DecodeRE.MatchString(info.raw) {
				return "", false
			}
			if m := evalRE.FindString(info.raw); m != "" {
				return m, true
			}
			return "", false
		},
	},
	{
		issue:    "source URL uses a URL shortener",
		severity: SeverityLow,
		match:    matchSourceDomain(shortenerDomains),
	},
	{
		issue:    "homoglyph characters that imitate latin letters",
		severity: SeverityLow,
		match: func(info *scriptInfo) (string, bool) {
			if hg := info.charScan.Homoglyphs(); len(hg) > 0 {
				return hg[0].Description, true
			}
			return "", false
		},
	},
	{
		issue:    "binary download without verifiable checksums",
		severity: SeverityLow,
		match: func(info *scriptInfo) (string, bool) {
			if info.hasVerifiedChecksums() {
				return "", false
			}
			for _, entry := range info.sourceEntries() {
				if binarySourceRE.MatchString(entry) && strings.Contains(entry, "://") {
					return strings.TrimSpace(entry), true
				}
			}
			return "", false
		},
	},
}
