package cipher

import (
	"regexp"
	"strconv"
	"strings"
)

// Call-site patterns for the signature transform name. Player builds have
// shuffled these over the years; order is newest first.
var sigFnNameRegexps = []*regexp.Regexp{
	regexp.MustCompile(`\.set\("signature"\s*,\s*(?:encodeURIComponent\()?([a-zA-Z0-9$]+)\(`),
	regexp.MustCompile(`"signature"\s*,\s*([a-zA-Z0-9$]+)\(`),
	regexp.MustCompile(`\.sig\|\|([a-zA-Z0-9$]+)\(`),
	regexp.MustCompile(`\bc&&d\.set\([^,]+,\s*encodeURIComponent\(([a-zA-Z0-9$]+)\(`),
}

// Structural fallback: a one-argument function that splits its parameter into
// characters and joins it back. RE2 has no backreferences, so the body is
// verified separately after extraction.
var sigFnStructuralRegexp = regexp.MustCompile(
	`([a-zA-Z0-9$]+)\s*=\s*function\(\s*([a-zA-Z0-9$]+)\s*\)\s*\{\s*[a-zA-Z0-9$]+\s*=\s*[a-zA-Z0-9$]+\.split\(""\)`)

// Throttle ("n") transform name patterns, from the oldest indexed form
// b=XY[0](b)||ZZ down to the bare b=XY(b) call.
var nFnNameRegexps = []*regexp.Regexp{
	regexp.MustCompile(`\.get\("n"\)\)&&\(b=([a-zA-Z0-9$]{0,3})\[(\d+)\](.+)\|\|([a-zA-Z0-9]{0,3})`),
	regexp.MustCompile(`\.get\("n"\)\)\s*&&\s*\(b=([a-zA-Z0-9$]+)\[(\d+)\]\([a-zA-Z0-9$]+\).+\|\|([a-zA-Z0-9$]+)`),
	regexp.MustCompile(`\.get\("n"\)\)\s*&&\s*\(b=([a-zA-Z0-9$]+)\([a-zA-Z0-9$]+\)`),
	regexp.MustCompile(`\.get\("n"\).*?&&.*?([a-zA-Z0-9$]+)\([a-zA-Z0-9$]+\)`),
}

// findSigFnName returns the name of the signature descrambler, or "".
func findSigFnName(source string) string {
	for _, re := range sigFnNameRegexps {
		if m := re.FindStringSubmatch(source); len(m) > 1 && m[1] != "" {
			return m[1]
		}
	}
	if m := sigFnStructuralRegexp.FindStringSubmatch(source); len(m) > 1 {
		return m[1]
	}
	return ""
}

// findNFnName returns the name of the throttle transform, or "". Indexed
// matches like XY[0] are resolved through the alias array `var XY=[real]`.
func findNFnName(source string) string {
	for _, re := range nFnNameRegexps {
		m := re.FindStringSubmatch(source)
		if len(m) == 0 {
			continue
		}
		switch len(m) {
		case 5:
			// Indexed form with a fallback symbol in group 4.
			if idx, err := strconv.Atoi(m[2]); err == nil {
				if name := resolveAlias(source, m[1], idx); name != "" {
					return name
				}
			}
			return m[4]
		case 4:
			if idx, err := strconv.Atoi(m[2]); err == nil {
				if name := resolveAlias(source, m[1], idx); name != "" {
					return name
				}
			}
			return m[3]
		default:
			return m[1]
		}
	}
	return ""
}

// resolveAlias looks up element idx of `var alias=[a,b,...]`.
func resolveAlias(source, alias string, idx int) string {
	re := regexp.MustCompile(`(?:var\s+)?` + regexp.QuoteMeta(alias) + `\s*=\s*\[([a-zA-Z0-9$,\s]+)\]\s*[;,]`)
	m := re.FindStringSubmatch(source)
	if len(m) < 2 {
		return ""
	}
	parts := strings.Split(m[1], ",")
	if idx < 0 || idx >= len(parts) {
		return ""
	}
	return strings.TrimSpace(parts[idx])
}
