package pipeline

import (
	"regexp"
	"strings"
)

// Site codes are embedded in free-text descriptions after a closing
// parenthesis, e.g. "(INC001) SITE42 link down".
var siteCodePattern = regexp.MustCompile(`\)\s*([A-Za-z0-9_]+)`)

// ExtractSiteCode mines a site code out of a ticket description. This is a
// best-effort lexical extraction: a description that does not match yields
// ok=false, never an error.
func ExtractSiteCode(text string) (string, bool) {
	m := siteCodePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
