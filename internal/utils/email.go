package utils

import (
	"regexp"
	"strings"
)

var subjectPrefixRe = regexp.MustCompile(`(?i)^(re|fwd|fw)(\s*:|\s*\[\d+\]\s*:)*\s*`)

// NormalizeSubject strips reply/forward prefixes and surrounding whitespace.
func NormalizeSubject(subject string) string {
	normalized := subjectPrefixRe.ReplaceAllString(subject, "")
	return strings.TrimSpace(normalized)
}

// ExtractDomainFromEmail returns the lowercased domain of an address,
// tolerating "Name <email@domain.com>" forms. Empty string when unparseable.
func ExtractDomainFromEmail(email string) string {
	if email == "" {
		return ""
	}

	email = strings.TrimSpace(email)

	if strings.Contains(email, "<") && strings.Contains(email, ">") {
		startIdx := strings.LastIndex(email, "<") + 1
		endIdx := strings.LastIndex(email, ">")
		if startIdx > 0 && endIdx > startIdx {
			email = email[startIdx:endIdx]
		}
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}

	return strings.ToLower(strings.TrimSpace(parts[1]))
}
