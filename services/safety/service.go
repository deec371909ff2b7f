package safety

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/opentracing/opentracing-go"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/tracing"
	"github.com/inboxpurge/inboxpurge/internal/utils"
)

// GuardrailService decides whether a sender or message is protected from
// any destructive action. Failing closed is the rule: if a check cannot
// complete, the verdict is protected.
type GuardrailService struct {
	whitelist interfaces.WhitelistRepository
	log       logger.Logger

	keywordRe       *regexp.Regexp
	senderPatterns  []*regexp.Regexp
	junkSenderPats  []*regexp.Regexp
	junkSubjectPats []*regexp.Regexp
}

func NewGuardrailService(whitelist interfaces.WhitelistRepository, log logger.Logger) *GuardrailService {
	return &GuardrailService{
		whitelist:       whitelist,
		log:             log,
		keywordRe:       buildKeywordRegexp(protectedKeywords),
		senderPatterns:  compileAll(protectedSenderPatterns),
		junkSenderPats:  compileAll(junkSenderPatterns),
		junkSubjectPats: compileAll(junkSubjectPatterns),
	}
}

func compileAll(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp.MustCompile("(?i)"+pattern))
	}
	return compiled
}

func buildKeywordRegexp(keywords []string) *regexp.Regexp {
	quoted := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		quoted = append(quoted, regexp.QuoteMeta(keyword))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

// IsSenderProtected checks, in strict priority order: the user whitelist
// (absolute, wins over everything), protected sender patterns, then the
// protected domain set.
func (s *GuardrailService) IsSenderProtected(ctx context.Context, senderEmail string) (bool, enum.ProtectionReason, string) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "guardrailService.IsSenderProtected")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagSender(span, senderEmail)

	email := strings.ToLower(strings.TrimSpace(senderEmail))
	domain := utils.ExtractDomainFromEmail(email)

	if domain != "" {
		whitelisted, err := s.whitelist.ExistsByDomain(ctx, domain)
		if err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("Whitelist lookup failed for %s, treating as protected: %v", domain, err)
			return true, enum.ProtectionCheckFailed, "whitelist lookup failed"
		}
		if whitelisted {
			return true, enum.ProtectionWhitelist, fmt.Sprintf("Domain %s is whitelisted", domain)
		}
	}

	for _, pattern := range s.senderPatterns {
		if pattern.MatchString(email) {
			return true, enum.ProtectionSenderPattern, fmt.Sprintf("Sender matches protected pattern %s", pattern.String())
		}
	}

	if matched, protectedDomain := matchProtectedDomain(domain); matched {
		return true, enum.ProtectionDomain, fmt.Sprintf("Domain %s is a protected %s domain", domain, categorizeDomain(protectedDomain))
	}

	return false, "", ""
}

// IsMessageProtected runs the sender check, then scans subject and
// preview text for protected keywords. A keyword match overrides a safe
// sender verdict.
func (s *GuardrailService) IsMessageProtected(ctx context.Context, senderEmail, subject, snippet string) (bool, enum.ProtectionReason, string) {
	if protected, reason, detail := s.IsSenderProtected(ctx, senderEmail); protected {
		return protected, reason, detail
	}

	if match := s.keywordRe.FindString(subject); match != "" {
		return true, enum.ProtectionKeyword, fmt.Sprintf("Subject contains protected keyword %q", strings.ToLower(match))
	}
	if match := s.keywordRe.FindString(snippet); match != "" {
		return true, enum.ProtectionKeyword, fmt.Sprintf("Preview contains protected keyword %q", strings.ToLower(match))
	}

	return false, "", ""
}

// JunkScore rates how junk-like a sender/subject pair looks: address
// pattern 40, subject pattern 30, unsubscribe capability 30, capped 100.
func (s *GuardrailService) JunkScore(senderEmail, subject string, hasUnsubscribe bool) int {
	score := 0

	for _, pattern := range s.junkSenderPats {
		if pattern.MatchString(strings.ToLower(senderEmail)) {
			score += 40
			break
		}
	}

	for _, pattern := range s.junkSubjectPats {
		if pattern.MatchString(strings.ToLower(subject)) {
			score += 30
			break
		}
	}

	if hasUnsubscribe {
		score += 30
	}

	if score > 100 {
		score = 100
	}
	return score
}

// IsLikelyJunkSender reports whether the address alone matches a bulk
// sender pattern. Used for run prioritization.
func (s *GuardrailService) IsLikelyJunkSender(senderEmail string) bool {
	email := strings.ToLower(strings.TrimSpace(senderEmail))
	for _, pattern := range s.junkSenderPats {
		if pattern.MatchString(email) {
			return true
		}
	}
	return false
}

// GuardrailStats reports the size of the protection sets for the API.
type GuardrailStats struct {
	ProtectedKeywords       int   `json:"protectedKeywords"`
	ProtectedDomains        int   `json:"protectedDomains"`
	ProtectedSenderPatterns int   `json:"protectedSenderPatterns"`
	WhitelistedDomains      int64 `json:"whitelistedDomains"`
}

func (s *GuardrailService) Stats(ctx context.Context) (*GuardrailStats, error) {
	entries, err := s.whitelist.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	return &GuardrailStats{
		ProtectedKeywords:       len(protectedKeywords),
		ProtectedDomains:        len(protectedDomains),
		ProtectedSenderPatterns: len(protectedSenderPatterns),
		WhitelistedDomains:      int64(len(entries)),
	}, nil
}

func matchProtectedDomain(domain string) (bool, string) {
	if domain == "" {
		return false, ""
	}

	if strings.HasSuffix(domain, ".gov") || strings.HasSuffix(domain, ".mil") ||
		domain == "gov" || domain == "mil" {
		return true, domain
	}

	for _, protected := range protectedDomains {
		if domain == protected || strings.HasSuffix(domain, "."+protected) {
			return true, protected
		}
	}

	return false, ""
}

func categorizeDomain(domain string) string {
	switch {
	case containsAny(domain, "bank", "chase", "wellsfargo", "citi", "capitalone", "schwab", "fidelity",
		"vanguard", "paypal", "venmo", "stripe", "coinbase", "tax", "experian", "equifax", "transunion"):
		return "financial"
	case strings.HasSuffix(domain, ".gov") || strings.HasSuffix(domain, ".mil") ||
		containsAny(domain, "irs", "usps", "ssa", "state"):
		return "government"
	case containsAny(domain, "anthem", "uhc", "aetna", "cigna", "bluecross", "blueshield", "humana", "kaiser"):
		return "healthcare"
	default:
		return "sensitive"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
