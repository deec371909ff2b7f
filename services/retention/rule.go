package retention

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/inboxpurge/inboxpurge/internal/enum"
)

// EmailFacts is the fact tuple a rule predicate sees.
type EmailFacts struct {
	SenderEmail    string
	SenderDomain   string
	Subject        string
	Labels         []string
	HasAttachment  bool
	IsConversation bool
	Category       string
	Date           time.Time
}

// Rule is a single retention classifier entry. Exactly one of Pattern,
// Value or Days is meaningful, selected by Type.
type Rule struct {
	Type        enum.RuleType
	Pattern     string
	Value       bool
	Days        int
	Action      enum.Disposition
	Priority    int
	Enabled     bool
	Description string
}

// NewPatternRule builds a string-pattern rule (sender email/domain,
// subject substring, label, category).
func NewPatternRule(ruleType enum.RuleType, pattern string, action enum.Disposition, priority int, description string) Rule {
	return Rule{
		Type:        ruleType,
		Pattern:     pattern,
		Action:      action,
		Priority:    priority,
		Enabled:     true,
		Description: description,
	}
}

// NewBoolRule builds a boolean-valued rule (has_attachment, is_conversation).
func NewBoolRule(ruleType enum.RuleType, value bool, action enum.Disposition, priority int, description string) Rule {
	return Rule{
		Type:        ruleType,
		Value:       value,
		Action:      action,
		Priority:    priority,
		Enabled:     true,
		Description: description,
	}
}

// NewAgeRule builds an older-than-days rule.
func NewAgeRule(days int, action enum.Disposition, priority int, description string) Rule {
	return Rule{
		Type:        enum.RuleOlderThanDays,
		Days:        days,
		Action:      action,
		Priority:    priority,
		Enabled:     true,
		Description: description,
	}
}

// Matches evaluates the rule predicate against the fact tuple.
func (r Rule) Matches(facts EmailFacts, now time.Time) bool {
	switch r.Type {
	case enum.RuleSenderEmail:
		return strings.EqualFold(facts.SenderEmail, r.Pattern)
	case enum.RuleSenderDomain:
		return matchDomain(strings.ToLower(facts.SenderDomain), strings.ToLower(r.Pattern))
	case enum.RuleSubjectContains:
		return strings.Contains(strings.ToLower(facts.Subject), strings.ToLower(r.Pattern))
	case enum.RuleLabel:
		for _, label := range facts.Labels {
			if strings.EqualFold(label, r.Pattern) {
				return true
			}
		}
		return false
	case enum.RuleHasAttachment:
		return facts.HasAttachment == r.Value
	case enum.RuleIsConversation:
		return facts.IsConversation == r.Value
	case enum.RuleOlderThanDays:
		if facts.Date.IsZero() {
			return false
		}
		return facts.Date.Before(now.AddDate(0, 0, -r.Days))
	case enum.RuleCategory:
		return strings.EqualFold(facts.Category, r.Pattern)
	default:
		return false
	}
}

// matchDomain supports an exact match and a leading-dot wildcard:
// ".gov" matches any *.gov and bare "gov".
func matchDomain(domain, pattern string) bool {
	if pattern == "" || domain == "" {
		return false
	}
	if strings.HasPrefix(pattern, ".") {
		return strings.HasSuffix(domain, pattern) || domain == pattern[1:]
	}
	return domain == pattern || strings.HasSuffix(domain, "."+pattern)
}

// patternString renders the discriminated value back into the exported
// pattern field.
func (r Rule) patternString() string {
	switch r.Type {
	case enum.RuleHasAttachment, enum.RuleIsConversation:
		return strconv.FormatBool(r.Value)
	case enum.RuleOlderThanDays:
		return strconv.Itoa(r.Days)
	default:
		return r.Pattern
	}
}

type ruleJSON struct {
	RuleType    string `json:"rule_type"`
	Pattern     string `json:"pattern"`
	Action      string `json:"action"`
	Priority    int    `json:"priority"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

func (r Rule) MarshalJSON() ([]byte, error) {
	return json.Marshal(ruleJSON{
		RuleType:    r.Type.String(),
		Pattern:     r.patternString(),
		Action:      r.Action.String(),
		Priority:    r.Priority,
		Enabled:     r.Enabled,
		Description: r.Description,
	})
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw ruleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	rule := Rule{
		Type:        enum.RuleType(raw.RuleType),
		Action:      enum.Disposition(raw.Action),
		Priority:    raw.Priority,
		Enabled:     raw.Enabled,
		Description: raw.Description,
	}

	switch rule.Type {
	case enum.RuleHasAttachment, enum.RuleIsConversation:
		value, err := strconv.ParseBool(raw.Pattern)
		if err != nil {
			return errors.Wrapf(err, "rule %s expects a boolean pattern", rule.Type)
		}
		rule.Value = value
	case enum.RuleOlderThanDays:
		days, err := strconv.Atoi(raw.Pattern)
		if err != nil {
			return errors.Wrapf(err, "rule %s expects a day count", rule.Type)
		}
		rule.Days = days
	case enum.RuleSenderEmail, enum.RuleSenderDomain, enum.RuleSubjectContains, enum.RuleLabel, enum.RuleCategory:
		rule.Pattern = raw.Pattern
	default:
		return errors.Errorf("unknown rule type %q", raw.RuleType)
	}

	*r = rule
	return nil
}
