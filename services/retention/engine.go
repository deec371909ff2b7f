package retention

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/inboxpurge/inboxpurge/internal/enum"
)

const (
	matchConfidence   = 100
	noMatchConfidence = 50
)

// Result is the outcome of a rule evaluation.
type Result struct {
	Action          enum.Disposition `json:"action"`
	RuleDescription string           `json:"ruleDescription"`
	Priority        int              `json:"priority"`
	Confidence      int              `json:"confidence"`
}

// Engine holds an ordered, mutable rule collection. One instance per
// process; rule edits must be serialized with run execution by the caller.
type Engine struct {
	rules []Rule
}

// NewEngine returns an engine preloaded with the default rule set.
func NewEngine() *Engine {
	return &Engine{rules: defaultRules()}
}

// NewEmptyEngine returns an engine with no rules.
func NewEmptyEngine() *Engine {
	return &Engine{}
}

// Evaluate filters to enabled rules, orders by priority descending
// (stable, ties keep insertion order) and returns the first match.
// No match yields REVIEW with reduced confidence.
func (e *Engine) Evaluate(facts EmailFacts) Result {
	now := time.Now()

	candidates := make([]Rule, 0, len(e.rules))
	for _, rule := range e.rules {
		if rule.Enabled {
			candidates = append(candidates, rule)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})

	for _, rule := range candidates {
		if rule.Matches(facts, now) {
			return Result{
				Action:          rule.Action,
				RuleDescription: fmt.Sprintf("%s: %s", rule.Type, rule.patternString()),
				Priority:        rule.Priority,
				Confidence:      matchConfidence,
			}
		}
	}

	return Result{
		Action:          enum.DispositionReview,
		RuleDescription: "no matching rule",
		Priority:        0,
		Confidence:      noMatchConfidence,
	}
}

// Add appends a rule to the collection.
func (e *Engine) Add(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Remove deletes the rule at index.
func (e *Engine) Remove(index int) bool {
	if index < 0 || index >= len(e.rules) {
		return false
	}
	e.rules = append(e.rules[:index], e.rules[index+1:]...)
	return true
}

func (e *Engine) Enable(index int) bool {
	return e.setEnabled(index, true)
}

func (e *Engine) Disable(index int) bool {
	return e.setEnabled(index, false)
}

func (e *Engine) setEnabled(index int, enabled bool) bool {
	if index < 0 || index >= len(e.rules) {
		return false
	}
	e.rules[index].Enabled = enabled
	return true
}

// Rules returns a copy of the rule list in insertion order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// ExportJSON serializes the rule list.
func (e *Engine) ExportJSON() ([]byte, error) {
	return json.Marshal(e.rules)
}

// ImportJSON replaces the rule list with the serialized one.
func (e *Engine) ImportJSON(data []byte) error {
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return err
	}
	e.rules = rules
	return nil
}

func defaultRules() []Rule {
	return []Rule{
		// conversations always survive
		NewBoolRule(enum.RuleIsConversation, true, enum.DispositionKeep, 100, "Keep conversations with replies"),

		// security and authentication
		NewPatternRule(enum.RuleSubjectContains, "verification code", enum.DispositionKeep, 98, "Keep verification codes"),
		NewPatternRule(enum.RuleSubjectContains, "2fa", enum.DispositionKeep, 98, "Keep 2FA messages"),
		NewPatternRule(enum.RuleSubjectContains, "two-factor", enum.DispositionKeep, 98, "Keep two-factor messages"),
		NewPatternRule(enum.RuleSubjectContains, "password reset", enum.DispositionKeep, 98, "Keep password resets"),
		NewPatternRule(enum.RuleSubjectContains, "security alert", enum.DispositionKeep, 98, "Keep security alerts"),
		NewPatternRule(enum.RuleSenderDomain, "interac.ca", enum.DispositionKeep, 98, "Keep e-transfer notifications"),

		// financial and records
		NewPatternRule(enum.RuleSubjectContains, "receipt", enum.DispositionKeep, 95, "Keep receipts"),
		NewPatternRule(enum.RuleSubjectContains, "invoice", enum.DispositionKeep, 95, "Keep invoices"),
		NewPatternRule(enum.RuleSubjectContains, "order confirmation", enum.DispositionKeep, 95, "Keep order confirmations"),
		NewPatternRule(enum.RuleSubjectContains, "e-transfer", enum.DispositionKeep, 95, "Keep e-transfers"),
		NewPatternRule(enum.RuleSubjectContains, "payment", enum.DispositionKeep, 95, "Keep payment notices"),
		NewPatternRule(enum.RuleSubjectContains, "transaction", enum.DispositionKeep, 95, "Keep transaction notices"),
		NewPatternRule(enum.RuleSubjectContains, "diploma", enum.DispositionKeep, 95, "Keep credentials"),
		NewPatternRule(enum.RuleSubjectContains, "certificate", enum.DispositionKeep, 95, "Keep certificates"),
		NewPatternRule(enum.RuleSubjectContains, "prescription", enum.DispositionKeep, 95, "Keep prescriptions"),
		NewPatternRule(enum.RuleSubjectContains, "lab results", enum.DispositionKeep, 95, "Keep lab results"),
		NewPatternRule(enum.RuleSenderDomain, ".gov", enum.DispositionKeep, 95, "Keep government mail"),

		NewPatternRule(enum.RuleSubjectContains, "sign-in", enum.DispositionKeep, 92, "Keep sign-in notices"),

		// appointments and health
		NewPatternRule(enum.RuleSubjectContains, "appointment", enum.DispositionKeep, 90, "Keep appointments"),
		NewPatternRule(enum.RuleSubjectContains, "reservation", enum.DispositionKeep, 90, "Keep reservations"),
		NewPatternRule(enum.RuleSubjectContains, "booking", enum.DispositionKeep, 90, "Keep bookings"),
		NewPatternRule(enum.RuleSubjectContains, "medical", enum.DispositionKeep, 90, "Keep medical mail"),
		NewPatternRule(enum.RuleSubjectContains, "doctor", enum.DispositionKeep, 90, "Keep doctor mail"),

		// low-priority cleanup targets
		NewPatternRule(enum.RuleCategory, "promotions", enum.DispositionDelete, 30, "Delete promotional mail"),
		NewPatternRule(enum.RuleSubjectContains, "% off", enum.DispositionDelete, 25, "Delete discount offers"),
		NewPatternRule(enum.RuleSubjectContains, "sale ends", enum.DispositionDelete, 25, "Delete sale countdowns"),
		NewPatternRule(enum.RuleSubjectContains, "limited time", enum.DispositionDelete, 25, "Delete limited-time offers"),
		NewPatternRule(enum.RuleCategory, "social", enum.DispositionReview, 25, "Review social notifications"),
		NewPatternRule(enum.RuleSubjectContains, "refer a friend", enum.DispositionDelete, 20, "Delete referral spam"),
		NewPatternRule(enum.RuleSubjectContains, "earn rewards", enum.DispositionDelete, 20, "Delete rewards spam"),
	}
}
