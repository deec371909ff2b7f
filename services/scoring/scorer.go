package scoring

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/opentracing/opentracing-go"
	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/tracing"
	"github.com/inboxpurge/inboxpurge/services/gmail"
)

const (
	keepThreshold   = 30
	deleteThreshold = 70
)

// MessageVerdict is the per-message outcome of multi-signal scoring.
type MessageVerdict struct {
	MessageID   string
	ThreadID    string
	SenderEmail string
	Subject     string
	Disposition enum.Disposition
	Score       int
	Confidence  float64
	Reasoning   string
	Category    string
}

type signal struct {
	name   string
	weight int
}

// Scorer derives a KEEP/DELETE/UNCERTAIN verdict from message metadata.
// Thread lookups go through the mailbox and are cached per scorer instance.
type Scorer struct {
	mailbox interfaces.MailboxService
	log     logger.Logger

	mu          sync.Mutex
	threadCache map[string]*interfaces.ThreadInfo
}

func NewScorer(mailbox interfaces.MailboxService, log logger.Logger) *Scorer {
	return &Scorer{
		mailbox:     mailbox,
		log:         log,
		threadCache: make(map[string]*interfaces.ThreadInfo),
	}
}

// ScoreMessage never fails: when a signal cannot be computed the verdict
// degrades to UNCERTAIN at score 50 with zero confidence.
func (s *Scorer) ScoreMessage(ctx context.Context, msg *gmailv1.Message) *MessageVerdict {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Scorer.ScoreMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	_, senderEmail := gmail.ParseSenderHeader(gmail.HeaderValue(msg, "From"))
	verdict := &MessageVerdict{
		MessageID:   msg.Id,
		ThreadID:    msg.ThreadId,
		SenderEmail: senderEmail,
		Subject:     gmail.HeaderValue(msg, "Subject"),
		Category:    categoryLabel(msg.LabelIds),
	}

	signals, err := s.collectSignals(ctx, msg)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("Scoring fell back to uncertain for message %s: %v", msg.Id, err)
		verdict.Disposition = enum.DispositionUncertain
		verdict.Score = 50
		verdict.Confidence = 0
		verdict.Reasoning = "Classification: UNCERTAIN (score: 50/100). Signal collection failed"
		return verdict
	}

	total := 0
	for _, sig := range signals {
		total += sig.weight
	}
	verdict.Score = normalizeScore(total)
	verdict.Disposition, verdict.Confidence = classify(verdict.Score)
	verdict.Reasoning = buildReasoning(verdict.Disposition, verdict.Score, signals)

	return verdict
}

func (s *Scorer) collectSignals(ctx context.Context, msg *gmailv1.Message) ([]signal, error) {
	var signals []signal

	if w := categoryWeight(msg.LabelIds); w != 0 {
		signals = append(signals, signal{"gmail category", w})
	}

	if gmail.HeaderValue(msg, "List-Unsubscribe") != "" {
		signals = append(signals, signal{"list-unsubscribe header", 15})
	}
	switch precedence := strings.ToLower(gmail.HeaderValue(msg, "Precedence")); precedence {
	case "bulk", "list", "junk":
		signals = append(signals, signal{"bulk precedence", 10})
	case "normal":
		signals = append(signals, signal{"normal precedence", -5})
	}

	threadInfo, err := s.threadInfo(ctx, msg.ThreadId)
	if err != nil {
		return nil, err
	}

	engaged := false
	if threadInfo.UserReplied {
		signals = append(signals, signal{"user replied in thread", -25})
		engaged = true
	}
	if hasLabel(msg.LabelIds, "STARRED") {
		signals = append(signals, signal{"starred", -15})
		engaged = true
	}
	if hasLabel(msg.LabelIds, "IMPORTANT") {
		signals = append(signals, signal{"marked important", -10})
		engaged = true
	}
	if !engaged {
		signals = append(signals, signal{"no engagement", 10})
	}

	// keywords match against the subject and the snippet together
	text := strings.ToLower(gmail.HeaderValue(msg, "Subject") + " " + msg.Snippet)
	matchedImportant := false
	for _, keyword := range importantKeywords {
		if strings.Contains(text, keyword) {
			signals = append(signals, signal{fmt.Sprintf("important keyword %q", keyword), -20})
			matchedImportant = true
			break
		}
	}
	if !matchedImportant {
		for _, keyword := range commercialKeywords {
			if strings.Contains(text, keyword) {
				signals = append(signals, signal{fmt.Sprintf("commercial keyword %q", keyword), 15})
				break
			}
		}
	}

	if threadInfo.MessageCount > 1 && threadInfo.ParticipantCount > 1 {
		signals = append(signals, signal{"active conversation", -20})
	} else if threadInfo.MessageCount == 1 && threadInfo.ParticipantCount == 1 {
		signals = append(signals, signal{"one-way broadcast", 10})
	}

	return signals, nil
}

func (s *Scorer) threadInfo(ctx context.Context, threadID string) (*interfaces.ThreadInfo, error) {
	s.mu.Lock()
	if cached, ok := s.threadCache[threadID]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	info, err := s.mailbox.GetThreadInfo(ctx, threadID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.threadCache[threadID] = info
	s.mu.Unlock()

	return info, nil
}

// normalizeScore maps the raw signal sum from [-100, 100] onto [0, 100].
func normalizeScore(total int) int {
	score := int((float64(total+100) / 200.0) * 100.0)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func classify(score int) (enum.Disposition, float64) {
	switch {
	case score < keepThreshold:
		confidence := float64(keepThreshold-score) / float64(keepThreshold)
		if confidence > 1 {
			confidence = 1
		}
		return enum.DispositionKeep, confidence
	case score >= deleteThreshold:
		confidence := float64(score-deleteThreshold) / float64(100-deleteThreshold)
		if confidence > 1 {
			confidence = 1
		}
		return enum.DispositionDelete, confidence
	default:
		distance := score - keepThreshold
		if deleteThreshold-score < distance {
			distance = deleteThreshold - score
		}
		return enum.DispositionUncertain, float64(distance) / 20.0
	}
}

func buildReasoning(disposition enum.Disposition, score int, signals []signal) string {
	reasoning := fmt.Sprintf("Classification: %s (score: %d/100)", disposition, score)
	if len(signals) == 0 {
		return reasoning
	}

	sorted := make([]signal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return abs(sorted[i].weight) > abs(sorted[j].weight)
	})
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}

	parts := make([]string, 0, len(sorted))
	for _, sig := range sorted {
		parts = append(parts, fmt.Sprintf("%s (%+d)", sig.name, sig.weight))
	}
	return reasoning + ". Top signals: " + strings.Join(parts, ", ")
}

func categoryWeight(labelIDs []string) int {
	for _, labelID := range labelIDs {
		switch labelID {
		case "CATEGORY_PROMOTIONS", "CATEGORY_SOCIAL", "CATEGORY_UPDATES":
			return 30
		case "CATEGORY_FORUMS":
			return 25
		case "CATEGORY_PERSONAL":
			return -30
		}
	}
	// IMPORTANT only counts here when no CATEGORY_* label decides first.
	if hasLabel(labelIDs, "IMPORTANT") {
		return -30
	}
	return 0
}

func categoryLabel(labelIDs []string) string {
	for _, labelID := range labelIDs {
		if strings.HasPrefix(labelID, "CATEGORY_") {
			return strings.ToLower(strings.TrimPrefix(labelID, "CATEGORY_"))
		}
	}
	return ""
}

func hasLabel(labelIDs []string, label string) bool {
	for _, labelID := range labelIDs {
		if labelID == label {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
