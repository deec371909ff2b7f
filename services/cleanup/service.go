package cleanup

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/config"
	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/models"
	"github.com/inboxpurge/inboxpurge/internal/tracing"
	"github.com/inboxpurge/inboxpurge/internal/utils"
	"github.com/inboxpurge/inboxpurge/services/gmail"
	"github.com/inboxpurge/inboxpurge/services/retention"
	"github.com/inboxpurge/inboxpurge/services/safety"
	"github.com/inboxpurge/inboxpurge/services/scoring"
)

// DeletionResult summarizes one per-sender cleanup pass.
type DeletionResult struct {
	Deleted    int
	Preserved  int
	BytesFreed int64
}

// CleanupService trashes a sender's aged messages. Every message passes
// the full decision chain right before deletion: guardrail, retention
// rules, multi-signal scoring, then LLM refinement for anything left
// uncertain. Conversations are always preserved.
type CleanupService struct {
	mailbox         interfaces.MailboxService
	guardrail       *safety.GuardrailService
	rules           *retention.Engine
	scorer          *scoring.Scorer
	refiner         *scoring.Refiner
	classifications interfaces.ClassificationRepository
	cfg             *config.CleanupPolicyConfig
	log             logger.Logger

	mu          sync.Mutex
	threadCache map[string]*interfaces.ThreadInfo
}

func NewCleanupService(
	mailbox interfaces.MailboxService,
	guardrail *safety.GuardrailService,
	rules *retention.Engine,
	scorer *scoring.Scorer,
	refiner *scoring.Refiner,
	classifications interfaces.ClassificationRepository,
	cfg *config.CleanupPolicyConfig,
	log logger.Logger,
) *CleanupService {
	return &CleanupService{
		mailbox:         mailbox,
		guardrail:       guardrail,
		rules:           rules,
		scorer:          scorer,
		refiner:         refiner,
		classifications: classifications,
		cfg:             cfg,
		log:             log,
		threadCache:     make(map[string]*interfaces.ThreadInfo),
	}
}

// DeleteSenderEmails trashes messages from senderEmail older than
// ageDays, skipping anything protected or classified KEEP.
func (s *CleanupService) DeleteSenderEmails(ctx context.Context, senderEmail string, ageDays int) (*DeletionResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CleanupService.DeleteSenderEmails")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagSender(span, senderEmail)

	query := fmt.Sprintf("from:%s older_than:%dd", senderEmail, ageDays)
	messages, err := s.mailbox.ListMessageIDs(ctx, query, int64(s.cfg.MaxMessagesPerQuery))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "list messages from %s", senderEmail)
	}

	result := &DeletionResult{}
	if len(messages) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.Id)
	}
	metadata, err := s.mailbox.BatchGetMetadata(ctx, ids)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "fetch message metadata")
	}

	var deletable []string
	sizes := make(map[string]int64, len(metadata))
	var uncertain []*scoring.MessageVerdict

	for _, msg := range metadata {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sizes[msg.Id] = gmail.MessageSizeEstimate(msg)

		verdict, err := s.decide(ctx, senderEmail, msg)
		if err != nil {
			tracing.TraceErr(span, err)
			s.log.Warnf("Preserving message %s after decision failure: %v", msg.Id, err)
			result.Preserved++
			continue
		}

		switch verdict.Disposition {
		case enum.DispositionDelete:
			deletable = append(deletable, msg.Id)
			s.cacheVerdict(ctx, verdict)
		case enum.DispositionUncertain:
			uncertain = append(uncertain, verdict)
		default:
			result.Preserved++
			s.cacheVerdict(ctx, verdict)
		}
	}

	if len(uncertain) > 0 {
		s.refiner.RefineUncertain(ctx, uncertain)
		for _, verdict := range uncertain {
			if verdict.Disposition == enum.DispositionDelete {
				deletable = append(deletable, verdict.MessageID)
			} else {
				result.Preserved++
			}
			s.cacheVerdict(ctx, verdict)
		}
	}

	if len(deletable) > 0 {
		deleted, err := s.mailbox.TrashMessages(ctx, deletable)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, errors.Wrap(err, "trash messages")
		}
		result.Deleted = deleted
		for _, id := range deletable {
			result.BytesFreed += sizes[id]
		}
	}

	span.LogKV("deleted", result.Deleted, "preserved", result.Preserved)
	return result, nil
}

// decide runs the decision chain for one message. Guardrail and
// conversation checks are absolute; retention rules decide when one
// matches; the scorer breaks the remaining ties.
func (s *CleanupService) decide(ctx context.Context, senderEmail string, msg *gmailv1.Message) (*scoring.MessageVerdict, error) {
	subject := gmail.HeaderValue(msg, "Subject")
	verdict := &scoring.MessageVerdict{
		MessageID:   msg.Id,
		ThreadID:    msg.ThreadId,
		SenderEmail: senderEmail,
		Subject:     subject,
		Category:    categoryFromLabels(msg.LabelIds),
	}

	if protected, reason, detail := s.guardrail.IsMessageProtected(ctx, senderEmail, subject, msg.Snippet); protected {
		verdict.Disposition = enum.DispositionKeep
		verdict.Confidence = 1
		verdict.Reasoning = "Protected: " + reason.String() + " (" + detail + ")"
		return verdict, nil
	}

	isConversation, err := s.isConversation(ctx, msg.ThreadId)
	if err != nil {
		return nil, err
	}
	if isConversation {
		verdict.Disposition = enum.DispositionKeep
		verdict.Confidence = 1
		verdict.Reasoning = "Conversation threads are always preserved"
		return verdict, nil
	}

	if cached := s.cachedVerdict(ctx, msg.Id); cached != nil {
		return cached, nil
	}

	ruleResult := s.rules.Evaluate(retention.EmailFacts{
		SenderEmail:    senderEmail,
		SenderDomain:   utils.ExtractDomainFromEmail(senderEmail),
		Subject:        subject,
		Labels:         msg.LabelIds,
		IsConversation: isConversation,
		Category:       verdict.Category,
		Date:           time.UnixMilli(msg.InternalDate),
	})
	if ruleResult.Action == enum.DispositionKeep || ruleResult.Action == enum.DispositionDelete {
		verdict.Disposition = ruleResult.Action
		verdict.Confidence = float64(ruleResult.Confidence) / 100.0
		verdict.Reasoning = "Rule: " + ruleResult.RuleDescription
		return verdict, nil
	}

	return s.scorer.ScoreMessage(ctx, msg), nil
}

// cachedVerdict reuses an earlier classification for the message. A user
// override always wins over the stored verdict.
func (s *CleanupService) cachedVerdict(ctx context.Context, messageID string) *scoring.MessageVerdict {
	cached, err := s.classifications.GetByMessageID(ctx, messageID)
	if err != nil || cached == nil {
		return nil
	}

	disposition := cached.Classification
	if cached.UserOverride != "" {
		disposition = enum.Disposition(cached.UserOverride)
	}
	if disposition != enum.DispositionKeep && disposition != enum.DispositionDelete {
		return nil
	}
	return &scoring.MessageVerdict{
		MessageID:   cached.MessageID,
		SenderEmail: cached.SenderEmail,
		Subject:     cached.Subject,
		Disposition: disposition,
		Confidence:  cached.Confidence,
		Reasoning:   cached.Reasoning,
		Category:    cached.Category,
	}
}

func (s *CleanupService) cacheVerdict(ctx context.Context, verdict *scoring.MessageVerdict) {
	err := s.classifications.Upsert(ctx, &models.EmailClassification{
		MessageID:      verdict.MessageID,
		SenderEmail:    verdict.SenderEmail,
		Subject:        verdict.Subject,
		Classification: verdict.Disposition,
		Category:       verdict.Category,
		Confidence:     verdict.Confidence,
		Reasoning:      verdict.Reasoning,
		ProcessedAt:    time.Now().UTC(),
	})
	if err != nil {
		s.log.Warnf("Failed to cache classification for %s: %v", verdict.MessageID, err)
	}
}

func (s *CleanupService) isConversation(ctx context.Context, threadID string) (bool, error) {
	s.mu.Lock()
	info, ok := s.threadCache[threadID]
	s.mu.Unlock()
	if !ok {
		var err error
		info, err = s.mailbox.GetThreadInfo(ctx, threadID)
		if err != nil {
			return false, err
		}
		s.mu.Lock()
		s.threadCache[threadID] = info
		s.mu.Unlock()
	}
	return info.MessageCount > 1 && (info.ParticipantCount > 1 || info.UserReplied), nil
}

func categoryFromLabels(labelIDs []string) string {
	for _, labelID := range labelIDs {
		if strings.HasPrefix(labelID, "CATEGORY_") {
			return strings.ToLower(strings.TrimPrefix(labelID, "CATEGORY_"))
		}
	}
	return ""
}
