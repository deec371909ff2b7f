package discovery

import (
	"context"
	"fmt"
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
)

const (
	metadataBatchSize  = 100
	interBatchDelay    = 100 * time.Millisecond
	defaultDiscoverCap = 10000
)

// Search queries that surface bulk senders. The overall message cap is
// split evenly across them.
var discoveryQueries = []string{
	"category:promotions",
	"category:social",
	"category:updates",
	"has:unsubscribe",
	"from:noreply",
	"from:no-reply",
	"from:donotreply",
	"from:newsletter",
	"from:marketing",
}

type senderAggregate struct {
	email       string
	displayName string
	count       int
	unsubscribe *interfaces.UnsubscribeInfo
}

// DiscoveryService sweeps the mailbox for bulk senders and records them
// in the sender table.
type DiscoveryService struct {
	mailbox    interfaces.MailboxService
	senderRepo interfaces.SenderRepository
	log        logger.Logger
	messageCap int64
}

func NewDiscoveryService(mailbox interfaces.MailboxService, senderRepo interfaces.SenderRepository, cfg *config.CleanupPolicyConfig, log logger.Logger) *DiscoveryService {
	messageCap := int64(defaultDiscoverCap)
	if cfg != nil && cfg.MaxMessagesPerQuery > 0 {
		messageCap = int64(cfg.MaxMessagesPerQuery)
	}
	return &DiscoveryService{
		mailbox:    mailbox,
		senderRepo: senderRepo,
		log:        log,
		messageCap: messageCap,
	}
}

// DiscoverSenders runs a full sweep across all discovery queries.
func (s *DiscoveryService) DiscoverSenders(ctx context.Context) (int, error) {
	return s.discover(ctx, "")
}

// DiscoverNewSenders limits the sweep to messages received in the last
// daysBack days.
func (s *DiscoveryService) DiscoverNewSenders(ctx context.Context, daysBack int) (int, error) {
	if daysBack <= 0 {
		return 0, errors.New("daysBack must be positive")
	}
	return s.discover(ctx, fmt.Sprintf(" newer_than:%dd", daysBack))
}

func (s *DiscoveryService) discover(ctx context.Context, querySuffix string) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DiscoveryService.discover")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	perQuery := s.messageCap / int64(len(discoveryQueries))
	aggregates := make(map[string]*senderAggregate)

	for _, query := range discoveryQueries {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		messages, err := s.mailbox.ListMessageIDs(ctx, query+querySuffix, perQuery)
		if err != nil {
			tracing.TraceErr(span, err)
			return 0, errors.Wrapf(err, "list messages for query %q", query)
		}
		if len(messages) == 0 {
			continue
		}

		ids := make([]string, 0, len(messages))
		for _, msg := range messages {
			ids = append(ids, msg.Id)
		}

		for start := 0; start < len(ids); start += metadataBatchSize {
			end := start + metadataBatchSize
			if end > len(ids) {
				end = len(ids)
			}

			metadata, err := s.mailbox.BatchGetMetadata(ctx, ids[start:end])
			if err != nil {
				tracing.TraceErr(span, err)
				return 0, errors.Wrap(err, "fetch message metadata")
			}
			for _, msg := range metadata {
				s.aggregate(aggregates, msg)
			}

			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(interBatchDelay):
			}
		}
	}

	saved := 0
	for _, agg := range aggregates {
		if err := s.upsertSender(ctx, agg); err != nil {
			tracing.TraceErr(span, err)
			s.log.Warnf("Failed to save sender %s: %v", agg.email, err)
			continue
		}
		saved++
	}

	s.log.Infof("Discovery finished: %d senders recorded", saved)
	span.LogKV("senders.saved", saved)
	return saved, nil
}

func (s *DiscoveryService) aggregate(aggregates map[string]*senderAggregate, msg *gmailv1.Message) {
	displayName, email := gmail.ParseSenderHeader(gmail.HeaderValue(msg, "From"))
	if email == "" {
		return
	}

	agg, ok := aggregates[email]
	if !ok {
		agg = &senderAggregate{email: email}
		aggregates[email] = agg
	}
	agg.count++
	if agg.displayName == "" {
		agg.displayName = displayName
	}
	if agg.unsubscribe == nil {
		agg.unsubscribe = gmail.ParseListUnsubscribe(
			gmail.HeaderValue(msg, "List-Unsubscribe"),
			gmail.HeaderValue(msg, "List-Unsubscribe-Post"))
	}
}

func (s *DiscoveryService) upsertSender(ctx context.Context, agg *senderAggregate) error {
	now := time.Now().UTC()
	sender := &models.Sender{
		Email:        agg.email,
		Domain:       utils.ExtractDomainFromEmail(agg.email),
		DisplayName:  agg.displayName,
		MessageCount: agg.count,
		LastSeenAt:   now,
	}
	if agg.unsubscribe != nil {
		sender.HasListUnsubscribe = true
		sender.UnsubscribeHeader = unsubscribeHeaderMap(agg.unsubscribe)
		sender.UnsubscribeMethod = preferredMethod(agg.unsubscribe)
	}
	return s.senderRepo.Upsert(ctx, sender)
}

// Stats reports sender table aggregates.
func (s *DiscoveryService) Stats(ctx context.Context) (*interfaces.SenderStats, error) {
	return s.senderRepo.Stats(ctx)
}

// preferredMethod picks mailto over HTTP: mailto unsubscribes need no
// external request and succeed more reliably.
func preferredMethod(info *interfaces.UnsubscribeInfo) enum.UnsubscribeMethod {
	if info.MailtoAddress != "" {
		return enum.UnsubscribeMethodMailto
	}
	if info.OneClick {
		return enum.UnsubscribeMethodOneClick
	}
	return enum.UnsubscribeMethodHTTP
}

func unsubscribeHeaderMap(info *interfaces.UnsubscribeInfo) models.JSONMap {
	header := models.JSONMap{}
	if info.MailtoAddress != "" {
		header["mailto_address"] = info.MailtoAddress
	}
	if info.MailtoSubject != "" {
		header["mailto_subject"] = info.MailtoSubject
	}
	if info.MailtoBody != "" {
		header["mailto_body"] = info.MailtoBody
	}
	if info.HTTPURL != "" {
		header["http_url"] = info.HTTPURL
	}
	if info.OneClick {
		header["one_click"] = true
	}
	return header
}
