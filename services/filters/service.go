package filters

import (
	"context"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/models"
	"github.com/inboxpurge/inboxpurge/internal/tracing"
	"github.com/inboxpurge/inboxpurge/internal/utils"
)

const mutedLabelName = "Muted"

// FilterService creates Gmail filters that route future mail from muted
// senders out of the inbox into Muted/{domain} sublabels.
type FilterService struct {
	mailbox    interfaces.MailboxService
	senderRepo interfaces.SenderRepository
	log        logger.Logger

	mu         sync.Mutex
	labelCache map[string]string
}

func NewFilterService(mailbox interfaces.MailboxService, senderRepo interfaces.SenderRepository, log logger.Logger) *FilterService {
	return &FilterService{
		mailbox:    mailbox,
		senderRepo: senderRepo,
		log:        log,
		labelCache: make(map[string]string),
	}
}

// MuteSender ensures a skip-inbox filter exists for the sender. An
// already existing filter counts as success.
func (s *FilterService) MuteSender(ctx context.Context, sender *models.Sender) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FilterService.MuteSender")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagSender(span, sender.Email)

	existingID, err := s.mailbox.FindFilterBySender(ctx, sender.Email)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "look up existing filter")
	}
	if existingID != "" {
		return existingID, s.recordFilter(ctx, sender, existingID)
	}

	labelID, err := s.domainLabel(ctx, utils.ExtractDomainFromEmail(sender.Email))
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	filterID, err := s.mailbox.CreateFilter(ctx, interfaces.FilterSpec{
		FromAddress: sender.Email,
		SkipInbox:   true,
		MarkAsRead:  true,
		AddLabelIDs: []string{labelID},
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "create filter")
	}

	return filterID, s.recordFilter(ctx, sender, filterID)
}

// RemoveFilter deletes a previously created mute filter.
func (s *FilterService) RemoveFilter(ctx context.Context, filterID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FilterService.RemoveFilter")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if err := s.mailbox.DeleteFilter(ctx, filterID); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "delete filter")
	}
	return nil
}

// domainLabel resolves Muted/{domain}, creating the parent label first
// so Gmail renders it as a nested label.
func (s *FilterService) domainLabel(ctx context.Context, domain string) (string, error) {
	labelName := mutedLabelName + "/" + domain

	s.mu.Lock()
	if id, ok := s.labelCache[labelName]; ok {
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	if _, err := s.mailbox.GetOrCreateLabel(ctx, mutedLabelName); err != nil {
		return "", errors.Wrap(err, "ensure parent label")
	}
	id, err := s.mailbox.GetOrCreateLabel(ctx, labelName)
	if err != nil {
		return "", errors.Wrapf(err, "ensure label %s", labelName)
	}

	s.mu.Lock()
	s.labelCache[labelName] = id
	s.mu.Unlock()

	return id, nil
}

func (s *FilterService) recordFilter(ctx context.Context, sender *models.Sender, filterID string) error {
	if err := s.senderRepo.MarkFilterCreated(ctx, sender.ID, filterID); err != nil {
		return errors.Wrap(err, "mark filter created")
	}
	sender.FilterCreated = true
	sender.FilterID = filterID
	return nil
}
