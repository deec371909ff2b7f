package gmail

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/tracing"
)

// CreateFilter creates a server-side filter and returns its id.
func (s *gmailService) CreateFilter(ctx context.Context, spec interfaces.FilterSpec) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gmailService.CreateFilter")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagSender(span, spec.FromAddress)

	action := &gmailv1.FilterAction{
		AddLabelIds: spec.AddLabelIDs,
	}
	if spec.SkipInbox {
		action.RemoveLabelIds = append(action.RemoveLabelIds, "INBOX")
	}
	if spec.MarkAsRead {
		action.RemoveLabelIds = append(action.RemoveLabelIds, "UNREAD")
	}

	var filter *gmailv1.Filter
	err := s.withRetry(ctx, mutationAttempts, func() error {
		var callErr error
		filter, callErr = s.client.Users.Settings.Filters.Create(s.userID, &gmailv1.Filter{
			Criteria: &gmailv1.FilterCriteria{From: spec.FromAddress},
			Action:   action,
		}).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "create filter")
	}

	return filter.Id, nil
}

// FindFilterBySender returns the id of an existing filter with a matching
// from: criteria, or empty string when none exists.
func (s *gmailService) FindFilterBySender(ctx context.Context, fromAddress string) (string, error) {
	var resp *gmailv1.ListFiltersResponse
	err := s.withRetry(ctx, readAttempts, func() error {
		var callErr error
		resp, callErr = s.client.Users.Settings.Filters.List(s.userID).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return "", errors.Wrap(err, "list filters")
	}

	for _, filter := range resp.Filter {
		if filter.Criteria != nil && filter.Criteria.From == fromAddress {
			return filter.Id, nil
		}
	}

	return "", nil
}

func (s *gmailService) DeleteFilter(ctx context.Context, filterID string) error {
	err := s.withRetry(ctx, mutationAttempts, func() error {
		return s.client.Users.Settings.Filters.Delete(s.userID, filterID).Context(ctx).Do()
	})
	if err != nil {
		return errors.Wrapf(err, "delete filter %s", filterID)
	}

	return nil
}

// GetOrCreateLabel resolves a label name to its id, creating it on first use.
func (s *gmailService) GetOrCreateLabel(ctx context.Context, name string) (string, error) {
	var resp *gmailv1.ListLabelsResponse
	err := s.withRetry(ctx, readAttempts, func() error {
		var callErr error
		resp, callErr = s.client.Users.Labels.List(s.userID).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return "", errors.Wrap(err, "list labels")
	}

	for _, label := range resp.Labels {
		if label.Name == name {
			return label.Id, nil
		}
	}

	var created *gmailv1.Label
	err = s.withRetry(ctx, mutationAttempts, func() error {
		var callErr error
		created, callErr = s.client.Users.Labels.Create(s.userID, &gmailv1.Label{
			Name:                  name,
			LabelListVisibility:   "labelShow",
			MessageListVisibility: "show",
		}).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return "", errors.Wrapf(err, "create label %s", name)
	}

	return created.Id, nil
}
