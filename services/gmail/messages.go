package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/tracing"
)

var metadataHeaders = []string{
	"From", "Subject", "Date", "List-Unsubscribe", "List-Unsubscribe-Post", "Precedence",
}

// ListMessageIDs pages through the query results up to maxResults. The
// returned messages carry id and threadId only.
func (s *gmailService) ListMessageIDs(ctx context.Context, query string, maxResults int64) ([]*gmailv1.Message, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gmailService.ListMessageIDs")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("query", query, "maxResults", maxResults)

	var messages []*gmailv1.Message
	pageToken := ""

	for {
		select {
		case <-ctx.Done():
			return messages, ctx.Err()
		default:
		}

		pageSize := int64(listPageSize)
		if remaining := maxResults - int64(len(messages)); remaining < pageSize {
			pageSize = remaining
		}
		if pageSize <= 0 {
			break
		}

		var resp *gmailv1.ListMessagesResponse
		err := s.withRetry(ctx, readAttempts, func() error {
			call := s.client.Users.Messages.List(s.userID).Q(query).MaxResults(pageSize).Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var callErr error
			resp, callErr = call.Do()
			return callErr
		})
		if err != nil {
			tracing.TraceErr(span, err)
			return messages, errors.Wrap(err, "list messages")
		}

		messages = append(messages, resp.Messages...)

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	span.LogKV("result.count", len(messages))
	return messages, nil
}

func (s *gmailService) GetMessage(ctx context.Context, id string, format string) (*gmailv1.Message, error) {
	var msg *gmailv1.Message
	err := s.withRetry(ctx, readAttempts, func() error {
		call := s.client.Users.Messages.Get(s.userID, id).Format(format).Context(ctx)
		if format == "metadata" {
			call = call.MetadataHeaders(metadataHeaders...)
		}
		var callErr error
		msg, callErr = call.Do()
		return callErr
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get message %s", id)
	}

	return msg, nil
}

// BatchGetMetadata fetches metadata for many messages, chunked to the
// provider batch maximum and fetched concurrently within each chunk.
// A failed item is logged and skipped, never aborting the chunk.
func (s *gmailService) BatchGetMetadata(ctx context.Context, ids []string) ([]*gmailv1.Message, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gmailService.BatchGetMetadata")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("ids.count", len(ids))

	var mu sync.Mutex
	messages := make([]*gmailv1.Message, 0, len(ids))

	for start := 0; start < len(ids); start += batchGetChunkSize {
		select {
		case <-ctx.Done():
			return messages, ctx.Err()
		default:
		}

		end := start + batchGetChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(batchConcurrency)

		for _, id := range chunk {
			id := id
			g.Go(func() error {
				msg, err := s.GetMessage(gctx, id, "metadata")
				if err != nil {
					s.log.Warnf("Skipping message %s: %v", id, err)
					return nil
				}
				mu.Lock()
				messages = append(messages, msg)
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			tracing.TraceErr(span, err)
			return messages, err
		}
	}

	span.LogKV("result.count", len(messages))
	return messages, nil
}

// TrashMessages adds the TRASH label in bulk chunks. Only an aggregate
// count is reported; per-message errors are not visible at this level.
func (s *gmailService) TrashMessages(ctx context.Context, ids []string) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gmailService.TrashMessages")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("ids.count", len(ids))

	trashed := 0
	for start := 0; start < len(ids); start += batchModifyMaxSize {
		select {
		case <-ctx.Done():
			return trashed, ctx.Err()
		default:
		}

		end := start + batchModifyMaxSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		err := s.withRetry(ctx, mutationAttempts, func() error {
			return s.client.Users.Messages.BatchModify(s.userID, &gmailv1.BatchModifyMessagesRequest{
				Ids:         chunk,
				AddLabelIds: []string{"TRASH"},
			}).Context(ctx).Do()
		})
		if err != nil {
			tracing.TraceErr(span, err)
			return trashed, errors.Wrap(err, "batch trash")
		}

		trashed += len(chunk)
	}

	return trashed, nil
}

// SendMessage sends a plain-text message from the account owner.
func (s *gmailService) SendMessage(ctx context.Context, to, subject, body string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gmailService.SendMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	raw := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s", to, subject, body)
	encoded := base64.URLEncoding.EncodeToString([]byte(raw))

	err := s.withRetry(ctx, mutationAttempts, func() error {
		_, sendErr := s.client.Users.Messages.Send(s.userID, &gmailv1.Message{Raw: encoded}).Context(ctx).Do()
		return sendErr
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "send message")
	}

	return nil
}

// GetThreadInfo summarizes a thread for scoring: message count, distinct
// participants and whether the account owner replied.
func (s *gmailService) GetThreadInfo(ctx context.Context, threadID string) (*interfaces.ThreadInfo, error) {
	ownEmail, err := s.Profile(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "resolve profile")
	}

	var thread *gmailv1.Thread
	err = s.withRetry(ctx, readAttempts, func() error {
		var callErr error
		thread, callErr = s.client.Users.Threads.Get(s.userID, threadID).
			Format("metadata").MetadataHeaders("From").Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get thread %s", threadID)
	}

	participants := make(map[string]struct{})
	userReplied := false
	for _, msg := range thread.Messages {
		from := HeaderValue(msg, "From")
		_, address := ParseSenderHeader(from)
		if address == "" {
			continue
		}
		participants[address] = struct{}{}
		if address == ownEmail {
			userReplied = true
		}
	}

	return &interfaces.ThreadInfo{
		ThreadID:         threadID,
		MessageCount:     len(thread.Messages),
		ParticipantCount: len(participants),
		UserReplied:      userReplied,
	}, nil
}
