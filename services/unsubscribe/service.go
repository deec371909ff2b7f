package unsubscribe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/models"
	"github.com/inboxpurge/inboxpurge/internal/tracing"
)

const (
	defaultSubject = "Unsubscribe"
	httpTimeout    = 10 * time.Second
)

// UnsubscribeService executes List-Unsubscribe requests. Mailto targets
// are tried first, then RFC 8058 one-click POST, then a plain GET.
type UnsubscribeService struct {
	mailbox    interfaces.MailboxService
	senderRepo interfaces.SenderRepository
	httpClient *http.Client
	log        logger.Logger
}

func NewUnsubscribeService(mailbox interfaces.MailboxService, senderRepo interfaces.SenderRepository, log logger.Logger) *UnsubscribeService {
	return &UnsubscribeService{
		mailbox:    mailbox,
		senderRepo: senderRepo,
		httpClient: &http.Client{Timeout: httpTimeout},
		log:        log,
	}
}

// Unsubscribe attempts every advertised mechanism for the sender and
// records the one that worked. Returns the method used.
func (s *UnsubscribeService) Unsubscribe(ctx context.Context, sender *models.Sender) (enum.UnsubscribeMethod, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "UnsubscribeService.Unsubscribe")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagSender(span, sender.Email)

	info := unsubscribeInfoFromHeader(sender.UnsubscribeHeader)
	if info == nil {
		return "", errors.Errorf("sender %s has no unsubscribe mechanism", sender.Email)
	}

	var lastErr error
	if info.MailtoAddress != "" {
		if err := s.unsubscribeByMail(ctx, info); err != nil {
			tracing.TraceErr(span, err)
			s.log.Warnf("Mailto unsubscribe failed for %s: %v", sender.Email, err)
			lastErr = err
		} else {
			return s.recordSuccess(ctx, sender, enum.UnsubscribeMethodMailto)
		}
	}

	if info.HTTPURL != "" && info.OneClick {
		if err := s.unsubscribeOneClick(ctx, info.HTTPURL); err != nil {
			tracing.TraceErr(span, err)
			s.log.Warnf("One-click unsubscribe failed for %s: %v", sender.Email, err)
			lastErr = err
		} else {
			return s.recordSuccess(ctx, sender, enum.UnsubscribeMethodOneClick)
		}
	}

	if info.HTTPURL != "" {
		if err := s.unsubscribeByGet(ctx, info.HTTPURL); err != nil {
			tracing.TraceErr(span, err)
			s.log.Warnf("HTTP unsubscribe failed for %s: %v", sender.Email, err)
			lastErr = err
		} else {
			return s.recordSuccess(ctx, sender, enum.UnsubscribeMethodHTTP)
		}
	}

	if lastErr == nil {
		lastErr = errors.Errorf("sender %s has no usable unsubscribe target", sender.Email)
	}
	return "", lastErr
}

func (s *UnsubscribeService) unsubscribeByMail(ctx context.Context, info *interfaces.UnsubscribeInfo) error {
	subject := info.MailtoSubject
	if subject == "" {
		subject = defaultSubject
	}

	body := info.MailtoBody
	if body == "" {
		profileEmail, err := s.mailbox.Profile(ctx)
		if err != nil {
			return errors.Wrap(err, "resolve own address")
		}
		body = fmt.Sprintf("Please unsubscribe %s from this mailing list.", profileEmail)
	}

	return s.mailbox.SendMessage(ctx, info.MailtoAddress, subject, body)
}

func (s *UnsubscribeService) unsubscribeOneClick(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url,
		strings.NewReader("List-Unsubscribe=One-Click"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.doRequest(req)
}

func (s *UnsubscribeService) unsubscribeByGet(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return s.doRequest(req)
}

func (s *UnsubscribeService) doRequest(req *http.Request) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errors.Errorf("unsubscribe endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (s *UnsubscribeService) recordSuccess(ctx context.Context, sender *models.Sender, method enum.UnsubscribeMethod) (enum.UnsubscribeMethod, error) {
	if err := s.senderRepo.MarkUnsubscribed(ctx, sender.ID, method); err != nil {
		return method, errors.Wrap(err, "mark sender unsubscribed")
	}
	sender.Unsubscribed = true
	sender.UnsubscribeMethod = method
	return method, nil
}

func unsubscribeInfoFromHeader(header models.JSONMap) *interfaces.UnsubscribeInfo {
	if len(header) == 0 {
		return nil
	}

	info := &interfaces.UnsubscribeInfo{}
	if v, ok := header["mailto_address"].(string); ok {
		info.MailtoAddress = v
	}
	if v, ok := header["mailto_subject"].(string); ok {
		info.MailtoSubject = v
	}
	if v, ok := header["mailto_body"].(string); ok {
		info.MailtoBody = v
	}
	if v, ok := header["http_url"].(string); ok {
		info.HTTPURL = v
	}
	if v, ok := header["one_click"].(bool); ok {
		info.OneClick = v
	}
	if info.MailtoAddress == "" && info.HTTPURL == "" {
		return nil
	}
	return info
}
