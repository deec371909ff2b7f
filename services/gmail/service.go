package gmail

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/config"
	"github.com/inboxpurge/inboxpurge/internal/logger"
)

const (
	listPageSize       = 500
	batchGetChunkSize  = 100
	batchModifyMaxSize = 1000
	batchConcurrency   = 10

	readAttempts     = 5
	mutationAttempts = 3

	backoffMin = 2 * time.Second
	backoffMax = 60 * time.Second
)

type gmailService struct {
	client *gmailv1.Service
	userID string
	log    logger.Logger

	profileOnce  sync.Once
	profileEmail string
	profileErr   error
}

// NewGmailService builds a Gmail-backed MailboxService from stored OAuth
// credentials. The token must already exist; the interactive consent flow
// is out of scope here.
func NewGmailService(ctx context.Context, cfg *config.GmailConfig, log logger.Logger) (interfaces.MailboxService, error) {
	credentials, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		return nil, errors.Wrap(err, "read gmail credentials")
	}

	oauthCfg, err := google.ConfigFromJSON(credentials,
		gmailv1.GmailReadonlyScope,
		gmailv1.GmailModifyScope,
		gmailv1.GmailSettingsBasicScope,
		gmailv1.GmailSendScope,
	)
	if err != nil {
		return nil, errors.Wrap(err, "parse oauth config")
	}

	token, err := readToken(cfg.TokenPath)
	if err != nil {
		return nil, errors.Wrap(err, "read gmail token")
	}

	httpClient := oauthCfg.Client(ctx, token)
	client, err := gmailv1.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, errors.Wrap(err, "create gmail service")
	}

	return &gmailService{
		client: client,
		userID: cfg.UserID,
		log:    log,
	}, nil
}

func readToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, err
	}
	return &token, nil
}

// Profile returns the account owner's address, cached for the lifetime of
// the service.
func (s *gmailService) Profile(ctx context.Context) (string, error) {
	s.profileOnce.Do(func() {
		err := s.withRetry(ctx, readAttempts, func() error {
			profile, err := s.client.Users.GetProfile(s.userID).Context(ctx).Do()
			if err != nil {
				return err
			}
			s.profileEmail = profile.EmailAddress
			return nil
		})
		s.profileErr = err
	})

	return s.profileEmail, s.profileErr
}

// withRetry retries fn only on rate-limit or quota errors, with capped
// exponential backoff. All other errors surface immediately.
func (s *gmailService) withRetry(ctx context.Context, attempts int, fn func() error) error {
	b := &backoff.Backoff{
		Min:    backoffMin,
		Max:    backoffMax,
		Factor: 2,
		Jitter: true,
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isRateLimitError(err) {
			return err
		}

		wait := b.Duration()
		s.log.Warnf("Gmail rate limit hit, retrying in %s (attempt %d/%d)", wait, attempt+1, attempts)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return errors.Wrap(err, "retries exhausted")
}

func isRateLimitError(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == 429 {
		return true
	}
	if apiErr.Code != 403 {
		return false
	}
	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded", "dailyLimitExceeded":
			return true
		}
	}
	return false
}
