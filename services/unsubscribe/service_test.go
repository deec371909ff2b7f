package unsubscribe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/models"
)

func getTestLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

type nullMailbox struct{}

func (nullMailbox) Profile(ctx context.Context) (string, error) { return "user@gmail.com", nil }
func (nullMailbox) ListMessageIDs(ctx context.Context, query string, maxResults int64) ([]*gmailv1.Message, error) {
	return nil, nil
}
func (nullMailbox) GetMessage(ctx context.Context, id string, format string) (*gmailv1.Message, error) {
	return nil, nil
}
func (nullMailbox) BatchGetMetadata(ctx context.Context, ids []string) ([]*gmailv1.Message, error) {
	return nil, nil
}
func (nullMailbox) TrashMessages(ctx context.Context, ids []string) (int, error) { return 0, nil }
func (nullMailbox) SendMessage(ctx context.Context, to, subject, body string) error {
	return nil
}
func (nullMailbox) GetThreadInfo(ctx context.Context, threadID string) (*interfaces.ThreadInfo, error) {
	return nil, nil
}
func (nullMailbox) CreateFilter(ctx context.Context, spec interfaces.FilterSpec) (string, error) {
	return "", nil
}
func (nullMailbox) FindFilterBySender(ctx context.Context, fromAddress string) (string, error) {
	return "", nil
}
func (nullMailbox) DeleteFilter(ctx context.Context, filterID string) error { return nil }
func (nullMailbox) GetOrCreateLabel(ctx context.Context, name string) (string, error) {
	return "", nil
}

type recordingMailbox struct {
	nullMailbox
	mu      sync.Mutex
	sendErr error
	to      string
	subject string
	body    string
	sends   int
}

func (f *recordingMailbox) SendMessage(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	if f.sendErr != nil {
		return f.sendErr
	}
	f.to = to
	f.subject = subject
	f.body = body
	return nil
}

type fakeSenderRepo struct {
	markedID     string
	markedMethod enum.UnsubscribeMethod
}

func (f *fakeSenderRepo) Upsert(ctx context.Context, sender *models.Sender) error { return nil }
func (f *fakeSenderRepo) GetByEmail(ctx context.Context, email string) (*models.Sender, error) {
	return nil, nil
}
func (f *fakeSenderRepo) GetAll(ctx context.Context) ([]models.Sender, error) { return nil, nil }
func (f *fakeSenderRepo) List(ctx context.Context, limit, offset int) ([]models.Sender, int64, error) {
	return nil, 0, nil
}
func (f *fakeSenderRepo) Count(ctx context.Context) (int64, error) { return 0, nil }
func (f *fakeSenderRepo) MarkUnsubscribed(ctx context.Context, id string, method enum.UnsubscribeMethod) error {
	f.markedID = id
	f.markedMethod = method
	return nil
}
func (f *fakeSenderRepo) MarkFilterCreated(ctx context.Context, id string, filterID string) error {
	return nil
}
func (f *fakeSenderRepo) Stats(ctx context.Context) (*interfaces.SenderStats, error) {
	return nil, nil
}

func TestUnsubscribe_PrefersMailto(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	mailbox := &recordingMailbox{}
	repo := &fakeSenderRepo{}
	svc := NewUnsubscribeService(mailbox, repo, getTestLogger())

	sender := &models.Sender{
		ID:    "sndr_1",
		Email: "deals@shop.com",
		UnsubscribeHeader: models.JSONMap{
			"mailto_address": "unsub@shop.com",
			"http_url":       server.URL,
		},
	}
	method, err := svc.Unsubscribe(context.Background(), sender)
	require.NoError(t, err)

	assert.Equal(t, enum.UnsubscribeMethodMailto, method)
	assert.Equal(t, "unsub@shop.com", mailbox.to)
	assert.Equal(t, "Unsubscribe", mailbox.subject)
	assert.Contains(t, mailbox.body, "user@gmail.com")
	assert.Zero(t, hits, "mailto success must not fall through to HTTP")
	assert.Equal(t, "sndr_1", repo.markedID)
	assert.True(t, sender.Unsubscribed)
}

func TestUnsubscribe_OneClickFallback(t *testing.T) {
	var gotMethod, gotContentType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
	}))
	defer server.Close()

	mailbox := &recordingMailbox{sendErr: errors.New("send quota exceeded")}
	repo := &fakeSenderRepo{}
	svc := NewUnsubscribeService(mailbox, repo, getTestLogger())

	sender := &models.Sender{
		ID:    "sndr_1",
		Email: "deals@shop.com",
		UnsubscribeHeader: models.JSONMap{
			"mailto_address": "unsub@shop.com",
			"http_url":       server.URL,
			"one_click":      true,
		},
	}
	method, err := svc.Unsubscribe(context.Background(), sender)
	require.NoError(t, err)

	assert.Equal(t, enum.UnsubscribeMethodOneClick, method)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "List-Unsubscribe=One-Click", gotBody)
	assert.Equal(t, enum.UnsubscribeMethodOneClick, repo.markedMethod)
}

func TestUnsubscribe_PlainGetFallback(t *testing.T) {
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
	}))
	defer server.Close()

	svc := NewUnsubscribeService(&recordingMailbox{}, &fakeSenderRepo{}, getTestLogger())

	sender := &models.Sender{
		ID:                "sndr_1",
		Email:             "deals@shop.com",
		UnsubscribeHeader: models.JSONMap{"http_url": server.URL},
	}
	method, err := svc.Unsubscribe(context.Background(), sender)
	require.NoError(t, err)

	assert.Equal(t, enum.UnsubscribeMethodHTTP, method)
	assert.Equal(t, http.MethodGet, gotMethod)
}

func TestUnsubscribe_EndpointErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	repo := &fakeSenderRepo{}
	svc := NewUnsubscribeService(&recordingMailbox{}, repo, getTestLogger())

	sender := &models.Sender{
		ID:                "sndr_1",
		Email:             "deals@shop.com",
		UnsubscribeHeader: models.JSONMap{"http_url": server.URL},
	}
	_, err := svc.Unsubscribe(context.Background(), sender)
	require.Error(t, err)
	assert.Empty(t, repo.markedID)
	assert.False(t, sender.Unsubscribed)
}

func TestUnsubscribe_NoMechanism(t *testing.T) {
	svc := NewUnsubscribeService(&recordingMailbox{}, &fakeSenderRepo{}, getTestLogger())

	sender := &models.Sender{ID: "sndr_1", Email: "deals@shop.com"}
	_, err := svc.Unsubscribe(context.Background(), sender)
	assert.Error(t, err)
}
