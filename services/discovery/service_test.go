package discovery

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/config"
	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/models"
	"github.com/inboxpurge/inboxpurge/internal/repository"
)

func getTestLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

type fakeSenderRepo struct {
	mu      sync.Mutex
	senders map[string]*models.Sender
}

func newFakeSenderRepo() *fakeSenderRepo {
	return &fakeSenderRepo{senders: map[string]*models.Sender{}}
}

func (f *fakeSenderRepo) Upsert(ctx context.Context, sender *models.Sender) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *sender
	f.senders[sender.Email] = &clone
	return nil
}

func (f *fakeSenderRepo) GetByEmail(ctx context.Context, email string) (*models.Sender, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sender, ok := f.senders[email]; ok {
		clone := *sender
		return &clone, nil
	}
	return nil, repository.ErrSenderNotFound
}

func (f *fakeSenderRepo) GetAll(ctx context.Context) ([]models.Sender, error) { return nil, nil }

func (f *fakeSenderRepo) List(ctx context.Context, limit, offset int) ([]models.Sender, int64, error) {
	return nil, 0, nil
}

func (f *fakeSenderRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.senders)), nil
}

func (f *fakeSenderRepo) MarkUnsubscribed(ctx context.Context, id string, method enum.UnsubscribeMethod) error {
	return nil
}

func (f *fakeSenderRepo) MarkFilterCreated(ctx context.Context, id string, filterID string) error {
	return nil
}

func (f *fakeSenderRepo) Stats(ctx context.Context) (*interfaces.SenderStats, error) {
	return &interfaces.SenderStats{}, nil
}

// fakeMailbox returns canned messages for one discovery query and
// nothing for the rest.
type fakeMailbox struct {
	queryHit string
	messages []*gmailv1.Message
	queries  []string
}

func (f *fakeMailbox) Profile(ctx context.Context) (string, error) { return "user@gmail.com", nil }

func (f *fakeMailbox) ListMessageIDs(ctx context.Context, query string, maxResults int64) ([]*gmailv1.Message, error) {
	f.queries = append(f.queries, query)
	if strings.HasPrefix(query, f.queryHit) {
		return f.messages, nil
	}
	return nil, nil
}

func (f *fakeMailbox) GetMessage(ctx context.Context, id string, format string) (*gmailv1.Message, error) {
	return nil, nil
}

func (f *fakeMailbox) BatchGetMetadata(ctx context.Context, ids []string) ([]*gmailv1.Message, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []*gmailv1.Message
	for _, msg := range f.messages {
		if want[msg.Id] {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *fakeMailbox) TrashMessages(ctx context.Context, ids []string) (int, error) { return 0, nil }

func (f *fakeMailbox) SendMessage(ctx context.Context, to, subject, body string) error { return nil }

func (f *fakeMailbox) GetThreadInfo(ctx context.Context, threadID string) (*interfaces.ThreadInfo, error) {
	return &interfaces.ThreadInfo{ThreadID: threadID, MessageCount: 1, ParticipantCount: 1}, nil
}

func (f *fakeMailbox) CreateFilter(ctx context.Context, spec interfaces.FilterSpec) (string, error) {
	return "", nil
}

func (f *fakeMailbox) FindFilterBySender(ctx context.Context, fromAddress string) (string, error) {
	return "", nil
}

func (f *fakeMailbox) DeleteFilter(ctx context.Context, filterID string) error { return nil }

func (f *fakeMailbox) GetOrCreateLabel(ctx context.Context, name string) (string, error) {
	return "", nil
}

func promoMessage(id, from string, headers map[string]string) *gmailv1.Message {
	parts := []*gmailv1.MessagePartHeader{{Name: "From", Value: from}}
	for name, value := range headers {
		parts = append(parts, &gmailv1.MessagePartHeader{Name: name, Value: value})
	}
	return &gmailv1.Message{
		Id:      id,
		Payload: &gmailv1.MessagePart{Headers: parts},
	}
}

func TestDiscoverSenders_AggregatesPerSender(t *testing.T) {
	mailbox := &fakeMailbox{
		queryHit: "category:promotions",
		messages: []*gmailv1.Message{
			promoMessage("m1", "Shop Deals <deals@shop.com>", map[string]string{
				"List-Unsubscribe": "<mailto:unsub@shop.com>, <https://shop.com/unsub>",
			}),
			promoMessage("m2", "deals@shop.com", nil),
			promoMessage("m3", "news@other.org", nil),
		},
	}
	repo := newFakeSenderRepo()
	svc := NewDiscoveryService(mailbox, repo, &config.CleanupPolicyConfig{MaxMessagesPerQuery: 900}, getTestLogger())

	saved, err := svc.DiscoverSenders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	shop, err := repo.GetByEmail(context.Background(), "deals@shop.com")
	require.NoError(t, err)
	assert.Equal(t, 2, shop.MessageCount)
	assert.Equal(t, "Shop Deals", shop.DisplayName)
	assert.Equal(t, "shop.com", shop.Domain)
	assert.True(t, shop.HasListUnsubscribe)
	assert.Equal(t, enum.UnsubscribeMethodMailto, shop.UnsubscribeMethod)
	assert.Equal(t, "unsub@shop.com", shop.UnsubscribeHeader["mailto_address"])
	assert.Equal(t, "https://shop.com/unsub", shop.UnsubscribeHeader["http_url"])

	other, err := repo.GetByEmail(context.Background(), "news@other.org")
	require.NoError(t, err)
	assert.Equal(t, 1, other.MessageCount)
	assert.False(t, other.HasListUnsubscribe)
}

func TestDiscoverSenders_SplitsCapAcrossQueries(t *testing.T) {
	mailbox := &fakeMailbox{}
	svc := NewDiscoveryService(mailbox, newFakeSenderRepo(), &config.CleanupPolicyConfig{MaxMessagesPerQuery: 900}, getTestLogger())

	_, err := svc.DiscoverSenders(context.Background())
	require.NoError(t, err)
	assert.Len(t, mailbox.queries, 9)
}

func TestDiscoverNewSenders_ScopesQueriesByAge(t *testing.T) {
	mailbox := &fakeMailbox{}
	svc := NewDiscoveryService(mailbox, newFakeSenderRepo(), nil, getTestLogger())

	_, err := svc.DiscoverNewSenders(context.Background(), 2)
	require.NoError(t, err)
	require.NotEmpty(t, mailbox.queries)
	for _, query := range mailbox.queries {
		assert.Contains(t, query, "newer_than:2d")
	}
}

func TestDiscoverNewSenders_RejectsNonPositiveWindow(t *testing.T) {
	svc := NewDiscoveryService(&fakeMailbox{}, newFakeSenderRepo(), nil, getTestLogger())

	_, err := svc.DiscoverNewSenders(context.Background(), 0)
	assert.Error(t, err)
}
