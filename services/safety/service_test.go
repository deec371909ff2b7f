package safety

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/models"
)

type fakeWhitelistRepo struct {
	domains map[string]bool
	err     error
}

func (f *fakeWhitelistRepo) Add(ctx context.Context, entry *models.WhitelistDomain) error {
	if f.domains == nil {
		f.domains = map[string]bool{}
	}
	f.domains[entry.Domain] = true
	return nil
}

func (f *fakeWhitelistRepo) Remove(ctx context.Context, domain string) error {
	delete(f.domains, domain)
	return nil
}

func (f *fakeWhitelistRepo) GetAll(ctx context.Context) ([]models.WhitelistDomain, error) {
	if f.err != nil {
		return nil, f.err
	}
	var entries []models.WhitelistDomain
	for domain := range f.domains {
		entries = append(entries, models.WhitelistDomain{Domain: domain})
	}
	return entries, nil
}

func (f *fakeWhitelistRepo) ExistsByDomain(ctx context.Context, domain string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.domains[domain], nil
}

func getTestLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func newTestGuardrail(repo *fakeWhitelistRepo) *GuardrailService {
	if repo == nil {
		repo = &fakeWhitelistRepo{}
	}
	return NewGuardrailService(repo, getTestLogger())
}

func TestIsSenderProtected_Whitelist(t *testing.T) {
	svc := newTestGuardrail(&fakeWhitelistRepo{domains: map[string]bool{"example.com": true}})

	protected, reason, _ := svc.IsSenderProtected(context.Background(), "news@example.com")

	require.True(t, protected)
	assert.Equal(t, enum.ProtectionWhitelist, reason)
}

func TestIsSenderProtected_WhitelistWinsOverJunkAddress(t *testing.T) {
	svc := newTestGuardrail(&fakeWhitelistRepo{domains: map[string]bool{"spammy.com": true}})

	protected, reason, _ := svc.IsSenderProtected(context.Background(), "noreply@spammy.com")

	require.True(t, protected)
	assert.Equal(t, enum.ProtectionWhitelist, reason)
}

func TestIsSenderProtected_FailsClosedOnRepoError(t *testing.T) {
	svc := newTestGuardrail(&fakeWhitelistRepo{err: errors.New("db down")})

	protected, reason, _ := svc.IsSenderProtected(context.Background(), "deals@shop.com")

	require.True(t, protected)
	assert.Equal(t, enum.ProtectionCheckFailed, reason)
}

func TestIsSenderProtected_SenderPattern(t *testing.T) {
	svc := newTestGuardrail(nil)

	protected, reason, _ := svc.IsSenderProtected(context.Background(), "security@somecorp.com")

	require.True(t, protected)
	assert.Equal(t, enum.ProtectionSenderPattern, reason)
}

func TestIsSenderProtected_ProtectedDomain(t *testing.T) {
	svc := newTestGuardrail(nil)

	tests := []struct {
		email string
	}{
		{"statements@chase.com"},
		{"updates@mail.paypal.com"},
		{"refund@irs.gov"},
		{"anything@city.gov"},
	}
	for _, tt := range tests {
		protected, reason, _ := svc.IsSenderProtected(context.Background(), tt.email)
		assert.True(t, protected, tt.email)
		assert.Equal(t, enum.ProtectionDomain, reason, tt.email)
	}
}

func TestIsSenderProtected_RegularSender(t *testing.T) {
	svc := newTestGuardrail(nil)

	protected, _, _ := svc.IsSenderProtected(context.Background(), "deals@retailer.com")

	assert.False(t, protected)
}

func TestIsMessageProtected_KeywordInSubject(t *testing.T) {
	svc := newTestGuardrail(nil)

	protected, reason, _ := svc.IsMessageProtected(context.Background(),
		"deals@retailer.com", "Your receipt from last week", "")

	require.True(t, protected)
	assert.Equal(t, enum.ProtectionKeyword, reason)
}

func TestIsMessageProtected_KeywordInSnippet(t *testing.T) {
	svc := newTestGuardrail(nil)

	protected, reason, _ := svc.IsMessageProtected(context.Background(),
		"deals@retailer.com", "Big savings inside", "use this verification code to continue")

	require.True(t, protected)
	assert.Equal(t, enum.ProtectionKeyword, reason)
}

func TestIsMessageProtected_KeywordMatchesWholeWordsOnly(t *testing.T) {
	svc := newTestGuardrail(nil)

	// "winvoice" must not trip the "invoice" keyword
	protected, _, _ := svc.IsMessageProtected(context.Background(),
		"deals@retailer.com", "winvoices are on sale", "")

	assert.False(t, protected)
}

func TestJunkScore(t *testing.T) {
	svc := newTestGuardrail(nil)

	assert.Equal(t, 100, svc.JunkScore("noreply@shop.com", "50% off everything", true))
	assert.Equal(t, 40, svc.JunkScore("newsletter@shop.com", "hello", false))
	assert.Equal(t, 30, svc.JunkScore("jane@shop.com", "weekly digest", false))
	assert.Equal(t, 0, svc.JunkScore("jane@shop.com", "lunch tomorrow?", false))
}

func TestIsLikelyJunkSender(t *testing.T) {
	svc := newTestGuardrail(nil)

	assert.True(t, svc.IsLikelyJunkSender("NoReply@brand.com"))
	assert.True(t, svc.IsLikelyJunkSender("promo@brand.com"))
	assert.False(t, svc.IsLikelyJunkSender("jane.doe@brand.com"))
}

func TestGuardrailStats(t *testing.T) {
	svc := newTestGuardrail(&fakeWhitelistRepo{domains: map[string]bool{"a.com": true, "b.com": true}})

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.WhitelistedDomains)
	assert.NotZero(t, stats.ProtectedKeywords)
	assert.NotZero(t, stats.ProtectedDomains)
}
