package gmail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailv1 "google.golang.org/api/gmail/v1"
)

func TestHeaderValue(t *testing.T) {
	msg := &gmailv1.Message{
		Payload: &gmailv1.MessagePart{
			Headers: []*gmailv1.MessagePartHeader{
				{Name: "Subject", Value: "hello"},
				{Name: "list-unsubscribe", Value: "<mailto:u@x.com>"},
			},
		},
	}

	assert.Equal(t, "hello", HeaderValue(msg, "Subject"))
	assert.Equal(t, "<mailto:u@x.com>", HeaderValue(msg, "List-Unsubscribe"))
	assert.Empty(t, HeaderValue(msg, "Precedence"))
	assert.Empty(t, HeaderValue(nil, "Subject"))
}

func TestParseSenderHeader(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantAddr string
	}{
		{`Shop News <Promo@Shop.example>`, "Shop News", "promo@shop.example"},
		{`"Jane Doe" <jane@corp.com>`, "Jane Doe", "jane@corp.com"},
		{`<noreply@brand.com>`, "", "noreply@brand.com"},
		{`bare@address.com`, "", "bare@address.com"},
		{`Not An Address`, "Not An Address", ""},
		{``, "", ""},
	}

	for _, tt := range tests {
		name, addr := ParseSenderHeader(tt.in)
		assert.Equal(t, tt.wantName, name, tt.in)
		assert.Equal(t, tt.wantAddr, addr, tt.in)
	}
}

func TestParseListUnsubscribe_MailtoWithParams(t *testing.T) {
	info := ParseListUnsubscribe("<mailto:unsub@list.com?subject=Remove%20me&body=please>", "")

	require.NotNil(t, info)
	assert.Equal(t, "unsub@list.com", info.MailtoAddress)
	assert.Equal(t, "Remove me", info.MailtoSubject)
	assert.Equal(t, "please", info.MailtoBody)
	assert.Empty(t, info.HTTPURL)
	assert.False(t, info.OneClick)
}

func TestParseListUnsubscribe_BothTargets(t *testing.T) {
	info := ParseListUnsubscribe("<mailto:unsub@list.com>, <https://list.com/unsubscribe?id=1>", "")

	require.NotNil(t, info)
	assert.Equal(t, "unsub@list.com", info.MailtoAddress)
	assert.Equal(t, "https://list.com/unsubscribe?id=1", info.HTTPURL)
}

func TestParseListUnsubscribe_OneClick(t *testing.T) {
	info := ParseListUnsubscribe("<https://list.com/u>", "List-Unsubscribe=One-Click")

	require.NotNil(t, info)
	assert.True(t, info.OneClick)

	// one-click needs an HTTPS target
	info = ParseListUnsubscribe("<mailto:u@list.com>", "List-Unsubscribe=One-Click")
	require.NotNil(t, info)
	assert.False(t, info.OneClick)
}

func TestParseListUnsubscribe_NoTargets(t *testing.T) {
	assert.Nil(t, ParseListUnsubscribe("", ""))
	assert.Nil(t, ParseListUnsubscribe("garbage header", ""))
}
