package gmail

import (
	"net/url"
	"regexp"
	"strings"

	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/inboxpurge/inboxpurge/interfaces"
)

var (
	mailtoRe = regexp.MustCompile(`<mailto:([^>]+)>`)
	httpsRe  = regexp.MustCompile(`<(https?://[^>]+)>`)
	senderRe = regexp.MustCompile(`^\s*(?:"?([^"<]*)"?\s*)?<([^>]+)>\s*$`)
)

// HeaderValue returns the named header of a message, or empty string.
func HeaderValue(msg *gmailv1.Message, name string) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}
	for _, header := range msg.Payload.Headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// ParseSenderHeader splits a From header into display name and address.
// "Shop News <promo@shop.example>" yields ("Shop News", "promo@shop.example").
func ParseSenderHeader(from string) (string, string) {
	from = strings.TrimSpace(from)
	if from == "" {
		return "", ""
	}

	if match := senderRe.FindStringSubmatch(from); match != nil {
		return strings.TrimSpace(match[1]), strings.ToLower(strings.TrimSpace(match[2]))
	}

	if strings.Contains(from, "@") {
		return "", strings.ToLower(from)
	}

	return from, ""
}

// ParseListUnsubscribe extracts the mailto target and/or HTTPS URL from a
// List-Unsubscribe header, and flags one-click support when the companion
// List-Unsubscribe-Post header is present.
func ParseListUnsubscribe(headerValue, postHeaderValue string) *interfaces.UnsubscribeInfo {
	if headerValue == "" {
		return nil
	}

	info := &interfaces.UnsubscribeInfo{}

	if match := mailtoRe.FindStringSubmatch(headerValue); match != nil {
		target := match[1]
		if idx := strings.Index(target, "?"); idx >= 0 {
			params := target[idx+1:]
			target = target[:idx]
			for _, pair := range strings.Split(params, "&") {
				kv := strings.SplitN(pair, "=", 2)
				if len(kv) != 2 {
					continue
				}
				value, err := url.QueryUnescape(kv[1])
				if err != nil {
					value = kv[1]
				}
				switch strings.ToLower(kv[0]) {
				case "subject":
					info.MailtoSubject = value
				case "body":
					info.MailtoBody = value
				}
			}
		}
		if unescaped, err := url.QueryUnescape(target); err == nil {
			target = unescaped
		}
		info.MailtoAddress = strings.TrimSpace(target)
	}

	if match := httpsRe.FindStringSubmatch(headerValue); match != nil {
		info.HTTPURL = match[1]
	}

	if info.MailtoAddress == "" && info.HTTPURL == "" {
		return nil
	}

	// RFC 8058 one-click requires an HTTPS target plus the Post header.
	if info.HTTPURL != "" && strings.Contains(postHeaderValue, "One-Click") {
		info.OneClick = true
	}

	return info
}

// MessageSizeEstimate returns the provider's byte estimate for a message.
func MessageSizeEstimate(msg *gmailv1.Message) int64 {
	if msg == nil {
		return 0
	}
	return msg.SizeEstimate
}
