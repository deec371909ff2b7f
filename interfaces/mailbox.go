package interfaces

import (
	"context"

	gmailv1 "google.golang.org/api/gmail/v1"
)

// ThreadInfo summarizes a conversation for disposition scoring.
type ThreadInfo struct {
	ThreadID         string
	MessageCount     int
	ParticipantCount int
	UserReplied      bool
}

// FilterSpec describes a server-side filter to create.
type FilterSpec struct {
	FromAddress string
	SkipInbox   bool
	MarkAsRead  bool
	AddLabelIDs []string
}

// UnsubscribeInfo is the parsed List-Unsubscribe header pair.
type UnsubscribeInfo struct {
	MailtoAddress string `json:"mailto,omitempty"`
	MailtoSubject string `json:"mailto_subject,omitempty"`
	MailtoBody    string `json:"mailto_body,omitempty"`
	HTTPURL       string `json:"http_url,omitempty"`
	OneClick      bool   `json:"one_click,omitempty"`
}

// MailboxService wraps all remote mailbox operations. Implementations are
// responsible for pagination, quota-aware retry and per-call timeouts;
// callers never retry on top of it.
type MailboxService interface {
	Profile(ctx context.Context) (string, error)
	ListMessageIDs(ctx context.Context, query string, maxResults int64) ([]*gmailv1.Message, error)
	GetMessage(ctx context.Context, id string, format string) (*gmailv1.Message, error)
	// BatchGetMetadata fetches message metadata in provider-sized chunks.
	// Individual failures are skipped; the result may be shorter than ids.
	BatchGetMetadata(ctx context.Context, ids []string) ([]*gmailv1.Message, error)
	// TrashMessages moves messages to trash in bulk and returns the
	// aggregate count only.
	TrashMessages(ctx context.Context, ids []string) (int, error)
	SendMessage(ctx context.Context, to, subject, body string) error
	GetThreadInfo(ctx context.Context, threadID string) (*ThreadInfo, error)
	CreateFilter(ctx context.Context, spec FilterSpec) (string, error)
	FindFilterBySender(ctx context.Context, fromAddress string) (string, error)
	DeleteFilter(ctx context.Context, filterID string) error
	GetOrCreateLabel(ctx context.Context, name string) (string, error)
}
