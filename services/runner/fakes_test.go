package runner

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/models"
	"github.com/inboxpurge/inboxpurge/internal/repository"
)

func getTestLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

// fakeRunRepo keeps a single run in memory.
type fakeRunRepo struct {
	mu        sync.Mutex
	run       *models.CleanupRun
	onGetByID func(repo *fakeRunRepo)
}

func (f *fakeRunRepo) Create(ctx context.Context, run *models.CleanupRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.run != nil && !f.run.Status.IsTerminal() {
		return repository.ErrRunAlreadyActive
	}
	run.ID = "run_test"
	if run.Status == "" {
		run.Status = enum.RunStatusPending
	}
	clone := *run
	f.run = &clone
	return nil
}

func (f *fakeRunRepo) GetByID(ctx context.Context, id string) (*models.CleanupRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.run == nil || f.run.ID != id {
		return nil, repository.ErrRunNotFound
	}
	if f.onGetByID != nil {
		f.onGetByID(f)
	}
	clone := *f.run
	return &clone, nil
}

func (f *fakeRunRepo) GetActive(ctx context.Context) (*models.CleanupRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.run == nil || f.run.Status.IsTerminal() {
		return nil, nil
	}
	clone := *f.run
	return &clone, nil
}

func (f *fakeRunRepo) List(ctx context.Context, limit, offset int) ([]models.CleanupRun, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.run == nil {
		return nil, 0, nil
	}
	return []models.CleanupRun{*f.run}, 1, nil
}

func (f *fakeRunRepo) UpdateStatus(ctx context.Context, id string, status enum.RunStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.run == nil || f.run.ID != id {
		return repository.ErrRunNotFound
	}
	f.run.Status = status
	return nil
}

func (f *fakeRunRepo) SaveProgress(ctx context.Context, run *models.CleanupRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.run == nil || f.run.ID != run.ID {
		return repository.ErrRunNotFound
	}
	f.run.SendersTotal = run.SendersTotal
	f.run.SendersProcessed = run.SendersProcessed
	f.run.EmailsDeleted = run.EmailsDeleted
	f.run.BytesFreedEstimate = run.BytesFreedEstimate
	f.run.ProgressCursor = run.ProgressCursor
	return nil
}

func (f *fakeRunRepo) Finish(ctx context.Context, id string, status enum.RunStatus, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.run == nil || f.run.ID != id {
		return repository.ErrRunNotFound
	}
	f.run.Status = status
	f.run.ErrorMessage = errorMessage
	return nil
}

func (f *fakeRunRepo) current() models.CleanupRun {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.run
}

type fakeSenderRepo struct {
	mu      sync.Mutex
	senders []models.Sender
}

func (f *fakeSenderRepo) Upsert(ctx context.Context, sender *models.Sender) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.senders {
		if f.senders[i].Email == sender.Email {
			f.senders[i].MessageCount = sender.MessageCount
			return nil
		}
	}
	clone := *sender
	f.senders = append(f.senders, clone)
	return nil
}

func (f *fakeSenderRepo) GetByEmail(ctx context.Context, email string) (*models.Sender, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.senders {
		if f.senders[i].Email == email {
			clone := f.senders[i]
			return &clone, nil
		}
	}
	return nil, repository.ErrSenderNotFound
}

func (f *fakeSenderRepo) GetAll(ctx context.Context) ([]models.Sender, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Sender, len(f.senders))
	copy(out, f.senders)
	return out, nil
}

func (f *fakeSenderRepo) List(ctx context.Context, limit, offset int) ([]models.Sender, int64, error) {
	all, _ := f.GetAll(ctx)
	return all, int64(len(all)), nil
}

func (f *fakeSenderRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.senders)), nil
}

func (f *fakeSenderRepo) MarkUnsubscribed(ctx context.Context, id string, method enum.UnsubscribeMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.senders {
		if f.senders[i].ID == id {
			f.senders[i].Unsubscribed = true
			f.senders[i].UnsubscribeMethod = method
			return nil
		}
	}
	return repository.ErrSenderNotFound
}

func (f *fakeSenderRepo) MarkFilterCreated(ctx context.Context, id string, filterID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.senders {
		if f.senders[i].ID == id {
			f.senders[i].FilterCreated = true
			f.senders[i].FilterID = filterID
			return nil
		}
	}
	return repository.ErrSenderNotFound
}

func (f *fakeSenderRepo) Stats(ctx context.Context) (*interfaces.SenderStats, error) {
	count, _ := f.Count(ctx)
	return &interfaces.SenderStats{TotalSenders: count}, nil
}

type fakeActionRepo struct {
	mu      sync.Mutex
	actions []models.CleanupAction
}

func (f *fakeActionRepo) Create(ctx context.Context, action *models.CleanupAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, *action)
	return nil
}

func (f *fakeActionRepo) ListByRun(ctx context.Context, runID string, limit, offset int) ([]models.CleanupAction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.CleanupAction, len(f.actions))
	copy(out, f.actions)
	return out, int64(len(out)), nil
}

func (f *fakeActionRepo) byType(actionType enum.ActionType) []models.CleanupAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CleanupAction
	for _, action := range f.actions {
		if action.ActionType == actionType {
			out = append(out, action)
		}
	}
	return out
}

type fakeWhitelistRepo struct {
	domains map[string]bool
}

func (f *fakeWhitelistRepo) Add(ctx context.Context, entry *models.WhitelistDomain) error {
	f.domains[entry.Domain] = true
	return nil
}

func (f *fakeWhitelistRepo) Remove(ctx context.Context, domain string) error {
	delete(f.domains, domain)
	return nil
}

func (f *fakeWhitelistRepo) GetAll(ctx context.Context) ([]models.WhitelistDomain, error) {
	return nil, nil
}

func (f *fakeWhitelistRepo) ExistsByDomain(ctx context.Context, domain string) (bool, error) {
	return f.domains[domain], nil
}

type fakeClassificationRepo struct {
	mu      sync.Mutex
	entries map[string]*models.EmailClassification
}

func (f *fakeClassificationRepo) GetByMessageID(ctx context.Context, messageID string) (*models.EmailClassification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry, ok := f.entries[messageID]; ok {
		clone := *entry
		return &clone, nil
	}
	return nil, nil
}

func (f *fakeClassificationRepo) Upsert(ctx context.Context, classification *models.EmailClassification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries == nil {
		f.entries = map[string]*models.EmailClassification{}
	}
	clone := *classification
	f.entries[classification.MessageID] = &clone
	return nil
}

// fakeMailbox serves canned messages per sender and records every
// mutating call.
type fakeMailbox struct {
	mu           sync.Mutex
	messages     map[string][]*gmailv1.Message // sender email -> messages
	threads      map[string]*interfaces.ThreadInfo
	trashed      []string
	sentTo       []string
	filters      map[string]string // sender email -> filter id
	labels       map[string]string
	createdCalls int

	onList func() // fires on each ListMessageIDs call, before the lookup
}

func newFakeMailbox() *fakeMailbox {
	return &fakeMailbox{
		messages: map[string][]*gmailv1.Message{},
		threads:  map[string]*interfaces.ThreadInfo{},
		filters:  map[string]string{},
		labels:   map[string]string{},
	}
}

func (f *fakeMailbox) Profile(ctx context.Context) (string, error) {
	return "user@gmail.com", nil
}

func (f *fakeMailbox) ListMessageIDs(ctx context.Context, query string, maxResults int64) ([]*gmailv1.Message, error) {
	if f.onList != nil {
		f.onList()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for sender, msgs := range f.messages {
		if strings.Contains(query, "from:"+sender) {
			out := make([]*gmailv1.Message, len(msgs))
			copy(out, msgs)
			return out, nil
		}
	}
	return nil, nil
}

func (f *fakeMailbox) GetMessage(ctx context.Context, id string, format string) (*gmailv1.Message, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeMailbox) BatchGetMetadata(ctx context.Context, ids []string) ([]*gmailv1.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []*gmailv1.Message
	for _, msgs := range f.messages {
		for _, msg := range msgs {
			if want[msg.Id] {
				out = append(out, msg)
			}
		}
	}
	return out, nil
}

func (f *fakeMailbox) TrashMessages(ctx context.Context, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trashed = append(f.trashed, ids...)
	return len(ids), nil
}

func (f *fakeMailbox) SendMessage(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentTo = append(f.sentTo, to)
	return nil
}

func (f *fakeMailbox) GetThreadInfo(ctx context.Context, threadID string) (*interfaces.ThreadInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if info, ok := f.threads[threadID]; ok {
		return info, nil
	}
	return &interfaces.ThreadInfo{ThreadID: threadID, MessageCount: 1, ParticipantCount: 1}, nil
}

func (f *fakeMailbox) CreateFilter(ctx context.Context, spec interfaces.FilterSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdCalls++
	id := "filter_" + spec.FromAddress
	f.filters[spec.FromAddress] = id
	return id, nil
}

func (f *fakeMailbox) FindFilterBySender(ctx context.Context, fromAddress string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filters[fromAddress], nil
}

func (f *fakeMailbox) DeleteFilter(ctx context.Context, filterID string) error {
	return nil
}

func (f *fakeMailbox) GetOrCreateLabel(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.labels[name]; ok {
		return id, nil
	}
	id := "label_" + name
	f.labels[name] = id
	return id, nil
}

func (f *fakeMailbox) trashedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trashed))
	copy(out, f.trashed)
	return out
}
