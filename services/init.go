package services

import (
	"context"

	"github.com/inboxpurge/inboxpurge/config"
	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/repository"
	"github.com/inboxpurge/inboxpurge/services/ai"
	"github.com/inboxpurge/inboxpurge/services/cleanup"
	"github.com/inboxpurge/inboxpurge/services/discovery"
	"github.com/inboxpurge/inboxpurge/services/filters"
	"github.com/inboxpurge/inboxpurge/services/gmail"
	"github.com/inboxpurge/inboxpurge/services/retention"
	"github.com/inboxpurge/inboxpurge/services/runner"
	"github.com/inboxpurge/inboxpurge/services/safety"
	"github.com/inboxpurge/inboxpurge/services/scoring"
	"github.com/inboxpurge/inboxpurge/services/unsubscribe"
)

type Services struct {
	MailboxService     interfaces.MailboxService
	AIService          interfaces.AIService
	GuardrailService   *safety.GuardrailService
	RetentionEngine    *retention.Engine
	Scorer             *scoring.Scorer
	Refiner            *scoring.Refiner
	DiscoveryService   *discovery.DiscoveryService
	UnsubscribeService *unsubscribe.UnsubscribeService
	FilterService      *filters.FilterService
	CleanupService     *cleanup.CleanupService
	RunnerService      *runner.RunnerService
}

func InitServices(ctx context.Context, cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	mailbox, err := gmail.NewGmailService(ctx, cfg.GmailConfig, log)
	if err != nil {
		return nil, err
	}

	aiService := ai.NewOpenAIService(cfg.OpenAIConfig, log)
	guardrail := safety.NewGuardrailService(repos.WhitelistRepository, log)
	rules := retention.NewEngine()
	scorer := scoring.NewScorer(mailbox, log)
	refiner := scoring.NewRefiner(aiService, log)
	discoverySvc := discovery.NewDiscoveryService(mailbox, repos.SenderRepository, cfg.CleanupPolicyConfig, log)
	unsubscribeSvc := unsubscribe.NewUnsubscribeService(mailbox, repos.SenderRepository, log)
	filterSvc := filters.NewFilterService(mailbox, repos.SenderRepository, log)
	cleanupSvc := cleanup.NewCleanupService(mailbox, guardrail, rules, scorer, refiner,
		repos.ClassificationRepository, cfg.CleanupPolicyConfig, log)
	runnerSvc := runner.NewRunnerService(
		repos.RunRepository,
		repos.SenderRepository,
		repos.ActionRepository,
		guardrail,
		rules,
		discoverySvc,
		unsubscribeSvc,
		filterSvc,
		cleanupSvc,
		cfg.CleanupPolicyConfig,
		log,
	)

	return &Services{
		MailboxService:     mailbox,
		AIService:          aiService,
		GuardrailService:   guardrail,
		RetentionEngine:    rules,
		Scorer:             scorer,
		Refiner:            refiner,
		DiscoveryService:   discoverySvc,
		UnsubscribeService: unsubscribeSvc,
		FilterService:      filterSvc,
		CleanupService:     cleanupSvc,
		RunnerService:      runnerSvc,
	}, nil
}
