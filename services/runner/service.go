package runner

import (
	"context"
	"sort"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/config"
	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/models"
	"github.com/inboxpurge/inboxpurge/internal/repository"
	"github.com/inboxpurge/inboxpurge/internal/tracing"
	"github.com/inboxpurge/inboxpurge/internal/utils"
	"github.com/inboxpurge/inboxpurge/services/cleanup"
	"github.com/inboxpurge/inboxpurge/services/discovery"
	"github.com/inboxpurge/inboxpurge/services/filters"
	"github.com/inboxpurge/inboxpurge/services/retention"
	"github.com/inboxpurge/inboxpurge/services/safety"
	"github.com/inboxpurge/inboxpurge/services/unsubscribe"
)

const interSenderDelay = 500 * time.Millisecond

var (
	ErrRunNotResumable = errors.New("run is not paused")
	ErrRunTerminal     = errors.New("run already finished")
	ErrRunInProgress   = errors.New("run already in progress")
)

// RunnerService drives a cleanup run through the prioritized sender
// list. A run survives process restarts: progress lives in the run row
// and its cursor, and Resume picks up from the last flushed position.
type RunnerService struct {
	runRepo     interfaces.RunRepository
	senderRepo  interfaces.SenderRepository
	actionRepo  interfaces.ActionRepository
	guardrail   *safety.GuardrailService
	rules       *retention.Engine
	discovery   *discovery.DiscoveryService
	unsubscribe *unsubscribe.UnsubscribeService
	filters     *filters.FilterService
	cleanup     *cleanup.CleanupService
	cfg         *config.CleanupPolicyConfig
	log         logger.Logger
}

func NewRunnerService(
	runRepo interfaces.RunRepository,
	senderRepo interfaces.SenderRepository,
	actionRepo interfaces.ActionRepository,
	guardrail *safety.GuardrailService,
	rules *retention.Engine,
	discoverySvc *discovery.DiscoveryService,
	unsubscribeSvc *unsubscribe.UnsubscribeService,
	filterSvc *filters.FilterService,
	cleanupSvc *cleanup.CleanupService,
	cfg *config.CleanupPolicyConfig,
	log logger.Logger,
) *RunnerService {
	return &RunnerService{
		runRepo:     runRepo,
		senderRepo:  senderRepo,
		actionRepo:  actionRepo,
		guardrail:   guardrail,
		rules:       rules,
		discovery:   discoverySvc,
		unsubscribe: unsubscribeSvc,
		filters:     filterSvc,
		cleanup:     cleanupSvc,
		cfg:         cfg,
		log:         log,
	}
}

// StartRun creates a new run and begins executing it in the background.
// Fails when another run is still active.
func (s *RunnerService) StartRun(ctx context.Context) (*models.CleanupRun, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RunnerService.StartRun")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	run := &models.CleanupRun{Status: enum.RunStatusPending}
	if err := s.runRepo.Create(ctx, run); err != nil {
		if errors.Is(err, repository.ErrRunAlreadyActive) {
			return nil, ErrRunInProgress
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	tracing.TagRun(span, run.ID)

	s.launch(run.ID)
	return run, nil
}

// Resume continues a paused run from its saved cursor.
func (s *RunnerService) Resume(ctx context.Context, runID string) (*models.CleanupRun, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RunnerService.Resume")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagRun(span, runID)

	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if run.Status != enum.RunStatusPaused {
		return nil, ErrRunNotResumable
	}

	if err := s.runRepo.UpdateStatus(ctx, runID, enum.RunStatusPending); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	run.Status = enum.RunStatusPending

	s.launch(runID)
	return run, nil
}

// Pause asks the running loop to stop at the next sender boundary.
func (s *RunnerService) Pause(ctx context.Context, runID string) error {
	return s.requestStop(ctx, runID, enum.RunStatusPaused)
}

// Cancel stops the run at the next sender boundary; a cancelled run
// cannot be resumed.
func (s *RunnerService) Cancel(ctx context.Context, runID string) error {
	return s.requestStop(ctx, runID, enum.RunStatusCancelled)
}

func (s *RunnerService) requestStop(ctx context.Context, runID string, target enum.RunStatus) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RunnerService.requestStop")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagRun(span, runID)
	span.SetTag("target_status", target.String())

	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if run.Status.IsTerminal() {
		return ErrRunTerminal
	}

	// The loop observes the new status at the next sender boundary, so
	// the in-flight sender always finishes before the run stops.
	if err := s.runRepo.UpdateStatus(ctx, runID, target); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (s *RunnerService) GetRun(ctx context.Context, runID string) (*models.CleanupRun, error) {
	return s.runRepo.GetByID(ctx, runID)
}

func (s *RunnerService) ListRuns(ctx context.Context, limit, offset int) ([]models.CleanupRun, int64, error) {
	return s.runRepo.List(ctx, limit, offset)
}

func (s *RunnerService) ListActions(ctx context.Context, runID string, limit, offset int) ([]models.CleanupAction, int64, error) {
	return s.actionRepo.ListByRun(ctx, runID, limit, offset)
}

func (s *RunnerService) launch(runID string) {
	go func() {
		defer tracing.RecoverAndLogToJaeger(s.log)
		if err := s.Execute(context.Background(), runID); err != nil {
			s.log.Errorf("Run %s stopped: %v", runID, err)
		}
	}()
}

// Execute runs the sender loop synchronously until the run reaches a
// stopping state. Exported so a resumed process can drive it directly.
func (s *RunnerService) Execute(ctx context.Context, runID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RunnerService.Execute")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagRun(span, runID)

	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return err
	}

	if err := s.runRepo.UpdateStatus(ctx, runID, enum.RunStatusRunning); err != nil {
		return err
	}
	run.Status = enum.RunStatusRunning

	if err := s.executeLoop(ctx, run); err != nil {
		if stopErr := s.handleStop(run, err); stopErr != nil {
			return stopErr
		}
		return nil
	}

	s.flushProgress(run)
	if err := s.finish(run.ID, enum.RunStatusCompleted, ""); err != nil {
		return err
	}
	s.log.Infof("Run %s completed: %d/%d senders, %d emails deleted",
		run.ID, run.SendersProcessed, run.SendersTotal, run.EmailsDeleted)
	return nil
}

func (s *RunnerService) executeLoop(ctx context.Context, run *models.CleanupRun) error {
	// First run against an empty sender table triggers discovery.
	if run.SendersTotal == 0 {
		count, err := s.senderRepo.Count(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			if _, err := s.discovery.DiscoverSenders(ctx); err != nil {
				return errors.Wrap(err, "sender discovery")
			}
		}
	}

	senders, err := s.prioritizedSenders(ctx)
	if err != nil {
		return err
	}
	run.SendersTotal = len(senders)

	cursor := models.ParseProgressCursor(run.ProgressCursor)
	startIndex := cursor.SenderIndex
	if startIndex > len(senders) {
		startIndex = len(senders)
	}

	for i := startIndex; i < len(senders); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		status, err := s.currentStatus(ctx, run.ID)
		if err != nil {
			return err
		}
		if status != enum.RunStatusRunning {
			return errors.Errorf("run moved to %s", status)
		}

		sender := &senders[i]
		s.processSender(ctx, run, sender)

		// A sender interrupted mid-pipeline must not be skipped on
		// resume, so the cursor only moves once the context is intact.
		if err := ctx.Err(); err != nil {
			return err
		}

		run.SendersProcessed = i + 1
		run.ProgressCursor = models.NewProgressCursor(i+1, sender.ID).Encode()
		if (i+1-startIndex)%s.cfg.CursorFlushEvery == 0 {
			s.flushProgress(run)
		}

		if i+1 < len(senders) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interSenderDelay):
			}
		}
	}

	return nil
}

// processSender runs the full pipeline for one sender. Errors are
// recorded as an error action and do not stop the run.
func (s *RunnerService) processSender(ctx context.Context, run *models.CleanupRun, sender *models.Sender) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RunnerService.processSender")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagRun(span, run.ID)
	tracing.TagSender(span, sender.Email)

	if protected, reason, detail := s.guardrail.IsSenderProtected(ctx, sender.Email); protected {
		s.recordAction(run, sender.Email, enum.ActionSkip, 0, 0,
			"protected: "+reason.String()+" ("+detail+")")
		return
	}

	// A sender-level KEEP rule exempts the sender from the whole
	// pipeline, not just from deletion.
	verdict := s.rules.Evaluate(retention.EmailFacts{
		SenderEmail:  sender.Email,
		SenderDomain: utils.ExtractDomainFromEmail(sender.Email),
	})
	if verdict.Action == enum.DispositionKeep {
		s.recordAction(run, sender.Email, enum.ActionSkip, 0, 0, "rule: "+verdict.RuleDescription)
		return
	}

	if sender.HasListUnsubscribe && !sender.Unsubscribed {
		if method, err := s.unsubscribe.Unsubscribe(ctx, sender); err != nil {
			tracing.TraceErr(span, err)
			s.recordAction(run, sender.Email, enum.ActionError, 0, 0, "unsubscribe: "+err.Error())
		} else {
			s.recordAction(run, sender.Email, enum.ActionUnsubscribe, 0, 0, "method: "+method.String())
		}
	}

	if !sender.FilterCreated {
		if _, err := s.filters.MuteSender(ctx, sender); err != nil {
			tracing.TraceErr(span, err)
			s.recordAction(run, sender.Email, enum.ActionError, 0, 0, "filter: "+err.Error())
		} else {
			s.recordAction(run, sender.Email, enum.ActionFilter, 0, 0, "")
		}
	}

	result, err := s.cleanup.DeleteSenderEmails(ctx, sender.Email, s.ageThreshold(sender))
	if err != nil {
		tracing.TraceErr(span, err)
		s.recordAction(run, sender.Email, enum.ActionError, 0, 0, "delete: "+err.Error())
		return
	}
	if result.Deleted > 0 {
		run.EmailsDeleted += result.Deleted
		run.BytesFreedEstimate += result.BytesFreed
		s.recordAction(run, sender.Email, enum.ActionDelete, result.Deleted, result.BytesFreed, "")
	}
}

// ageThreshold is aggressive for obvious junk with an unsubscribe
// mechanism, conservative for everything else.
func (s *RunnerService) ageThreshold(sender *models.Sender) int {
	if sender.HasListUnsubscribe && s.guardrail.IsLikelyJunkSender(sender.Email) {
		return s.cfg.AggressiveAgeDays
	}
	return s.cfg.ConservativeAgeDays
}

// prioritizedSenders orders the queue: likely junk first, then senders
// with an unsubscribe mechanism, then by volume. The order is recomputed
// on every start and resume; the cursor index refers to this ordering.
func (s *RunnerService) prioritizedSenders(ctx context.Context) ([]models.Sender, error) {
	senders, err := s.senderRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(senders, func(i, j int) bool {
		junkI := s.guardrail.IsLikelyJunkSender(senders[i].Email)
		junkJ := s.guardrail.IsLikelyJunkSender(senders[j].Email)
		if junkI != junkJ {
			return junkI
		}
		if senders[i].HasListUnsubscribe != senders[j].HasListUnsubscribe {
			return senders[i].HasListUnsubscribe
		}
		return senders[i].MessageCount > senders[j].MessageCount
	})
	return senders, nil
}

func (s *RunnerService) currentStatus(ctx context.Context, runID string) (enum.RunStatus, error) {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return "", err
	}
	return run.Status, nil
}

// handleStop maps a loop error to the run's terminal or paused state.
// Pause and cancel were already written to the row by requestStop; only
// genuine failures flip the run to failed here.
func (s *RunnerService) handleStop(run *models.CleanupRun, cause error) error {
	s.flushProgress(run)

	status, err := s.currentStatus(context.Background(), run.ID)
	if err != nil {
		return err
	}

	switch status {
	case enum.RunStatusPaused:
		s.log.Infof("Run %s paused at sender %d/%d", run.ID, run.SendersProcessed, run.SendersTotal)
		return nil
	case enum.RunStatusCancelled:
		return s.finish(run.ID, enum.RunStatusCancelled, "")
	default:
		s.log.Errorf("Run %s failed: %v", run.ID, cause)
		return s.finish(run.ID, enum.RunStatusFailed, cause.Error())
	}
}

func (s *RunnerService) finish(runID string, status enum.RunStatus, errorMessage string) error {
	return s.runRepo.Finish(context.Background(), runID, status, errorMessage)
}

// flushProgress persists counters and cursor together. Uses a background
// context so a cancelled run still records its last position.
func (s *RunnerService) flushProgress(run *models.CleanupRun) {
	if err := s.runRepo.SaveProgress(context.Background(), run); err != nil {
		s.log.Errorf("Failed to persist progress for run %s: %v", run.ID, err)
	}
}

func (s *RunnerService) recordAction(run *models.CleanupRun, senderEmail string, actionType enum.ActionType, emailCount int, bytesFreed int64, notes string) {
	action := &models.CleanupAction{
		RunID:       run.ID,
		ActionType:  actionType,
		SenderEmail: senderEmail,
		EmailCount:  emailCount,
		BytesFreed:  bytesFreed,
		Notes:       notes,
	}
	if err := s.actionRepo.Create(context.Background(), action); err != nil {
		s.log.Errorf("Failed to record %s action for %s: %v", actionType, senderEmail, err)
	}
}
