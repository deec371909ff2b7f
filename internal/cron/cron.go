package cron

import (
	"context"
	"os"
	"sync"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"

	cron_config "github.com/inboxpurge/inboxpurge/internal/cron/config"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/tracing"
	"github.com/inboxpurge/inboxpurge/services/discovery"
)

// GroupDiscovery serializes discovery jobs so overlapping schedules
// never sweep the mailbox concurrently.
const GroupDiscovery = "discovery"

var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupDiscovery: new(sync.Mutex),
	},
}

type CronManager struct {
	log       logger.Logger
	cron      *cronv3.Cron
	stopCh    chan struct{}
	jobIDs    map[string]cronv3.EntryID
	discovery *discovery.DiscoveryService
	cfg       cron_config.Config
}

func NewCronManager(log logger.Logger, discoveryService *discovery.DiscoveryService) *CronManager {
	return &CronManager{
		log:       log,
		stopCh:    make(chan struct{}),
		jobIDs:    make(map[string]cronv3.EntryID),
		discovery: discoveryService,
	}
}

// Start initializes and starts the cron scheduler.
func (cm *CronManager) Start() {
	cm.log.Info("Starting cron manager")

	if err := env.Parse(&cm.cfg); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	close(cm.stopCh)
}

func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	if cm.cfg.CronScheduleHeartbeat != "" {
		hostname, _ := os.Hostname()
		id, err := c.AddFunc(cm.cfg.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from %s", hostname)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cm.cfg.CronScheduleHeartbeat)
	}

	if cm.cfg.CronScheduleDiscoveryRefresh != "" {
		id, err := c.AddFunc(cm.cfg.CronScheduleDiscoveryRefresh, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupDiscovery].Lock()
			defer jobLocks.locks[GroupDiscovery].Unlock()
			cm.refreshSenders()
		})
		if err != nil {
			cm.log.Fatalf("Could not add discovery refresh cron job: %v", err)
		}
		cm.jobIDs["discovery_refresh"] = id
		cm.log.Infof("Registered discovery refresh job with schedule: %s", cm.cfg.CronScheduleDiscoveryRefresh)
	}
}

func (cm *CronManager) refreshSenders() {
	cm.log.Info("Running incremental sender discovery")

	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.refreshSenders")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	found, err := cm.discovery.DiscoverNewSenders(ctx, cm.cfg.DiscoveryRefreshDaysBack)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to refresh senders: %v", err)
		return
	}

	cm.log.Infof("Incremental discovery recorded %d senders", found)
}
