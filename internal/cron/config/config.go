package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Incremental sender discovery, daily at 03:00
	CronScheduleDiscoveryRefresh string `env:"CRON_SCHEDULE_DISCOVERY_REFRESH" envDefault:"0 0 3 * * *"`
	// How far back the incremental discovery sweep looks
	DiscoveryRefreshDaysBack int `env:"CRON_DISCOVERY_REFRESH_DAYS_BACK" envDefault:"2"`
}
