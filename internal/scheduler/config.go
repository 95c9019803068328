package scheduler

import (
	"strings"
	"time"

	"github.com/ksheermitra/backend/internal/config"
)

// Config controls the cron schedule and job limits.
type Config struct {
	Enabled     bool
	MonthlySpec string
	Timezone    string
	JobTimeout  time.Duration
	// LockExpiry bounds how long a crashed replica can hold a job lock.
	LockExpiry time.Duration
}

func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		MonthlySpec: config.DefaultMonthlySpec,
		Timezone:    "UTC",
		JobTimeout:  10 * time.Minute,
		LockExpiry:  15 * time.Minute,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Enabled:     cfg.Scheduler.Enabled,
		MonthlySpec: cfg.Scheduler.MonthlySpec,
		Timezone:    cfg.Scheduler.Timezone,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if strings.TrimSpace(c.MonthlySpec) == "" {
		c.MonthlySpec = defaults.MonthlySpec
	}
	if strings.TrimSpace(c.Timezone) == "" {
		c.Timezone = defaults.Timezone
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.LockExpiry <= 0 {
		c.LockExpiry = defaults.LockExpiry
	}
	return c
}
