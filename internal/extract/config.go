package extract

import (
	"fmt"
	"time"
)

// Config holds the configuration for the extraction coordinator.
type Config struct {
	// MaxConcurrentJobs bounds how many extraction jobs run at once.
	// Free-tier jobs count double against this bound.
	// Default: 4
	MaxConcurrentJobs int

	// PagesPerVariant is how many result pages are fetched per query variant.
	// It is part of the request fingerprint, so changing it at runtime makes
	// previously-seen requests look new.
	// Default: 3
	PagesPerVariant int

	// JobTimeout is the maximum time a single extraction job may run.
	// If exceeded, the job's context is canceled and it's marked as failed.
	// Default: 10 minutes
	JobTimeout time.Duration

	// RetainFinished is how long finished job records stay pollable before
	// the janitor evicts them.
	// Default: 1 hour
	RetainFinished time.Duration

	// JanitorInterval is how often the janitor sweeps finished records.
	// Default: 5 minutes
	JanitorInterval time.Duration

	// ShutdownTimeout is how long Stop waits for running jobs to finish.
	// Default: 30 seconds
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentJobs: 4,
		PagesPerVariant:   3,
		JobTimeout:        10 * time.Minute,
		RetainFinished:    1 * time.Hour,
		JanitorInterval:   5 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
	}
}

// Validate checks if the configuration is valid.
// Returns an error if any values are invalid.
func (c Config) Validate() error {
	if c.MaxConcurrentJobs < 2 {
		return fmt.Errorf("max concurrent jobs must be at least 2, got %d", c.MaxConcurrentJobs)
	}
	if c.MaxConcurrentJobs > 100 {
		return fmt.Errorf("max concurrent jobs too high (max 100), got %d", c.MaxConcurrentJobs)
	}
	if c.PagesPerVariant < 1 {
		return fmt.Errorf("pages per variant must be at least 1, got %d", c.PagesPerVariant)
	}
	if c.PagesPerVariant > 50 {
		return fmt.Errorf("pages per variant too high (max 50), got %d", c.PagesPerVariant)
	}
	if c.JobTimeout < 1*time.Second {
		return fmt.Errorf("job timeout must be at least 1 second, got %v", c.JobTimeout)
	}
	if c.RetainFinished < 1*time.Minute {
		return fmt.Errorf("retain finished must be at least 1 minute, got %v", c.RetainFinished)
	}
	if c.JanitorInterval < 1*time.Second {
		return fmt.Errorf("janitor interval must be at least 1 second, got %v", c.JanitorInterval)
	}
	if c.ShutdownTimeout < 1*time.Second {
		return fmt.Errorf("shutdown timeout must be at least 1 second, got %v", c.ShutdownTimeout)
	}
	return nil
}
