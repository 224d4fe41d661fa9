package config

import "time"

// CycleConfig controls the monitoring orchestrator's diagnose-correlate-
// escalate-act-report loop.
type CycleConfig struct {
	// Interval is the base time between monitoring cycles.
	Interval time.Duration `yaml:"interval"`

	// IntervalJitter is random jitter added to Interval to avoid thundering
	// herds when multiple orchestrator instances run.
	IntervalJitter time.Duration `yaml:"interval_jitter"`

	// Budget is the maximum wall-clock time a single cycle may run before
	// it is cut short and a partial report is written.
	Budget time.Duration `yaml:"budget"`

	// MaxConcurrentFindings bounds how many findings are investigated
	// (log-analyzer/correlation delegation) concurrently within one cycle.
	MaxConcurrentFindings int `yaml:"max_concurrent_findings"`

	// ReportDir is the directory atomic cycle reports are written to.
	ReportDir string `yaml:"report_dir"`
}

// DefaultCycleConfig returns the built-in cycle defaults.
func DefaultCycleConfig() *CycleConfig {
	return &CycleConfig{
		Interval:              5 * time.Minute,
		IntervalJitter:        30 * time.Second,
		Budget:                4 * time.Minute,
		MaxConcurrentFindings: 8,
		ReportDir:             "./reports",
	}
}
