// Package orchestrator implements the Monitoring Orchestrator: the
// long-running control loop that drives bounded diagnose-correlate-
// escalate-act-report cycles against the configured clusters.
package orchestrator

import (
	"context"
	"time"

	"github.com/codeready-toolchain/sentryd/pkg/config"
)

// DeploymentCorrelation records one GitHub pull request whose merge time
// overlaps a Finding's detection window, attached during the correlation
// step of a cycle.
type DeploymentCorrelation struct {
	Number   int       `json:"number"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	MergedAt time.Time `json:"merged_at"`
}

// Finding is one diagnosed problem surfaced by the diagnostics subagent
// and enriched through the rest of the cycle.
type Finding struct {
	ID                    string                  `json:"id"`
	Severity              config.Severity         `json:"severity"`
	Cluster               string                  `json:"cluster"`
	Namespace             string                  `json:"namespace"`
	Workload              string                  `json:"workload"`
	Kind                  config.FindingKind      `json:"kind"`
	Evidence              []string                `json:"evidence,omitempty"`
	FirstSeen             time.Time               `json:"first_seen"`
	LastSeen              time.Time               `json:"last_seen"`
	RestartCount          int                     `json:"restart_count,omitempty"`
	CorrelatedDeployments []DeploymentCorrelation `json:"correlated_deployments,omitempty"`
	CorrelatedTraffic     string                  `json:"correlated_traffic,omitempty"`
}

// downtime approximates a "recovery > max_downtime" input as the span the
// finding has been continuously observed.
func (f Finding) downtime() time.Duration {
	return f.LastSeen.Sub(f.FirstSeen)
}

// ActionRecord is one escalation decision taken for a Finding during a
// cycle, persisted into the Cycle Report for audit/debugging.
type ActionRecord struct {
	FindingID    string `json:"finding_id"`
	Namespace    string `json:"namespace"`
	Workload     string `json:"workload"`
	Action       string `json:"action"` // "ticket", "comment", "log_only", "remediate"
	TicketKey    string `json:"ticket_key,omitempty"`
	CommentAdded bool   `json:"comment_added"`
	Remediated   bool   `json:"remediated"`
	Reason       string `json:"reason,omitempty"`
}

// RemediationRecord is the in-memory, cycle-scoped remediation idempotence
// record from the data model: never persisted to disk, retained only
// across the two most recent cycles.
type RemediationRecord struct {
	FindingID string
	Kind      config.RemediationKind
	Cluster   string
	Namespace string
	Workload  string
	AppliedAt time.Time
	CycleID   string
}

// CycleReport is the on-disk artifact written atomically at the end of
// every cycle, whether it completed or was cut short by its budget.
type CycleReport struct {
	CycleID        string         `json:"cycle_id"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Findings       []Finding      `json:"findings"`
	ActionsTaken   []ActionRecord `json:"actions_taken"`
	TicketsTouched []string       `json:"tickets_touched"`
	TokensUsed     int            `json:"tokens_used"`
	DurationMS     int64          `json:"duration_ms"`
	Partial        bool           `json:"partial"`
	Error          string         `json:"error,omitempty"`
}

// CorrelationInput is what the orchestrator hands the Ticket Correlator
// for one escalated Finding.
type CorrelationInput struct {
	Cluster               string
	Namespace             string
	Component             string
	Kind                   config.FindingKind
	Severity               config.Severity
	Evidence               []string
	RestartCount           int
	CorrelatedDeployments  []DeploymentCorrelation
	JiraProject            string
	RepoOwner, RepoName    string

	// AllowCreate gates whether the correlator may open a new ticket when
	// no match is found. MEDIUM-severity findings may only comment on an
	// existing ticket, never create one (escalation step 5).
	AllowCreate bool

	// ErrorSignature fingerprints the current cycle's evidence so the
	// correlator can detect a newly distinct failure mode even when
	// severity and restart count haven't moved.
	ErrorSignature string

	// RemediationAttempted reports whether auto-remediation ran against
	// this finding earlier in the same escalation, so the comment gate
	// can surface the attempt even absent any other change.
	RemediationAttempted bool

	// Resolved marks this call as a resolution notice: the finding has
	// been continuously absent for the configured stable duration and
	// the correlator should comment (never create) and stop tracking it.
	Resolved bool
}

// CorrelationOutcome is the Ticket Correlator's decision for one Finding.
type CorrelationOutcome struct {
	TicketKey    string
	TicketURL    string
	Created      bool
	CommentAdded bool
	Reason       string
}

// TicketCorrelator is the Ticket Correlation & Smart Commenting Engine's
// public seam, implemented by pkg/ticket.Correlator. Declared here (rather
// than imported as a concrete type) to keep pkg/orchestrator buildable and
// testable without pulling in the GitHub/Jira adapters.
type TicketCorrelator interface {
	Correlate(ctx context.Context, in CorrelationInput) (CorrelationOutcome, error)
}
