package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
	"github.com/codeready-toolchain/sentryd/pkg/cluster"
	"github.com/codeready-toolchain/sentryd/pkg/config"
	"github.com/codeready-toolchain/sentryd/pkg/llm"
	"github.com/codeready-toolchain/sentryd/pkg/notify"
	"github.com/codeready-toolchain/sentryd/pkg/runbook"
	"github.com/codeready-toolchain/sentryd/pkg/session"
)

// highSeverityThreshold is the "severity >= HIGH" gate: only findings at
// or above this level get correlation/escalation work beyond the plain
// diagnostics pass.
const highSeverityThreshold = config.SeverityHigh

// Orchestrator runs the scheduled monitoring cycle: diagnose, correlate,
// escalate, act, report.
type Orchestrator struct {
	cfg         *config.Config
	cat         *catalog.Catalog
	delegator   *delegator
	correlator  TicketCorrelator
	notifier    *notify.Service
	runbooks    *runbook.Service
	guard       *cluster.Guard
	sessions    *session.Store
	logger      *slog.Logger

	clusterName         string
	remediation         *config.RemediationConfig
	protectedNamespaces map[string]bool

	// running enforces the invariant that cycles never overlap: a tick is
	// skipped entirely if the previous cycle has not finished.
	running atomic.Bool

	// remediationHistory retains the last remediationIdempotenceWindow
	// cycles' applied remediations, in-memory only (data model: "not
	// persisted to disk").
	remediationHistory [][]RemediationRecord

	// tracked carries escalated findings across cycles so a finding that
	// stops being diagnosed can be recognized as resolved instead of
	// silently dropped.
	tracked map[string]*trackedFinding

	// persistentSession is the single long-lived Session the orchestrator
	// owns across its entire lifetime (the persistent-session operational
	// mode decision recorded in DESIGN.md), carrying pinned CRITICAL
	// findings and the previous cycle's summary forward.
	persistentSession *session.Session
}

// Deps bundles the Orchestrator's external collaborators, built once at
// boot in cmd/sentryd and threaded through here.
type Deps struct {
	Config       *config.Config
	Catalog      *catalog.Catalog
	Driver       *llm.Driver
	Correlator   TicketCorrelator
	Notifier     *notify.Service
	Runbooks     *runbook.Service
	Guard        *cluster.Guard
	Sessions     *session.Store
	ClusterName  string
	ProtectedNamespaces []string
	Logger       *slog.Logger
}

// New builds an Orchestrator and its single persistent session.
func New(d Deps) *Orchestrator {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	protected := make(map[string]bool, len(d.ProtectedNamespaces)+2)
	protected["kube-system"] = true
	protected["kube-public"] = true
	for _, ns := range d.ProtectedNamespaces {
		protected[ns] = true
	}

	sess := d.Sessions.Create(orchestratorSystemPrompt, 200000)

	return &Orchestrator{
		cfg:                 d.Config,
		cat:                 d.Catalog,
		delegator:           newDelegator(d.Config.SubAgentRegistry, d.Driver, d.Catalog),
		correlator:          d.Correlator,
		notifier:            d.Notifier,
		runbooks:            d.Runbooks,
		guard:               d.Guard,
		sessions:            d.Sessions,
		logger:              logger,
		clusterName:         d.ClusterName,
		remediation:         d.Config.Remediation,
		protectedNamespaces: protected,
		persistentSession:   sess,
		tracked:             make(map[string]*trackedFinding),
	}
}

const orchestratorSystemPrompt = "You are the monitoring orchestrator's persistent " +
	"context for a Kubernetes incident triage system. You do not call tools " +
	"directly; you track the summary of each completed cycle and any findings " +
	"pinned into you for future reference."

// Run starts the scheduled cycle loop and blocks until ctx is cancelled.
// Each tick is skipped if the previous cycle has not finished, per the
// non-overlap invariant.
func (o *Orchestrator) Run(ctx context.Context) {
	interval := o.cfg.Cycle.Interval
	for {
		jitter := time.Duration(rand.Int63n(int64(o.cfg.Cycle.IntervalJitter) + 1))
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval + jitter):
		}

		if !o.running.CompareAndSwap(false, true) {
			o.logger.Warn("skipping tick: previous cycle still running")
			continue
		}
		go func() {
			defer o.running.Store(false)
			o.runCycle(ctx)
		}()
	}
}

// runCycle executes one full diagnose-correlate-escalate-act-report pass,
// bounded by the configured cycle budget. It never returns an error:
// failures are captured in the written report so a bad cycle never takes
// the scheduler down with it.
func (o *Orchestrator) runCycle(parent context.Context) CycleReport {
	cycleID := uuid.New().String()
	started := time.Now()
	ctx, cancel := context.WithTimeout(parent, o.cfg.Cycle.Budget)
	defer cancel()

	report := CycleReport{CycleID: cycleID, StartedAt: started}
	cycleRemediations := make([]RemediationRecord, 0)

	findings, err := o.diagnose(ctx, cycleID)
	if err != nil {
		report.Error = err.Error()
		report.Partial = true
		o.finish(&report, started, cycleRemediations)
		return report
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return severityRank(findings[i].Severity) > severityRank(findings[j].Severity)
	})

	presentKeys := make(map[string]bool)

	for i := range findings {
		if ctx.Err() != nil {
			report.Partial = true
			break
		}

		f := &findings[i]
		if !f.Severity.AtLeast(highSeverityThreshold) {
			continue
		}

		o.correlate(ctx, f)

		action := o.escalate(ctx, cycleID, *f, &cycleRemediations)
		report.ActionsTaken = append(report.ActionsTaken, action)
		if action.TicketKey != "" {
			report.TicketsTouched = append(report.TicketsTouched, action.TicketKey)
		}
		if action.Action == "ticket" || action.Action == "comment" {
			presentKeys[findingTrackKey(f.Cluster, f.Namespace, f.Kind)] = true
		}

		if f.Severity == config.SeverityCritical {
			o.persistentSession.Pin(len(o.persistentSession.Snapshot().Messages))
			o.persistentSession.Append(session.Message{
				Kind: session.KindAssistantText,
				Text: fmt.Sprintf("CRITICAL finding pinned: %s/%s (%s)", f.Namespace, f.Workload, f.Kind),
			})
		}
	}

	o.detectResolved(ctx, presentKeys)

	report.Findings = findings
	o.finish(&report, started, cycleRemediations)
	return report
}

func (o *Orchestrator) finish(report *CycleReport, started time.Time, remediations []RemediationRecord) {
	report.FinishedAt = time.Now()
	report.DurationMS = report.FinishedAt.Sub(started).Milliseconds()

	o.remediationHistory = pruneRemediationHistory(append(o.remediationHistory, remediations))

	o.persistentSession.Append(session.Message{
		Kind: session.KindAssistantText,
		Text: fmt.Sprintf("cycle %s finished: %d findings, %d actions, partial=%v",
			report.CycleID, len(report.Findings), len(report.ActionsTaken), report.Partial),
	})

	if err := writeReport(o.cfg.Cycle.ReportDir, *report); err != nil {
		o.logger.Error("failed to write cycle report", "cycle_id", report.CycleID, "error", err)
	}
}

func severityRank(s config.Severity) int {
	switch s {
	case config.SeverityCritical:
		return 3
	case config.SeverityHigh:
		return 2
	case config.SeverityWarning:
		return 1
	default:
		return 0
	}
}
