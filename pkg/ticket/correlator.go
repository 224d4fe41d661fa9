package ticket

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
	"github.com/codeready-toolchain/sentryd/pkg/config"
	"github.com/codeready-toolchain/sentryd/pkg/masking"
	"github.com/codeready-toolchain/sentryd/pkg/orchestrator"
)

// dedupState tracks what the correlator last told an open ticket, so the
// significance gates can be evaluated without a
// round-trip to re-read and re-parse tracker comment history on every
// cycle. The durable source of truth remains the comment body itself
// (each comment embeds its metrics snapshot); this cache only spans the
// lifetime of one orchestrator process, which owns every cycle that would
// otherwise need it.
type dedupState struct {
	ref          Ref
	lastCommentAt time.Time
	lastRestartCount int
	lastSeverity config.Severity
	lastErrorSignature string
	lastStatus   string
	firstDetectionDone bool
}

// Correlator implements the create-vs-comment ticket correlation decision.
type Correlator struct {
	cat        *catalog.Catalog
	thresholds *config.ThresholdsConfig
	masker     *masking.MaskingService

	mu    sync.Mutex
	state map[string]*dedupState
}

// New builds a Correlator. masker may be nil (masking disabled).
func New(cat *catalog.Catalog, thresholds *config.ThresholdsConfig, masker *masking.MaskingService) *Correlator {
	return &Correlator{
		cat:        cat,
		thresholds: thresholds,
		masker:     masker,
		state:      make(map[string]*dedupState),
	}
}

func stateKey(in orchestrator.CorrelationInput) string {
	return strings.Join([]string{in.Cluster, in.Namespace, string(in.Kind)}, "|")
}

func summaryFor(in orchestrator.CorrelationInput) string {
	return fmt.Sprintf("[%s] %s: %s", in.Cluster, in.Component, in.Kind)
}

func (c *Correlator) trackerFor(in orchestrator.CorrelationInput) tracker {
	if in.JiraProject != "" {
		return &jiraTracker{cat: c.cat, project: in.JiraProject}
	}
	return &githubTracker{cat: c.cat}
}

func priorityFor(sev config.Severity) string {
	switch sev {
	case config.SeverityCritical:
		return "Highest"
	case config.SeverityHigh:
		return "High"
	case config.SeverityWarning:
		return "Medium"
	default:
		return "Low"
	}
}

// Correlate implements the create-vs-comment decision: search for an
// existing open ticket by exact summary match;
// if none, create one (subject to AllowCreate); if one exists, comment
// only when both the time/status gate and the significance gate hold.
func (c *Correlator) Correlate(ctx context.Context, in orchestrator.CorrelationInput) (orchestrator.CorrelationOutcome, error) {
	key := stateKey(in)
	summary := summaryFor(in)
	tr := c.trackerFor(in)

	c.mu.Lock()
	cached, known := c.state[key]
	c.mu.Unlock()

	var ref *Ref
	if known {
		r := cached.ref
		ref = &r
	} else {
		found, err := tr.search(ctx, summary)
		if err != nil {
			return orchestrator.CorrelationOutcome{}, err
		}
		ref = found
	}

	if ref == nil {
		if in.Resolved {
			return orchestrator.CorrelationOutcome{Reason: "no existing ticket; nothing to resolve"}, nil
		}
		if !in.AllowCreate {
			return orchestrator.CorrelationOutcome{Reason: "no existing ticket; severity below creation threshold"}, nil
		}

		body := c.renderCreateBody(in)
		created, err := tr.create(ctx, summary, body, priorityFor(in.Severity))
		if err != nil {
			return orchestrator.CorrelationOutcome{}, err
		}

		c.mu.Lock()
		c.state[key] = &dedupState{
			ref: created, lastCommentAt: time.Now(), lastRestartCount: in.RestartCount,
			lastSeverity: in.Severity, lastErrorSignature: in.ErrorSignature,
			lastStatus: "open", firstDetectionDone: true,
		}
		c.mu.Unlock()

		return orchestrator.CorrelationOutcome{TicketKey: created.Key, TicketURL: created.URL, Created: true, Reason: "created"}, nil
	}

	prev := cached
	if prev == nil {
		prev = &dedupState{ref: *ref}
	}

	gateA, gateAReason := c.timeOrStatusGate(*prev, in)
	gateB, gateBReason := c.significanceGate(*prev, in)

	if !gateA || !gateB {
		reason := "no comment: "
		if !gateA {
			reason += gateAReason
		} else {
			reason += gateBReason
		}
		return orchestrator.CorrelationOutcome{TicketKey: ref.Key, TicketURL: ref.URL, Reason: reason}, nil
	}

	body := c.renderCommentBody(in, prev)
	if err := tr.comment(ctx, ref.Key, body); err != nil {
		return orchestrator.CorrelationOutcome{}, err
	}

	c.mu.Lock()
	if in.Resolved {
		delete(c.state, key)
	} else {
		c.state[key] = &dedupState{
			ref: *ref, lastCommentAt: time.Now(), lastRestartCount: in.RestartCount,
			lastSeverity: in.Severity, lastErrorSignature: in.ErrorSignature,
			lastStatus: string(in.Severity), firstDetectionDone: true,
		}
	}
	c.mu.Unlock()

	reason := "commented"
	if in.Resolved {
		reason = "resolved"
	}
	return orchestrator.CorrelationOutcome{TicketKey: ref.Key, TicketURL: ref.URL, CommentAdded: true, Reason: reason}, nil
}

// timeOrStatusGate implements gate A: hours since last comment >= 24, or
// observed status/severity changed, or the finding just resolved (a
// resolution is always reported regardless of timing).
func (c *Correlator) timeOrStatusGate(prev dedupState, in orchestrator.CorrelationInput) (bool, string) {
	if in.Resolved {
		return true, ""
	}
	minInterval := 24 * time.Hour
	if c.thresholds != nil && c.thresholds.CommentMinInterval > 0 {
		minInterval = c.thresholds.CommentMinInterval
	}
	if time.Since(prev.lastCommentAt) >= minInterval {
		return true, ""
	}
	if prev.lastSeverity != "" && prev.lastSeverity != in.Severity {
		return true, ""
	}
	return false, "gate A: within comment interval and no status change"
}

// significanceGate implements gate B: restart delta, new error pattern,
// severity change, remediation attempted this cycle, resolution, or first
// detection.
func (c *Correlator) significanceGate(prev dedupState, in orchestrator.CorrelationInput) (bool, string) {
	if in.Resolved {
		return true, ""
	}

	delta := in.RestartCount - prev.lastRestartCount
	significant := 10
	if c.thresholds != nil && c.thresholds.RestartDeltaSignificant > 0 {
		significant = c.thresholds.RestartDeltaSignificant
	}
	if delta >= significant {
		return true, ""
	}
	if prev.lastSeverity != in.Severity {
		return true, ""
	}
	if in.ErrorSignature != "" && prev.lastErrorSignature != "" && in.ErrorSignature != prev.lastErrorSignature {
		return true, ""
	}
	if in.RemediationAttempted {
		return true, ""
	}
	if !prev.firstDetectionDone {
		return true, ""
	}
	return false, "gate B: no significant change since last comment"
}
