// Package safety implements the Safety Hook Chain: the pre-execution
// gate every tool call passes through before reaching the Tool Catalog.
// Each call moves through Pending -> Validated -> Logged -> Notified ->
// (Allow | Deny); a Deny from the validator short-circuits execution but
// logging always runs.
package safety

import (
	"context"
	"encoding/json"

	"github.com/codeready-toolchain/sentryd/pkg/audit"
	"github.com/codeready-toolchain/sentryd/pkg/catalog"
	"github.com/codeready-toolchain/sentryd/pkg/cluster"
	"github.com/codeready-toolchain/sentryd/pkg/masking"
	"github.com/codeready-toolchain/sentryd/pkg/notify"
)

// Invocation is the pending request the chain evaluates before the Tool
// Catalog ever sees it.
type Invocation struct {
	Tool      string
	Args      json.RawMessage
	Category  catalog.Category
	Cluster   string
	CycleID   string
	SessionID string
}

// Chain wires the Validator, the audit Logger, and the Notifier into the
// single entry point Evaluate/Execute. Constructed once per process and
// shared across every tool invocation.
type Chain struct {
	validator *Validator
	logger    *audit.Logger
	notifier  *notify.Service
	catalog   *catalog.Catalog
	masker    *masking.MaskingService
}

// NewChain builds a Chain. masker may be nil (masking disabled).
func NewChain(v *Validator, logger *audit.Logger, notifier *notify.Service, c *catalog.Catalog, masker *masking.MaskingService) *Chain {
	return &Chain{validator: v, logger: logger, notifier: notifier, catalog: c, masker: masker}
}

// Execute runs an Invocation through the full state machine and, only on
// Allow, invokes the underlying catalog tool. A Deny produces a structured
// refusal — never a Go error — so the LLM Driver can hand the same Result
// shape back to the model regardless of outcome. A successful result's
// payload is masked before it is returned, so K8s Secret data or tokens
// surfaced by a tool never reach the session or audit trail verbatim.
func (c *Chain) Execute(ctx context.Context, inv Invocation) catalog.Result {
	verdict := c.validator.Validate(inv)

	c.logAndNotify(ctx, inv, verdict)

	if !verdict.Allow {
		return catalog.Result{
			OK:  false,
			Err: catalog.NewToolError(catalog.ErrorKindValidation, "BLOCKED: "+verdict.Reason),
		}
	}

	result := c.catalog.Invoke(ctx, inv.Tool, inv.Args)
	if c.masker != nil {
		result.Payload = c.masker.MaskToolResult(result.Payload, c.targetSystem(inv.Tool))
	}
	return result
}

// targetSystem looks up the adapter ID (catalog.Descriptor.TargetSystem) a
// tool belongs to, the key the Masking Service's per-adapter rules are
// indexed by.
func (c *Chain) targetSystem(tool string) string {
	t, ok := c.catalog.Get(tool)
	if !ok {
		return ""
	}
	return t.Descriptor.TargetSystem
}

func (c *Chain) logAndNotify(ctx context.Context, inv Invocation, verdict Verdict) {
	decision := audit.DecisionAllow
	if !verdict.Allow {
		decision = audit.DecisionDeny
	}

	if c.logger != nil {
		c.logger.Append(audit.Entry{
			CycleID:   inv.CycleID,
			SessionID: inv.SessionID,
			Tool:      inv.Tool,
			ArgHash:   audit.HashArgs(inv.Args),
			Decision:  decision,
			Reason:    verdict.Reason,
		})
	}

	notifyWorthy := !verdict.Allow || inv.Category == catalog.CategoryDestructive
	if notifyWorthy && c.notifier != nil {
		severity := "INFO"
		if !verdict.Allow {
			severity = "WARNING"
		}
		c.notifier.Send(ctx, notify.Alert{
			Severity:  severity,
			Cluster:   inv.Cluster,
			Component: inv.Tool,
			Kind:      "safety_" + string(decision),
			Summary:   verdict.Reason,
		})
	}
}

// requireAllowedCluster is a small helper the validator uses for the
// cluster-allow-list rule, wired to the shared Cluster Guard singleton
// rather than re-implementing allow-list checks locally.
func requireAllowedCluster(g *cluster.Guard, name string) bool {
	return g.Require(name) == nil
}
