package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
	"github.com/codeready-toolchain/sentryd/pkg/config"
	"github.com/codeready-toolchain/sentryd/pkg/llm"
	"github.com/codeready-toolchain/sentryd/pkg/session"
)

// builtinPrompts gives every fixed subagent profile a default system prompt,
// used when a SubAgentConfig doesn't override it with CustomInstructions.
var builtinPrompts = map[config.SubAgentName]string{
	config.SubAgentDiagnostics: "You are the diagnostics subagent for a Kubernetes " +
		"incident triage system. Scan the given namespaces and report every " +
		"non-healthy workload you find, each with a severity, a kind, and the " +
		"evidence you observed. Respond with nothing but a JSON array of findings.",
	config.SubAgentLogAnalyzer: "You are the log-analyzer subagent. Fetch and read " +
		"recent logs and events for the given workload and summarize the root " +
		"cause evidence in a few sentences.",
	config.SubAgentRemediation: "You are the remediation subagent. You may only " +
		"take the single approved remediation action described in the task. " +
		"Report what you did and its outcome.",
	config.SubAgentCostOptimizer: "You are the cost/traffic correlation subagent. " +
		"Query the given metrics and report whether the observed behavior " +
		"correlates with an egress, IO, or cost anomaly.",
	config.SubAgentGitHub: "You are the deployment-correlation subagent. Given a " +
		"repository and a detection window, report pull requests merged in " +
		"that window that could plausibly explain the incident.",
	config.SubAgentJira: "You are the ticketing subagent. Search, create, or " +
		"comment on tickets exactly as instructed in the task; do not take any " +
		"other action.",
}

// delegator runs one isolated LLM Driver turn scoped to a subagent
// profile's tool subset and system prompt, invoked by the orchestrator
// via a "delegate" operation.
type delegator struct {
	registry *config.SubAgentRegistry
	driver   *llm.Driver
	catalog  *catalog.Catalog
}

func newDelegator(registry *config.SubAgentRegistry, driver *llm.Driver, cat *catalog.Catalog) *delegator {
	return &delegator{registry: registry, driver: driver, catalog: cat}
}

// delegate seeds a fresh session scoped to name's allowed tool subset,
// advances it once with task as the user turn, and returns the subagent's
// final text. Each delegation gets its own session: subagent context never
// leaks between delegations or back into the orchestrator's own session.
func (d *delegator) delegate(ctx context.Context, name config.SubAgentName, task string) (string, error) {
	profile, err := d.registry.Get(name)
	if err != nil {
		return "", fmt.Errorf("orchestrator: delegate %s: %w", name, err)
	}

	prompt := profile.CustomInstructions
	if prompt == "" {
		prompt = builtinPrompts[name]
	}

	scoped := d.catalog.SubsetByTargetSystem(profile.Tools)
	sess := session.NewSession(uuid.New().String(), prompt, 64000)

	budget := llm.DefaultBudget()
	if profile.MaxToolCalls != nil {
		budget.MaxToolCalls = *profile.MaxToolCalls
	}
	if profile.Timeout != nil {
		budget.WallClockDeadline = *profile.Timeout
	}

	outcome, err := d.driver.Advance(ctx, sess, task, scoped, budget)
	if err != nil {
		return "", fmt.Errorf("orchestrator: delegate %s: %w", name, err)
	}
	return outcome.FinalText, nil
}
