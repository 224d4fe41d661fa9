package safety

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
	"github.com/codeready-toolchain/sentryd/pkg/cluster"
)

// Verdict is the validator's decision for one Invocation.
type Verdict struct {
	Allow  bool
	Reason string
}

func allow(reason string) Verdict { return Verdict{Allow: true, Reason: reason} }
func deny(reason string) Verdict  { return Verdict{Allow: false, Reason: reason} }

// deleteLikeTools are write/destructive tools whose effect is irreversible
// deletion, used by the protected-namespace rule.
var deleteLikeTools = map[string]bool{
	"delete_pod":       true,
	"delete_namespace": true,
	"delete_pv":        true,
}

// secretPathMarkers flags any file-path argument that looks like it might
// touch credential material.
var secretPathMarkers = []string{"secret", "credential", ".env", "token"}

// Validator holds the hard-coded rule table governing tool invocations.
// Rules are evaluated in the table's order; the first match decides.
type Validator struct {
	guard              *cluster.Guard
	protectedNamespaces map[string]bool
}

// NewValidator builds a Validator. protectedNamespaces should always
// include kube-system and kube-public plus any configured production
// namespace; callers pass the merged set so this package stays free of
// config-loading concerns.
func NewValidator(g *cluster.Guard, protectedNamespaces []string) *Validator {
	set := make(map[string]bool, len(protectedNamespaces)+2)
	set["kube-system"] = true
	set["kube-public"] = true
	for _, ns := range protectedNamespaces {
		set[ns] = true
	}
	return &Validator{guard: g, protectedNamespaces: set}
}

// Validate applies the rule table to inv and returns the first matching
// verdict, defaulting to Allow when nothing matches.
func (v *Validator) Validate(inv Invocation) Verdict {
	var args map[string]any
	_ = json.Unmarshal(inv.Args, &args)

	if inv.Category == catalog.CategoryDestructive && !requireAllowedCluster(v.guard, inv.Cluster) {
		return deny(fmt.Sprintf("destructive tool %q targets cluster %q, which is not allow-listed", inv.Tool, inv.Cluster))
	}

	namespace, _ := args["namespace"].(string)
	if v.protectedNamespaces[namespace] && inv.Category != catalog.CategoryRead && deleteLikeTools[inv.Tool] {
		return deny(fmt.Sprintf("tool %q would delete in protected namespace %q", inv.Tool, namespace))
	}

	switch inv.Tool {
	case "delete_namespace", "delete_pv":
		return deny(fmt.Sprintf("tool %q is never allowed", inv.Tool))
	}
	if touchesClusterRole(inv.Tool, args) {
		return deny(fmt.Sprintf("tool %q touches a cluster role", inv.Tool))
	}

	if inv.Tool == "rollout_restart" {
		if replicas, ok := args["current_replicas"].(float64); ok && replicas < 2 {
			return deny("rollout_restart on a Deployment with fewer than 2 replicas would cause downtime")
		}
	}

	if inv.Tool == "scale_deployment" {
		current, curOK := args["current_replicas"].(float64)
		desired, desOK := args["replicas"].(float64)
		if curOK && desOK {
			delta := desired - current
			if delta < 0 {
				delta = -delta
			}
			if delta > 2 {
				return deny("scale_deployment step exceeds the +/-2 replica safety limit")
			}
		}
	}

	if inv.Tool == "delete_pod" && v.protectedNamespaces[namespace] {
		return deny(fmt.Sprintf("delete_pod targets system namespace %q", namespace))
	}

	if path, ok := args["path"].(string); ok && containsSecretMarker(path) {
		return deny(fmt.Sprintf("tool %q would write to a path that looks like it holds secret material: %q", inv.Tool, path))
	}
	if manifest, ok := args["manifest"].(string); ok && containsSecretMarker(manifest) {
		return deny(fmt.Sprintf("tool %q manifest argument references secret-like content", inv.Tool))
	}

	return allow("no rule matched; default allow")
}

func touchesClusterRole(tool string, args map[string]any) bool {
	if strings.Contains(strings.ToLower(tool), "clusterrole") {
		return true
	}
	if kind, ok := args["kind"].(string); ok && strings.EqualFold(kind, "ClusterRole") {
		return true
	}
	return false
}

func containsSecretMarker(s string) bool {
	lower := strings.ToLower(s)
	for _, marker := range secretPathMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
