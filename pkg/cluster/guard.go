// Package cluster implements the Cluster Guard: a process-wide invariant
// that only a configured allow-list of clusters is ever contacted. Every
// K8s-targeting tool must call Require before building a client.
package cluster

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/codeready-toolchain/sentryd/pkg/config"
)

// ErrNotAllowed is returned by Require when the named cluster is not in the
// configured allow-list.
var ErrNotAllowed = fmt.Errorf("cluster not allow-listed")

// Guard is the immutable, process-wide allow-list singleton. Built once at
// boot from config.Config.Clusters and never mutated afterward.
type Guard struct {
	allowed map[string]config.ClusterConfig
}

var (
	instance *Guard
	initOnce sync.Once
)

// Init builds the process-wide Guard from the given cluster list. Safe to
// call more than once; only the first call has effect, matching the
// "immutable after boot" invariant.
func Init(clusters []config.ClusterConfig) *Guard {
	initOnce.Do(func() {
		allowed := make(map[string]config.ClusterConfig, len(clusters))
		for _, c := range clusters {
			allowed[c.Name] = c
		}
		instance = &Guard{allowed: allowed}
	})
	return instance
}

// Instance returns the process-wide Guard. Panics if Init has not run —
// every entrypoint must call Init during boot before touching a cluster.
func Instance() *Guard {
	if instance == nil {
		panic("cluster guard: Init was never called")
	}
	return instance
}

// Require returns nil if name is allow-listed, or a wrapped ErrNotAllowed
// otherwise. Every K8s-targeting tool invocation must call this before
// building or reusing a client for that cluster.
func (g *Guard) Require(name string) error {
	if _, ok := g.allowed[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotAllowed, name)
	}
	return nil
}

// Lookup returns the full cluster identity for an allow-listed name.
func (g *Guard) Lookup(name string) (config.ClusterConfig, bool) {
	c, ok := g.allowed[name]
	return c, ok
}

// Names returns the allow-listed cluster names, in no particular order.
func (g *Guard) Names() []string {
	names := make([]string, 0, len(g.allowed))
	for n := range g.allowed {
		names = append(names, n)
	}
	return names
}

// MustRequire enforces the boot-time Cluster Guard invariant: if the
// configured target cluster is not allow-listed, the process exits
// non-zero with a fatal log entry, before any HTTP listener opens or any
// LLM call is made.
func MustRequire(g *Guard, targetCluster string) {
	if err := g.Require(targetCluster); err != nil {
		slog.Error("cluster guard violation at boot — refusing to start",
			"target_cluster", targetCluster, "error", err)
		os.Exit(1)
	}
}
