// Package kubernetes implements the Tool Catalog's Kubernetes adapter:
// read tools (list/get pods, events, logs, top, nodes, deployments) and
// a small set of write/destructive remediation tools (rollout restart,
// scale, delete pod, apply manifest). Every client is built against a
// single Cluster Guard-checked cluster and never reaches outside it.
package kubernetes

import (
	"context"
	"fmt"
	"time"

	metricsv1beta1 "k8s.io/metrics/pkg/client/clientset/versioned"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/codeready-toolchain/sentryd/pkg/cluster"
	"github.com/codeready-toolchain/sentryd/pkg/config"
)

// DefaultTimeout bounds a single Kubernetes API call. Catalog-level retry
// covers transient throttling above this.
const DefaultTimeout = 15 * time.Second

// Client wraps the generated clientset for one allow-listed cluster.
type Client struct {
	ClusterName string
	Clientset   kubernetes.Interface
	Metrics     metricsv1beta1.Interface
	Timeout     time.Duration
}

// NewClient builds a Client for clusterName after checking it against the
// process-wide Cluster Guard. It tries in-cluster config first (the
// orchestrator normally runs inside the target cluster), then falls back
// to the cluster's configured kubeconfig path and context.
func NewClient(g *cluster.Guard, clusterName string) (*Client, error) {
	if err := g.Require(clusterName); err != nil {
		return nil, fmt.Errorf("kubernetes client: %w", err)
	}
	cc, _ := g.Lookup(clusterName)

	restCfg, err := buildRestConfig(cc)
	if err != nil {
		return nil, fmt.Errorf("kubernetes client: %w", err)
	}

	cs, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("kubernetes client: building clientset: %w", err)
	}
	ms, err := metricsv1beta1.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("kubernetes client: building metrics client: %w", err)
	}

	return &Client{ClusterName: clusterName, Clientset: cs, Metrics: ms, Timeout: DefaultTimeout}, nil
}

func buildRestConfig(cc config.ClusterConfig) (*rest.Config, error) {
	if cc.Kubeconfig == "" {
		return rest.InClusterConfig()
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	loadingRules.ExplicitPath = cc.Kubeconfig
	overrides := &clientcmd.ConfigOverrides{}
	if cc.Context != "" {
		overrides.CurrentContext = cc.Context
	}

	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides).ClientConfig()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.Timeout)
}
