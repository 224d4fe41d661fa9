package config

// ClusterConfig describes one Kubernetes cluster sentryd is allowed to
// operate against.
type ClusterConfig struct {
	// Name is the cluster identifier used in findings, tickets, and
	// notifications (required).
	Name string `yaml:"name" validate:"required"`

	// Kubeconfig is the path to the kubeconfig file for this cluster.
	// Empty means "use in-cluster config" (the process runs inside it).
	Kubeconfig string `yaml:"kubeconfig,omitempty"`

	// Context selects a context within Kubeconfig. Empty uses the
	// kubeconfig's current-context.
	Context string `yaml:"context,omitempty"`

	// Dev marks this cluster as a non-production environment. Auto-
	// remediation is only ever applied when Dev is true.
	Dev bool `yaml:"dev"`
}
