package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/codeready-toolchain/sentryd/pkg/api"
	"github.com/codeready-toolchain/sentryd/pkg/audit"
	"github.com/codeready-toolchain/sentryd/pkg/catalog"
	catalogaws "github.com/codeready-toolchain/sentryd/pkg/catalog/aws"
	catalogdatadog "github.com/codeready-toolchain/sentryd/pkg/catalog/datadog"
	cataloggithub "github.com/codeready-toolchain/sentryd/pkg/catalog/github"
	catalogjira "github.com/codeready-toolchain/sentryd/pkg/catalog/jira"
	catalogkubernetes "github.com/codeready-toolchain/sentryd/pkg/catalog/kubernetes"
	"github.com/codeready-toolchain/sentryd/pkg/cluster"
	"github.com/codeready-toolchain/sentryd/pkg/config"
	"github.com/codeready-toolchain/sentryd/pkg/llm"
	"github.com/codeready-toolchain/sentryd/pkg/masking"
	"github.com/codeready-toolchain/sentryd/pkg/notify"
	"github.com/codeready-toolchain/sentryd/pkg/orchestrator"
	"github.com/codeready-toolchain/sentryd/pkg/runbook"
	"github.com/codeready-toolchain/sentryd/pkg/safety"
	"github.com/codeready-toolchain/sentryd/pkg/session"
	"github.com/codeready-toolchain/sentryd/pkg/ticket"
)

// shutdownGrace bounds how long the HTTP server is given to drain
// in-flight requests once a shutdown signal arrives.
const shutdownGrace = 15 * time.Second

// querySweepInterval is how often the query session store checks for
// TTL-expired sessions; comfortably inside an at-least-once-a-minute bound.
const querySweepInterval = 30 * time.Second

// App is the single root value both run modes share, built once at boot,
// avoiding package-level singletons and ad-hoc global state.
type App struct {
	clusterName   string
	auditLogger   *audit.Logger
	querySessions *session.Store
	orchSessions  *session.Store
	orchestrator  *orchestrator.Orchestrator
	server        *api.Server
}

// Close releases every resource App owns, in reverse build order.
func (a *App) Close() {
	a.querySessions.Close()
	a.orchSessions.Close()
	a.auditLogger.Close()
}

// buildApp wires every package built for sentryd into one running App:
// load config, enforce the cluster guard, open the audit log, build
// adapter clients, then the safety/LLM/orchestrator/API layers on top.
func buildApp(ctx context.Context, configDir string) (*App, error) {
	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	guard := cluster.Init(cfg.Clusters)
	targetCluster, err := resolveTargetCluster(cfg)
	if err != nil {
		return nil, err
	}
	cluster.MustRequire(guard, targetCluster)

	auditPath := getEnv("AUDIT_LOG_PATH", filepath.Join(configDir, "audit.log"))
	auditLogger, err := audit.Open(auditPath)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}

	notifier := buildNotifier(cfg.Notify)
	maskingSvc := buildMasking(cfg)

	cat := catalog.New()
	if err := registerAdapters(ctx, cat, cfg, guard, targetCluster); err != nil {
		auditLogger.Close()
		return nil, err
	}

	validator := safety.NewValidator(guard, nil)
	chain := safety.NewChain(validator, auditLogger, notifier, cat, maskingSvc)

	provider, err := resolveLLMProvider(cfg)
	if err != nil {
		auditLogger.Close()
		return nil, err
	}
	apiKey := os.Getenv(provider.APIKeyEnv)
	if apiKey == "" {
		auditLogger.Close()
		return nil, fmt.Errorf("llm provider api key: env var %q is empty", provider.APIKeyEnv)
	}
	client := llm.NewClient(apiKey, provider.Model, int64(provider.MaxTokens))
	driver := llm.NewDriver(client, chain, targetCluster)

	runbookSvc := runbook.NewService(cfg.Runbooks, os.Getenv(githubTokenEnv(cfg)), "")

	correlator := ticket.New(cat, cfg.Thresholds, maskingSvc)

	orchSessions := session.NewOrchestratorStore()
	o := orchestrator.New(orchestrator.Deps{
		Config:              cfg,
		Catalog:             cat,
		Driver:              driver,
		Correlator:          correlator,
		Notifier:            notifier,
		Runbooks:            runbookSvc,
		Guard:               guard,
		Sessions:            orchSessions,
		ClusterName:         targetCluster,
		ProtectedNamespaces: nil,
		Logger:              slog.Default().With("component", "orchestrator"),
	})

	querySessions := session.NewQueryStore(cfg.API.QuerySessionTTL, cfg.API.MaxQuerySessions)
	querySessions.StartSweeper(querySweepInterval)

	server := api.New(api.Deps{
		Config:      cfg.API,
		Driver:      driver,
		Catalog:     cat,
		Sessions:    querySessions,
		Guard:       guard,
		ClusterName: targetCluster,
		Logger:      slog.Default().With("component", "api"),
	})

	return &App{
		clusterName:   targetCluster,
		auditLogger:   auditLogger,
		querySessions: querySessions,
		orchSessions:  orchSessions,
		orchestrator:  o,
		server:        server,
	}, nil
}

// resolveTargetCluster picks the cluster this process operates against: an
// explicit TARGET_CLUSTER env var always wins; with exactly one configured
// cluster and no override, that cluster is the implicit target.
func resolveTargetCluster(cfg *config.Config) (string, error) {
	if name := os.Getenv("TARGET_CLUSTER"); name != "" {
		return name, nil
	}
	if len(cfg.Clusters) == 1 {
		return cfg.Clusters[0].Name, nil
	}
	return "", fmt.Errorf("TARGET_CLUSTER must be set when more than one cluster is configured")
}

func resolveLLMProvider(cfg *config.Config) (*config.LLMProviderConfig, error) {
	name := cfg.Defaults.LLMProvider
	if name == "" {
		return nil, fmt.Errorf("defaults.llm_provider is not configured")
	}
	return cfg.GetLLMProvider(name)
}

func githubTokenEnv(cfg *config.Config) string {
	if cfg.GitHub != nil && cfg.GitHub.TokenEnv != "" {
		return cfg.GitHub.TokenEnv
	}
	return "GITHUB_TOKEN"
}

func buildNotifier(cfg *config.NotifyConfig) *notify.Service {
	if cfg == nil {
		return notify.NewService(nil, nil)
	}

	var slackClient *notify.SlackClient
	if cfg.Slack != nil && cfg.Slack.Enabled {
		slackClient = notify.NewSlackClient(os.Getenv(cfg.Slack.TokenEnv), cfg.Slack.Channel)
	}

	var teamsClient *notify.TeamsClient
	if cfg.Teams != nil && cfg.Teams.Enabled {
		teamsClient = notify.NewTeamsClient(os.Getenv(cfg.Teams.WebhookEnv))
	}

	return notify.NewService(slackClient, teamsClient)
}

// buildMasking wires the Masking Service with both its tool-result rules
// (one per adapter, keyed by catalog.Descriptor.TargetSystem) and its
// evidence-masking rule, so both the live tool-call path (pkg/safety.Chain)
// and Finding evidence embedded in ticket comments (pkg/ticket.Correlator)
// go through the same compiled patterns.
func buildMasking(cfg *config.Config) *masking.MaskingService {
	alertCfg := masking.AlertMaskingConfig{}
	if cfg.Defaults != nil && cfg.Defaults.AlertMasking != nil {
		alertCfg.Enabled = cfg.Defaults.AlertMasking.Enabled
		alertCfg.PatternGroup = cfg.Defaults.AlertMasking.PatternGroup
	}
	return masking.NewMaskingService(cfg.ToolMasking, alertCfg)
}

// registerAdapters builds and registers every Tool Catalog adapter that
// has enough configuration to be useful, skipping the rest — a service
// mapping naming a tracker this process never wired simply gets no tool
// results for it, rather than failing boot.
func registerAdapters(ctx context.Context, cat *catalog.Catalog, cfg *config.Config, guard *cluster.Guard, targetCluster string) error {
	k8sClient, err := catalogkubernetes.NewClient(guard, targetCluster)
	if err != nil {
		return fmt.Errorf("kubernetes adapter: %w", err)
	}
	catalogkubernetes.RegisterReadTools(cat, k8sClient)
	catalogkubernetes.RegisterWriteTools(cat, k8sClient)

	if owner, repo := os.Getenv("GITHUB_OWNER"), os.Getenv("GITHUB_REPO"); owner != "" && repo != "" {
		ghClient := cataloggithub.NewClient(os.Getenv(githubTokenEnv(cfg)), owner, repo)
		cataloggithub.RegisterTools(cat, ghClient)
	}

	if cfg.Jira != nil && cfg.Jira.BaseURL != "" {
		jiraClient, err := catalogjira.NewClient(cfg.Jira.BaseURL, os.Getenv(cfg.Jira.UserEnv), os.Getenv(cfg.Jira.TokenEnv), cfg.Jira.DefaultProject)
		if err != nil {
			return fmt.Errorf("jira adapter: %w", err)
		}
		catalogjira.RegisterTools(cat, jiraClient)
	}

	if cfg.AWS != nil {
		awsClient, err := catalogaws.NewClient(ctx, cfg.AWS.Region)
		if err != nil {
			return fmt.Errorf("aws adapter: %w", err)
		}
		catalogaws.RegisterTools(cat, awsClient)
	}

	if cfg.Datadog != nil && cfg.Datadog.Enabled {
		ddClient := catalogdatadog.NewClient(os.Getenv(cfg.Datadog.APIKeyEnv), os.Getenv(cfg.Datadog.AppKeyEnv))
		catalogdatadog.RegisterTools(cat, ddClient)
	}

	return nil
}
