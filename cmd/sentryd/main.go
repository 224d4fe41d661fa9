// Package main is the sentryd process entrypoint: it parses CLI flags,
// builds one App from config, and runs whichever of the orchestrator
// cycle loop and the Query/Session HTTP engine are enabled.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/sentryd/pkg/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configDir           string
		disableOrchestrator bool
		disableServer       bool
	)

	cmd := &cobra.Command{
		Use:     "sentryd",
		Short:   "AI-assisted Kubernetes incident triage and remediation",
		Version: version.Full(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configDir, !disableOrchestrator, !disableServer)
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "directory containing sentryd.yaml, llm-providers.yaml, and .env")
	cmd.Flags().BoolVar(&disableOrchestrator, "no-orchestrator", getEnvBool("DISABLE_ORCHESTRATOR", false), "disable the monitoring cycle loop (query-only deployment)")
	cmd.Flags().BoolVar(&disableServer, "no-server", getEnvBool("DISABLE_SERVER", false), "disable the Query/Session HTTP engine")

	return cmd
}

// run builds the shared App and starts whichever modes are enabled,
// blocking until ctx is cancelled (SIGINT/SIGTERM) or a mode fails.
func run(ctx context.Context, configDir string, enableOrchestrator, enableServer bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(filepath.Join(configDir, ".env")); err != nil {
		log.Printf("no .env file loaded from %s: %v", configDir, err)
	}

	app, err := buildApp(ctx, configDir)
	if err != nil {
		log.Printf("fatal: %v", err)
		return err
	}
	defer app.Close()

	slog.Info("sentryd starting",
		"version", version.Full(),
		"cluster", app.clusterName,
		"orchestrator_enabled", enableOrchestrator,
		"server_enabled", enableServer,
	)

	errCh := make(chan error, 2)
	running := 0

	if enableOrchestrator {
		running++
		go func() {
			app.orchestrator.Run(ctx)
			errCh <- nil
		}()
	}

	if enableServer {
		running++
		go func() {
			if err := app.server.Start(); err != nil {
				errCh <- fmt.Errorf("http server: %w", err)
				return
			}
			errCh <- nil
		}()
	}

	if running == 0 {
		return fmt.Errorf("both --no-orchestrator and --no-server set: nothing to run")
	}

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			slog.Error("a run mode exited with an error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		slog.Error("error shutting down HTTP server", "error", err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	return v == "1" || v == "true"
}
