package api

import (
	"testing"

	"github.com/codeready-toolchain/sentryd/pkg/config"
)

func TestLimiterRegistry_BuiltinDefaults_AuthVsUnauth(t *testing.T) {
	r := newLimiterRegistry(config.DefaultAPIConfig())

	authRPM, _ := r.rateFor("query", true)
	unauthRPM, _ := r.rateFor("query", false)

	if authRPM != 60 {
		t.Fatalf("expected authenticated query rpm 60, got %d", authRPM)
	}
	if unauthRPM != 10 {
		t.Fatalf("expected unauthenticated query rpm 10, got %d", unauthRPM)
	}
}

func TestLimiterRegistry_ConfigOverrideWins(t *testing.T) {
	cfg := config.DefaultAPIConfig()
	cfg.RateLimits = map[string]config.RateLimitConfig{"query": {RequestsPerMinute: 5, Burst: 1}}
	r := newLimiterRegistry(cfg)

	rpm, burst := r.rateFor("query", true)
	if rpm != 5 || burst != 1 {
		t.Fatalf("expected config override 5/1, got %d/%d", rpm, burst)
	}
}

func TestLimiterRegistry_SameKeyReusesLimiter(t *testing.T) {
	r := newLimiterRegistry(config.DefaultAPIConfig())
	l1 := r.limiterFor("query", "ident-a", true)
	l2 := r.limiterFor("query", "ident-a", true)
	if l1 != l2 {
		t.Fatal("expected the same limiter instance for the same (endpoint, identity)")
	}
}
