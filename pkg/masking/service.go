package masking

import (
	"log/slog"

	"github.com/codeready-toolchain/sentryd/pkg/config"
)

// AlertMaskingConfig holds evidence payload masking settings.
type AlertMaskingConfig struct {
	Enabled      bool
	PatternGroup string
}

// MaskingService applies data masking to tool adapter results and Finding
// evidence payloads. Created once at application startup (singleton).
// Thread-safe and stateless aside from compiled patterns.
type MaskingService struct {
	adapterConfig        map[string]*config.MaskingConfig // adapter ID → masking config
	patterns             map[string]*CompiledPattern       // Built-in + custom compiled patterns
	patternGroups        map[string][]string               // Group name → pattern names
	codeMaskers          map[string]Masker                  // Registered code-based maskers
	alertMasking         AlertMaskingConfig                 // Evidence masking settings
	adapterCustomPatterns map[string][]string               // adapter ID → custom pattern keys
}

// NewMaskingService creates a masking service with compiled patterns and
// registered maskers. All patterns are compiled eagerly at creation time.
// Invalid patterns are logged and skipped.
func NewMaskingService(
	adapterConfig map[string]*config.MaskingConfig,
	alertCfg AlertMaskingConfig,
) *MaskingService {
	s := &MaskingService{
		adapterConfig:         adapterConfig,
		patterns:              make(map[string]*CompiledPattern),
		patternGroups:         config.GetBuiltinConfig().PatternGroups,
		codeMaskers:           make(map[string]Masker),
		alertMasking:          alertCfg,
		adapterCustomPatterns: make(map[string][]string),
	}

	s.compileBuiltinPatterns()
	s.compileCustomPatterns()
	s.registerMasker(&KubernetesSecretMasker{})

	slog.Info("Masking service initialized",
		"builtin_patterns", len(config.GetBuiltinConfig().MaskingPatterns),
		"compiled_patterns", len(s.patterns),
		"code_maskers", len(s.codeMaskers),
		"alert_masking_enabled", alertCfg.Enabled)

	return s
}

// MaskToolResult applies adapter-specific masking to a tool result's content.
// Returns masked content. On masking failure, returns a redaction notice (fail-closed).
func (s *MaskingService) MaskToolResult(content string, adapterID string) string {
	if content == "" {
		return content
	}

	adapterCfg, ok := s.adapterConfig[adapterID]
	if !ok || !adapterCfg.Enabled {
		return content // No masking configured for this adapter
	}

	resolved := s.resolvePatterns(adapterCfg, adapterID)
	if len(resolved.codeMaskerNames) == 0 && len(resolved.regexPatterns) == 0 {
		return content
	}

	masked, err := s.applyMasking(content, resolved)
	if err != nil {
		slog.Error("Masking failed, redacting content (fail-closed)",
			"adapter", adapterID, "error", err)
		return "[REDACTED: data masking failure — tool result could not be safely processed]"
	}

	return masked
}

// MaskEvidence applies masking to Finding evidence text using the configured
// pattern group. Returns masked data. On masking failure, returns the
// original data (fail-open — evidence masking protects logs/tickets, not
// the LLM boundary, so losing a redaction is preferable to losing the
// evidence entirely).
func (s *MaskingService) MaskEvidence(data string) string {
	if !s.alertMasking.Enabled || data == "" {
		return data
	}

	resolved := s.resolvePatternsFromGroup(s.alertMasking.PatternGroup)
	if len(resolved.codeMaskerNames) == 0 && len(resolved.regexPatterns) == 0 {
		return data
	}

	masked, err := s.applyMasking(data, resolved)
	if err != nil {
		slog.Error("Evidence masking failed, continuing with unmasked data (fail-open)",
			"error", err)
		return data
	}

	return masked
}

// applyMasking applies code-based maskers then regex patterns to content.
func (s *MaskingService) applyMasking(content string, resolved *resolvedPatterns) (string, error) {
	masked := content

	// Phase 1: Code-based maskers (more specific, structural awareness)
	for _, maskerName := range resolved.codeMaskerNames {
		masker, ok := s.codeMaskers[maskerName]
		if !ok {
			continue
		}
		if masker.AppliesTo(masked) {
			masked = masker.Mask(masked)
		}
	}

	// Phase 2: Regex patterns (general sweep)
	for _, pattern := range resolved.regexPatterns {
		masked = pattern.Regex.ReplaceAllString(masked, pattern.Replacement)
	}

	return masked, nil
}

// registerMasker registers a code-based masker by its name.
func (s *MaskingService) registerMasker(m Masker) {
	s.codeMaskers[m.Name()] = m
}
