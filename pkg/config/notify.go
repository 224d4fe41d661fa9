package config

import "time"

// SlackConfig holds resolved Slack notification configuration.
type SlackConfig struct {
	Enabled  bool   `yaml:"enabled"`
	TokenEnv string `yaml:"token_env,omitempty"`
	Channel  string `yaml:"channel,omitempty"`
}

// TeamsConfig holds resolved Microsoft Teams incoming-webhook configuration.
type TeamsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookEnv string `yaml:"webhook_env,omitempty"`
}

// NotifyConfig groups all outbound-notification settings.
type NotifyConfig struct {
	Slack *SlackConfig `yaml:"slack,omitempty"`
	Teams *TeamsConfig `yaml:"teams,omitempty"`

	// DedupWindow is how long a (severity, component, kind) notification is
	// suppressed after first being sent.
	DedupWindow time.Duration `yaml:"dedup_window"`

	// DashboardURL is the base URL used to build deep links into cycle
	// reports and sessions in notification bodies.
	DashboardURL string `yaml:"dashboard_url,omitempty"`
}

// DefaultNotifyConfig returns the built-in notification defaults.
func DefaultNotifyConfig() *NotifyConfig {
	return &NotifyConfig{
		Slack:       &SlackConfig{Enabled: false, TokenEnv: "SLACK_BOT_TOKEN"},
		Teams:       &TeamsConfig{Enabled: false, WebhookEnv: "TEAMS_WEBHOOK_URL"},
		DedupWindow: 15 * time.Minute,
	}
}
