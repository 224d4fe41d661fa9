package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DedupWindow is how long identical (severity, component, kind)
// notifications are suppressed.
const DedupWindow = 15 * time.Minute

// Alert is one notification request. Kind is a short machine-readable
// category (e.g. "safety_deny", "ticket_created") used for dedup keying
// alongside Severity and Component.
type Alert struct {
	Severity    string
	Cluster     string
	Component   string
	Kind        string
	Summary     string
	TicketLink  string
	ReportLink  string
}

// poster is satisfied by SlackClient and TeamsClient.
type poster interface {
	PostMessage(ctx context.Context, text string, timeout time.Duration) error
}

// Service fans an Alert out to every configured transport, rate-limiting
// itself per DedupWindow. Nil-safe: every method is a no-op on a nil
// *Service.
type Service struct {
	transports []poster
	logger     *slog.Logger

	mu       sync.Mutex
	lastSent map[string]dedupState
}

type dedupState struct {
	at          time.Time
	suppressed  int
}

// NewService builds a Service from whichever transports are configured;
// pass nil for a transport that isn't. Returns nil if neither is set, so
// callers can treat "notifications disabled" and "Service object exists
// but does nothing" identically.
func NewService(slack *SlackClient, teams *TeamsClient) *Service {
	var transports []poster
	if slack != nil {
		transports = append(transports, slack)
	}
	if teams != nil {
		transports = append(transports, teams)
	}
	if len(transports) == 0 {
		return nil
	}
	return &Service{transports: transports, logger: slog.Default().With("component", "notify-service"), lastSent: make(map[string]dedupState)}
}

// Send emits a, unless an identical (Severity, Component, Kind) alert was
// sent within DedupWindow — in which case it is suppressed and the
// suppression counter is folded into the next unsuppressed notification's
// text. Failures are logged and never returned: the Notifier is
// best-effort by design.
func (s *Service) Send(ctx context.Context, a Alert) {
	if s == nil {
		return
	}

	key := fmt.Sprintf("%s|%s|%s", a.Severity, a.Component, a.Kind)
	text, shouldSend := s.prepare(key, a)
	if !shouldSend {
		return
	}

	for _, t := range s.transports {
		if err := t.PostMessage(ctx, text, 10*time.Second); err != nil {
			s.logger.Error("notify: failed to deliver alert", "error", err, "kind", a.Kind, "component", a.Component)
		}
	}
}

func (s *Service) prepare(key string, a Alert) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if prev, ok := s.lastSent[key]; ok && now.Sub(prev.at) < DedupWindow {
		prev.suppressed++
		s.lastSent[key] = prev
		return "", false
	}

	suppressed := 0
	if prev, ok := s.lastSent[key]; ok {
		suppressed = prev.suppressed
	}
	s.lastSent[key] = dedupState{at: now}

	return formatAlert(a, suppressed), true
}

func formatAlert(a Alert, suppressed int) string {
	text := fmt.Sprintf("[%s] %s/%s: %s", a.Severity, a.Cluster, a.Component, a.Summary)
	if a.TicketLink != "" {
		text += " | ticket: " + a.TicketLink
	}
	if a.ReportLink != "" {
		text += " | report: " + a.ReportLink
	}
	if suppressed > 0 {
		text += fmt.Sprintf(" (%d similar suppressed in the last %s)", suppressed, DedupWindow)
	}
	return text
}
