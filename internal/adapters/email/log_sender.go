package email

import (
	"context"

	"donorhub/internal/pkg/metrics"

	"github.com/rs/zerolog"
)

// LogSender is used when no mail provider is configured. It records the
// attempt and reports failure so callers keep best-effort semantics.
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender creates a log-only sender
func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "email").Logger()}
}

func (s *LogSender) SendVerification(ctx context.Context, to, token string) bool {
	return s.skip("verification", to)
}

func (s *LogSender) SendPasswordReset(ctx context.Context, to, token string) bool {
	return s.skip("password_reset", to)
}

func (s *LogSender) SendWelcome(ctx context.Context, to string) bool {
	return s.skip("welcome", to)
}

func (s *LogSender) skip(template, to string) bool {
	metrics.RecordEmail(template, false)
	s.log.Warn().Str("template", template).Str("to", to).Msg("email provider not configured, message dropped")
	return false
}
