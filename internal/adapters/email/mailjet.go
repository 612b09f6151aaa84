package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"donorhub/internal/pkg/metrics"

	"github.com/rs/zerolog"
)

// DefaultEndpoint is the Mailjet v3.1 send API
const DefaultEndpoint = "https://api.mailjet.com/v3.1/send"

// Config holds the Mailjet sender settings
type Config struct {
	APIKey      string
	APISecret   string
	FromEmail   string
	FromName    string
	FrontendURL string
	Endpoint    string
}

// MailjetSender delivers the auth emails through Mailjet
type MailjetSender struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

// NewMailjetSender creates a Mailjet-backed sender
func NewMailjetSender(cfg Config, log zerolog.Logger) *MailjetSender {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &MailjetSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log.With().Str("component", "mailjet").Logger(),
	}
}

type mailjetAddress struct {
	Email string `json:"Email"`
	Name  string `json:"Name,omitempty"`
}

type mailjetMessage struct {
	From     mailjetAddress   `json:"From"`
	To       []mailjetAddress `json:"To"`
	Subject  string           `json:"Subject"`
	TextPart string           `json:"TextPart"`
	HTMLPart string           `json:"HTMLPart"`
}

type mailjetRequest struct {
	Messages []mailjetMessage `json:"Messages"`
}

type mailjetResponse struct {
	Messages []struct {
		Status string `json:"Status"`
	} `json:"Messages"`
}

// SendVerification sends the email verification link
func (s *MailjetSender) SendVerification(ctx context.Context, to, token string) bool {
	return s.deliver(ctx, "verification", to, verificationMessage(s.cfg.FrontendURL, token))
}

// SendPasswordReset sends the password reset link
func (s *MailjetSender) SendPasswordReset(ctx context.Context, to, token string) bool {
	return s.deliver(ctx, "password_reset", to, passwordResetMessage(s.cfg.FrontendURL, token))
}

// SendWelcome sends the post-verification welcome email
func (s *MailjetSender) SendWelcome(ctx context.Context, to string) bool {
	return s.deliver(ctx, "welcome", to, welcomeMessage(to))
}

func (s *MailjetSender) deliver(ctx context.Context, template, to string, msg message) bool {
	err := s.send(ctx, to, msg)
	metrics.RecordEmail(template, err == nil)
	if err != nil {
		s.log.Error().Err(err).Str("template", template).Str("to", to).Msg("email not sent")
		return false
	}
	s.log.Info().Str("template", template).Str("to", to).Msg("email sent")
	return true
}

func (s *MailjetSender) send(ctx context.Context, to string, msg message) error {
	payload := mailjetRequest{
		Messages: []mailjetMessage{
			{
				From:     mailjetAddress{Email: s.cfg.FromEmail, Name: s.cfg.FromName},
				To:       []mailjetAddress{{Email: to}},
				Subject:  msg.Subject,
				TextPart: msg.Text,
				HTMLPart: msg.HTML,
			},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.cfg.APIKey, s.cfg.APISecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mailjet error %d: %s", resp.StatusCode, string(body))
	}

	var result mailjetResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("mailjet response: %w", err)
	}
	if len(result.Messages) == 0 || result.Messages[0].Status != "success" {
		return fmt.Errorf("mailjet reported failure: %s", string(body))
	}
	return nil
}
