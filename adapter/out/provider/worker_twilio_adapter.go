// Package provider implements outbound message gateways.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"tracker_worker/core/port/out"
	"tracker_worker/pkg/httputil"
	"tracker_worker/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// DefaultTwilioAPIBase is the production Twilio REST endpoint.
const DefaultTwilioAPIBase = "https://api.twilio.com"

// TwilioConfig holds Twilio configuration.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	// ContentSID selects a content template. When set, variables are sent
	// as ContentVariables and the free-text body is not sent.
	ContentSID string
	APIBase    string
	Timeout    time.Duration
}

// errRejected marks a request Twilio answered but refused. It does not
// count against the circuit breaker.
var errRejected = errors.New("twilio rejected message")

// TwilioAdapter implements out.MessageGateway over the Twilio Messages API.
type TwilioAdapter struct {
	cfg    TwilioConfig
	client *http.Client
	cb     *gobreaker.CircuitBreaker
	log    zerolog.Logger
}

// NewTwilioAdapter creates a new Twilio adapter.
func NewTwilioAdapter(cfg TwilioConfig) *TwilioAdapter {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultTwilioAPIBase
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")

	log := logger.Component("twilio")

	cbSettings := gobreaker.Settings{
		Name:        "twilio-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &TwilioAdapter{
		cfg:    cfg,
		client: httputil.NewOptimizedClient(httputil.MessagingClientConfig(cfg.Timeout)),
		cb:     gobreaker.NewCircuitBreaker(cbSettings),
		log:    log,
	}
}

// Configured reports whether credentials and a sender are present.
func (a *TwilioAdapter) Configured() bool {
	return a.cfg.AccountSID != "" && a.cfg.AuthToken != "" && a.cfg.From != ""
}

// Send delivers one message. Any failure is reported as false; nothing is
// retried.
func (a *TwilioAdapter) Send(ctx context.Context, to, body string, variables map[string]string) bool {
	if !a.Configured() || to == "" {
		return false
	}

	form := url.Values{}
	form.Set("From", a.cfg.From)
	form.Set("To", to)
	if a.cfg.ContentSID != "" {
		form.Set("ContentSid", a.cfg.ContentSID)
		if len(variables) > 0 {
			if encoded, err := json.Marshal(variables); err == nil {
				form.Set("ContentVariables", string(encoded))
			}
		}
	} else {
		form.Set("Body", body)
	}

	_, err := a.cb.Execute(func() (interface{}, error) {
		return nil, a.post(ctx, form)
	})
	if err != nil {
		a.log.Warn().Err(err).Str("to", to).Msg("send failed")
		return false
	}
	return true
}

// IsCircuitOpen reports whether sends are currently short-circuited.
func (a *TwilioAdapter) IsCircuitOpen() bool {
	return a.cb.State() == gobreaker.StateOpen
}

func (a *TwilioAdapter) messagesURL() string {
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", a.cfg.APIBase, url.PathEscape(a.cfg.AccountSID))
}

func (a *TwilioAdapter) post(ctx context.Context, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.messagesURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(a.cfg.AccountSID, a.cfg.AuthToken)

	resp, err := httputil.DoWithContext(ctx, a.client, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d: %s", errRejected, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return fmt.Errorf("twilio status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
}

var _ out.MessageGateway = (*TwilioAdapter)(nil)
