package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/docsched/backend/pkg/config"
)

// GatewaySender delivers messages through an HTTP message gateway. The
// gateway is best effort; a tripped breaker fails sends fast instead of
// piling up requests against a dead dependency.
type GatewaySender struct {
	url        string
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewGatewaySender creates a new gateway sender
func NewGatewaySender(cfg *config.NotificationConfig) (*GatewaySender, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("notification gateway URL must be set")
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notification-gateway",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &GatewaySender{
		url:   cfg.GatewayURL,
		token: cfg.GatewayToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker: breaker,
	}, nil
}

type gatewayMessage struct {
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
}

type gatewayResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

// Send delivers a message and returns the gateway's message ID
func (s *GatewaySender) Send(ctx context.Context, recipient, body string) (string, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.send(ctx, recipient, body)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (s *GatewaySender) send(ctx context.Context, recipient, body string) (string, error) {
	payload, err := json.Marshal(gatewayMessage{Recipient: recipient, Body: body})
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed gatewayResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("gateway error: %s", parsed.Error)
	}

	return parsed.MessageID, nil
}
