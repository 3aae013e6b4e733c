package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DinieMobo/TaskHero/logging"
	"github.com/DinieMobo/TaskHero/models"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// Email is one outbound HTML message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

type EmailSender interface {
	Send(ctx context.Context, email Email) error
}

// ResendSender delivers email through the Resend HTTP API.
type ResendSender struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	from    string
}

func NewResendSender(baseURL, apiKey, from string) *ResendSender {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &ResendSender{
		client:  client,
		breaker: NewBreaker("ResendEmailCB"),
		from:    from,
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type resendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (s *ResendSender) Send(ctx context.Context, email Email) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		var out resendResponse
		var apiErr resendError
		resp, err := s.client.R().
			SetContext(ctx).
			SetBody(resendRequest{From: s.from, To: []string{email.To}, Subject: email.Subject, HTML: email.HTML}).
			SetResult(&out).
			SetError(&apiErr).
			Post("/emails")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("resend returned %d: %s", resp.StatusCode(), apiErr.Message)
		}
		return out.ID, nil
	})
	if err != nil {
		return models.UpstreamError("Failed to send email", err)
	}
	return nil
}

// DiscardSender accepts every message without delivering it. It is used
// when no provider key is configured.
type DiscardSender struct {
	mu   sync.Mutex
	sent []Email
}

func (d *DiscardSender) Send(_ context.Context, email Email) error {
	d.mu.Lock()
	d.sent = append(d.sent, email)
	d.mu.Unlock()
	logging.Logger.Warnf("Event ID: EMAIL_DISCARDED, Description: No email provider configured, dropped %q to %s", email.Subject, email.To)
	return nil
}

// Sent returns the messages accepted so far.
func (d *DiscardSender) Sent() []Email {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Email(nil), d.sent...)
}

var _ EmailSender = (*ResendSender)(nil)
var _ EmailSender = (*DiscardSender)(nil)
