// Package notify sends alert e-mails through an HTTP mail gateway.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wms-backend/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var ErrDisabled = errors.New("email sending disabled")

// Mailer delivers one message to a list of recipients.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Message struct {
	To      []string `json:"to"`
	From    string   `json:"from"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html"`
}

// GatewayClient posts messages as JSON to the configured mail API.
type GatewayClient struct {
	http    *resty.Client
	from    string
	enabled bool
}

type gatewayError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func NewGatewayClient(cfg config.EmailConfig) *GatewayClient {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.APIURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if cfg.APIToken != "" {
		client.SetAuthToken(cfg.APIToken)
	}
	return &GatewayClient{http: client, from: cfg.From, enabled: cfg.Enabled}
}

func (c *GatewayClient) Enabled() bool {
	return c != nil && c.enabled
}

func (c *GatewayClient) Send(ctx context.Context, msg Message) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	if msg.From == "" {
		msg.From = c.from
	}

	apiErr := new(gatewayError)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(msg).
		SetError(apiErr).
		Post("")
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		detail := apiErr.Message
		if detail == "" {
			detail = apiErr.Error
		}
		return fmt.Errorf("email gateway error: status=%d, message=%s", resp.StatusCode(), detail)
	}

	zap.L().Info("email sent",
		zap.String("subject", msg.Subject),
		zap.Int("recipients", len(msg.To)),
	)
	return nil
}
