package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// HTTP posts events to the injury-report email function:
// a JSON POST of the Event to url, retried on transport errors.
type HTTP struct {
	url    string
	client *resty.Client
	logger *zap.Logger
}

func NewHTTP(url, apiKey string, logger *zap.Logger) *HTTP {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HTTP{url: url, client: client, logger: logger.Named("notify_http")}
}

func (h *HTTP) Send(ctx context.Context, ev Event) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(ev).
		Post(h.url)
	if err != nil {
		return fmt.Errorf("failed to call email function: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("email function returned %d: %s", resp.StatusCode(), resp.String())
	}
	h.logger.Debug("notification delivered",
		zap.String("report_id", ev.ReportID.String()),
		zap.Int("status_code", resp.StatusCode()),
	)
	return nil
}

func (h *HTTP) Close() error {
	return nil
}
