package alerts

import (
	// Go Internal Packages
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	// Local Packages
	models "fraud-pipeline/models"

	// External Packages
	"go.uber.org/zap"
)

// LogNotifier writes alerts to the log. It is the channel used when no
// delivery transport is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Name() string { return "log" }

func (l *LogNotifier) Send(_ context.Context, n models.Notification) error {
	l.logger.Warn("fraud alert",
		zap.String("recipient", n.Recipient),
		zap.String("subject", n.Subject),
		zap.String("body", n.Body),
	)
	return nil
}

// WebhookNotifier POSTs the notification as JSON to a mail relay.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

func (w *WebhookNotifier) Send(ctx context.Context, n models.Notification) error {
	body, err := n.JSON()
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Publisher is the part of the kafka producer the Kafka channel needs.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// KafkaNotifier publishes notifications keyed by transaction id so a mail
// relay can consume them in order per transaction.
type KafkaNotifier struct {
	publisher Publisher
}

func NewKafkaNotifier(publisher Publisher) *KafkaNotifier {
	return &KafkaNotifier{publisher: publisher}
}

func (k *KafkaNotifier) Name() string { return "kafka" }

func (k *KafkaNotifier) Send(ctx context.Context, n models.Notification) error {
	value, err := n.JSON()
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return k.publisher.Publish(ctx, []byte(n.TransNum), value)
}
