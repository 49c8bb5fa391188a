package alerts

import (
	// Go Internal Packages
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	// Local Packages
	errors "fraud-pipeline/errors"
	metrics "fraud-pipeline/metrics"
	models "fraud-pipeline/models"

	// External Packages
	"go.uber.org/zap"
)

// Notifier delivers a rendered notification over one channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n models.Notification) error
}

// DefaultTimeout bounds one delivery when the gate is built without one.
const DefaultTimeout = 10 * time.Second

// Gate decides whether a scored transaction raises an alert and hands the
// alert to its channel. Each delivery is bounded by timeout whatever the
// channel.
type Gate struct {
	notifier  Notifier
	recipient string
	timeout   time.Duration
	logger    *zap.Logger
}

func NewGate(notifier Notifier, recipient string, timeout time.Duration, logger *zap.Logger) *Gate {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gate{notifier: notifier, recipient: recipient, timeout: timeout, logger: logger}
}

// ShouldNotify reports the persisted fraud flag. Probability and threshold
// are not looked at again here.
func (g *Gate) ShouldNotify(scored models.ScoredTransaction) bool {
	return scored.FraudFlag()
}

// Render builds the notification for a flagged transaction.
func (g *Gate) Render(scored models.ScoredTransaction, threshold float64) models.Notification {
	var body strings.Builder
	body.WriteString("Hello,\n\n")
	body.WriteString("Suspicious transaction detected\n\n")
	fmt.Fprintf(&body, "- trans_num: %s\n", scored.TransNum)
	fmt.Fprintf(&body, "- fraud_proba: %.4f\n", scored.FraudProba)
	fmt.Fprintf(&body, "- threshold: %s\n", strconv.FormatFloat(threshold, 'f', -1, 64))
	fmt.Fprintf(&body, "- model_version: %s\n", scored.ModelVersion)

	return models.Notification{
		Recipient: g.recipient,
		Subject:   "Fraudulent payment alert - trans_num=" + scored.TransNum,
		Body:      body.String(),
		TransNum:  scored.TransNum,
	}
}

// Notify renders and sends the alert. Any channel failure, including the
// delivery timeout expiring, is returned as a NotificationDeliveryFailed
// error.
func (g *Gate) Notify(ctx context.Context, scored models.ScoredTransaction, threshold float64) error {
	n := g.Render(scored, threshold)
	channel := g.notifier.Name()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.notifier.Send(ctx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues(channel, "failed").Inc()
		return errors.E(errors.NotificationDeliveryFailed, "deliver alert via "+channel, err)
	}

	metrics.NotificationsTotal.WithLabelValues(channel, "sent").Inc()
	g.logger.Info("fraud alert sent",
		zap.String("channel", channel),
		zap.String("trans_num", scored.TransNum),
		zap.Float64("fraud_proba", scored.FraudProba),
	)
	return nil
}
