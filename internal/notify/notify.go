// Package notify provides the notification collaborator used by the domain
// services. Delivery is fire-and-forget: Send reports success as a boolean
// and never returns an error, so state changes are not rolled back when a
// notification is lost.
package notify

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Config controls the simulated publisher.
type Config struct {
	// Delay stands in for the network latency of a real broker publish.
	Delay time.Duration
	// FailureRate is the probability in [0, 1] that a send fails.
	FailureRate float64
}

// Publisher simulates an external message broker. It blocks for the
// configured delay and fails randomly at the configured rate, mirroring a
// flaky publish call.
type Publisher struct {
	cfg Config
	lg  *zap.Logger
}

// NewPublisher creates a simulated Publisher.
func NewPublisher(cfg Config, lg *zap.Logger) *Publisher {
	return &Publisher{cfg: cfg, lg: lg}
}

// Send publishes message to topic. It returns false when the simulated
// connection fails or the context is cancelled while waiting.
func (p *Publisher) Send(ctx context.Context, topic, message string) bool {
	if p.cfg.Delay > 0 {
		timer := time.NewTimer(p.cfg.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			p.lg.Error("notification send interrupted",
				zap.String("topic", topic),
				zap.Error(ctx.Err()),
			)
			return false
		case <-timer.C:
		}
	}

	if p.cfg.FailureRate > 0 && rand.Float64() < p.cfg.FailureRate {
		p.lg.Error("notification send failed", zap.String("topic", topic))
		return false
	}

	p.lg.Debug("message sent",
		zap.String("topic", topic),
		zap.String("message", message),
	)
	return true
}
