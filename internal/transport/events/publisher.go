package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"

	"github.com/rocketscienceinc/backgammon-backend/internal/entity"
)

const (
	subjectPrefix = "backgammon.game."
	retryDelay    = 200 * time.Millisecond
)

// Publisher fans game events out to NATS. The zero value drops everything.
type Publisher struct {
	logger *slog.Logger
	conn   *nats.Conn
}

// NewPublisher connects to url. An empty url returns a publisher that does nothing.
func NewPublisher(ctx context.Context, logger *slog.Logger, url string, attempts uint) (*Publisher, error) {
	publisher := &Publisher{logger: logger}
	if url == "" {
		return publisher, nil
	}

	if attempts == 0 {
		attempts = 1
	}

	conn, err := retry.DoWithData(
		func() (*nats.Conn, error) {
			return nats.Connect(url, nats.Name("backgammon-backend"))
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(retryDelay),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			logger.Warn("nats is not ready, retrying", "attempt", n, "error", err)
			return retry.BackOffDelay(n, err, config)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	publisher.conn = conn
	return publisher, nil
}

// Subject returns where events of kind for gameID are published.
func Subject(gameID string, kind entity.EventKind) string {
	suffix := "turn"
	if kind == entity.EventGameOver {
		suffix = "over"
	}
	return subjectPrefix + gameID + "." + suffix
}

func (that *Publisher) Publish(_ context.Context, event entity.Event) error {
	if that.conn == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not marshal event: %w", err)
	}

	if err = that.conn.Publish(Subject(event.GameID, event.Kind), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (that *Publisher) Close() {
	if that.conn == nil {
		return
	}

	if err := that.conn.Drain(); err != nil {
		that.logger.Error("failed to drain nats connection", "error", err)
	}
}
