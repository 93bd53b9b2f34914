// Package eventbus publishes leaderboard lifecycle events to NATS.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
	"github.com/campus-coders-club/cp-board/internal/observability/attr"
)

const (
	SubjectRefreshStarted   = "leaderboard.refresh.started"
	SubjectRefreshCompleted = "leaderboard.refresh.completed"
)

// RefreshEvent is the payload published for refresh lifecycle events.
type RefreshEvent struct {
	CycleID    uuid.UUID                 `json:"cycle_id"`
	Source     sharedtypes.RefreshSource `json:"source"`
	UserCount  int                       `json:"user_count"`
	BatchCount int                       `json:"batch_count"`
	OccurredAt time.Time                 `json:"occurred_at"`
}

// Publisher emits refresh lifecycle events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishRefresh(ctx context.Context, subject string, event RefreshEvent) error
	Close()
}

// NatsPublisher publishes events to a NATS connection.
type NatsPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

var _ Publisher = (*NatsPublisher)(nil)

// NewNatsPublisher connects to the NATS server at url.
func NewNatsPublisher(url string, logger *slog.Logger) (*NatsPublisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NatsPublisher{conn: conn, logger: logger}, nil
}

func (p *NatsPublisher) PublishRefresh(_ context.Context, subject string, event RefreshEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh event: %w", err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish refresh event",
			attr.String("subject", subject),
			attr.Error(err))
		return fmt.Errorf("failed to publish refresh event: %w", err)
	}
	return nil
}

func (p *NatsPublisher) Close() {
	p.conn.Drain()
}

// NoOpPublisher is used when NATS is not configured.
type NoOpPublisher struct{}

var _ Publisher = (*NoOpPublisher)(nil)

func (NoOpPublisher) PublishRefresh(context.Context, string, RefreshEvent) error { return nil }
func (NoOpPublisher) Close()                                                     {}
