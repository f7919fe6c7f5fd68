package events

import (
	"context"
	"encoding/json"
	"time"

	"skillmatch/common/telemetry"
	"skillmatch/services/matching/internal/errors"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("skillmatch/matching/events")

const MatchCompletedSubject = "matches.completed"

const (
	ModeExactTitle = "exact_title"
	ModeNearest    = "nearest"
)

type MatchEvent struct {
	RequestID     string    `json:"request_id,omitempty"`
	Mode          string    `json:"mode"`
	RequestedJob  string    `json:"requested_job"`
	MatchedJob    string    `json:"matched_job"`
	MatchedSkills int       `json:"matched_skills"`
	TotalSkills   int       `json:"total_skills"`
	Score         float64   `json:"score"`
	ResumeFit     float64   `json:"resume_fit,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

type Publisher interface {
	PublishMatch(ctx context.Context, event MatchEvent) error
	Close()
}

type natsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// NewPublisher connects to NATS. An empty url yields a publisher that drops
// every event.
func NewPublisher(url string, timeout time.Duration, logger *zap.Logger) (Publisher, error) {
	if url == "" {
		logger.Info("NATS not configured, match events disabled")
		return noopPublisher{}, nil
	}

	opts := []nats.Option{
		nats.Name("skillmatch"),
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, errors.Unavailable("connecting to NATS", err)
	}

	return NewNATSPublisher(conn, logger), nil
}

func NewNATSPublisher(conn *nats.Conn, logger *zap.Logger) Publisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger,
	}
}

func (p *natsPublisher) PublishMatch(ctx context.Context, event MatchEvent) error {
	_, span := tracer.Start(ctx, "PublishMatch")
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return errors.Internal("marshaling match event", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", MatchCompletedSubject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(MatchCompletedSubject, data); err != nil {
		span.RecordError(err)
		return errors.Unavailable("publishing to NATS", err)
	}

	p.logger.Debug("published match event",
		zap.String("mode", event.Mode),
		zap.String("matched_job", event.MatchedJob),
		zap.String("subject", MatchCompletedSubject))
	return nil
}

func (p *natsPublisher) Close() {
	if p.conn != nil {
		if err := p.conn.Drain(); err != nil {
			p.conn.Close()
		}
	}
}

type noopPublisher struct{}

func (noopPublisher) PublishMatch(context.Context, MatchEvent) error { return nil }

func (noopPublisher) Close() {}
