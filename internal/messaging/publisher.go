package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mcoot/greenlight/internal/model"
)

// Config holds NATS connection settings
type Config struct {
	URL           string        `yaml:"url"` // empty disables publishing
	SubjectPrefix string        `yaml:"subject_prefix"`
	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
}

// DefaultConfig returns the default NATS settings, with publishing disabled
func DefaultConfig() Config {
	return Config{
		SubjectPrefix: "greenlight.rounds",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Conn is the subset of *nats.Conn the publisher needs
type Conn interface {
	Publish(subject string, data []byte) error
	Close()
}

// Envelope is the message published for every finished round
type Envelope struct {
	SessionID   model.SessionID        `json:"session_id"`
	Kind        model.NotificationKind `json:"kind"`
	Message     string                 `json:"message"`
	Result      model.RoundResult      `json:"result"`
	PublishedAt time.Time              `json:"published_at"`
}

// Publisher publishes round notifications to NATS. It is a game listener.
type Publisher struct {
	conn   Conn
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

// Connect dials NATS and returns a Publisher
func Connect(cfg Config, logger *slog.Logger) (*Publisher, error) {
	logger = logger.With(slog.String("component", "nats-publisher"))

	opts := []nats.Option{
		nats.Name("greenlight"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Error("nats disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error("nats error", slog.Any("error", err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	logger.Info("connected to nats", slog.String("url", nc.ConnectedUrl()))
	return NewWithConn(nc, cfg, logger), nil
}

// NewWithConn creates a Publisher over an existing connection (for testing)
func NewWithConn(conn Conn, cfg Config, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		prefix: cfg.SubjectPrefix,
		now:    time.Now,
		logger: logger,
	}
}

// Subject returns the subject a round outcome is published on
func (p *Publisher) Subject(outcome model.Outcome) string {
	return fmt.Sprintf("%s.%s", p.prefix, outcome)
}

// StateChanged is ignored; only finished rounds are published
func (p *Publisher) StateChanged(model.SessionID, model.GameState) {}

// RoundEnded publishes the notification. Failures are logged and dropped.
func (p *Publisher) RoundEnded(id model.SessionID, n model.Notification) {
	env := Envelope{
		SessionID:   id,
		Kind:        n.Kind,
		Message:     n.Message,
		Result:      n.Result,
		PublishedAt: p.now().UTC(),
	}
	data, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("failed to marshal round event", slog.Any("error", err))
		return
	}

	subject := p.Subject(n.Result.Outcome)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish round event",
			slog.String("subject", subject),
			slog.String("session", string(id)),
			slog.Any("error", err))
		return
	}

	p.logger.Debug("round event published",
		slog.String("subject", subject),
		slog.String("session", string(id)))
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	p.conn.Close()
}
