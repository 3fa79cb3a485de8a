package probe

import (
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/model"
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	Flush() error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// Publisher publishes verdicts to a NATS subject. It implements model.VerdictWriter.
type Publisher struct {
	nc      conn
	subject string
	now     func() time.Time
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.ProbeConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Publisher{nc: nc, subject: cfg.Subject, now: time.Now}, nil
}

// Write publishes one message per verdict and flushes the connection.
func (p *Publisher) Write(ctx context.Context, source string, verdicts []model.Verdict) error {
	observed := p.now()
	for _, v := range verdicts {
		data, err := Encode(Message{Source: source, ObservedAt: observed, Verdict: v})
		if err != nil {
			return err
		}
		if err := p.nc.Publish(p.subject, data); err != nil {
			return fmt.Errorf("failed to publish verdict for %s: %w", v.Key, err)
		}
	}
	if _, ok := ctx.Deadline(); ok {
		return p.nc.FlushWithContext(ctx)
	}
	return p.nc.Flush()
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}
	if err := p.nc.Drain(); err != nil {
		return err
	}
	log.Println("NATS connection drained and closed.")
	return nil
}
