package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type NatsPublisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

func NewNatsPublisher(url string, log *zap.Logger) (*NatsPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("storefront-api"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	log.Info("connected to nats", zap.String("url", conn.ConnectedUrl()))
	return &NatsPublisher{conn: conn, log: log}, nil
}

func NewNatsPublisherFromConn(conn *nats.Conn, log *zap.Logger) *NatsPublisher {
	return &NatsPublisher{conn: conn, log: log}
}

// Publish sends payload as JSON on subject.
func (p *NatsPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.conn == nil || !p.conn.IsConnected() {
		return nats.ErrConnectionClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s event: %w", subject, err)
	}

	p.log.Debug("event published", zap.String("subject", subject))
	return nil
}

func (p *NatsPublisher) Close() {
	if p.conn != nil {
		if err := p.conn.Drain(); err != nil {
			p.conn.Close()
		}
	}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
