package mq

import (
	"context"
	"strings"

	"github.com/cellhub/admin/config"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Message is a broker-agnostic delivery.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. A returned error nacks it.
type Handler func(ctx context.Context, msg Message) error

// Backend is a message broker.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ publishes to and consumes from one broker.
type MQ struct {
	backend Backend
	name    string
}

func New(backend Backend, name string) *MQ {
	return &MQ{backend: backend, name: name}
}

// FromConfig dials the broker named by cfg.Backend: rabbitmq, pubsub
// or memory.
func FromConfig(ctx context.Context, cfg config.NotifyConfig) (*MQ, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Backend))
	var (
		backend Backend
		err     error
	)
	switch name {
	case "rabbitmq":
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	case "memory":
		backend = NewMemory()
	default:
		return nil, errors.Errorf("unknown message broker %q", cfg.Backend)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "connect %s", name)
	}
	return New(backend, name), nil
}

// Name is the broker kind.
func (m *MQ) Name() string {
	return m.name
}

func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("channel is required")
	}
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe blocks, delivering messages until ctx is done.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("channel is required")
	}
	return m.backend.Subscribe(ctx, channel, handler)
}

func (m *MQ) Close() error {
	return m.backend.Close()
}

func newMessageID() string {
	return uuid.NewString()
}
