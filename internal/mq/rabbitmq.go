package mq

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cellhub/admin/config"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	appID = "cellhub"
	// actionAttr carries the notification action; RabbitMQ also gets it
	// as the message type so consumers can filter without decoding.
	actionAttr = "action"
)

// RabbitMQClient carries dashboard notifications over RabbitMQ. Each
// notification channel is a queue of the same name on the default
// exchange.
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   queueOptions
	now     func() time.Time
}

type queueOptions struct {
	durable    bool
	autoDelete bool
}

func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq notifications are not configured: missing RABBITMQ_URL")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, errors.Wrap(err, "set prefetch")
		}
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: ch,
		queue:   queueOptions{durable: cfg.QueueDurable, autoDelete: cfg.QueueAutoDelete},
		now:     time.Now,
	}, nil
}

// Publish sends one notification and returns its message id.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if err := r.declare(channel); err != nil {
		return "", err
	}
	msg := notificationPublishing(newMessageID(), data, attrs, r.now())
	if err := r.channel.PublishWithContext(ctx, "", channel, false, false, msg); err != nil {
		return "", errors.Wrapf(err, "publish to %s", channel)
	}
	return msg.MessageId, nil
}

// Subscribe delivers notifications until ctx is done. A notification
// whose handler fails is requeued once, then dropped.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if err := r.declare(channel); err != nil {
		return err
	}

	consumerTag := appID + "-" + newMessageID()
	deliveries, err := r.channel.Consume(channel, consumerTag, false, false, false, false, nil)
	if err != nil {
		return errors.Wrapf(err, "consume %s", channel)
	}
	defer func() {
		_ = r.channel.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.Errorf("rabbitmq closed the %s subscription", channel)
			}
			if err := handler(ctx, deliveryMessage(delivery)); err != nil {
				_ = delivery.Nack(false, !delivery.Redelivered)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQClient) declare(channel string) error {
	_, err := r.channel.QueueDeclare(channel, r.queue.durable, r.queue.autoDelete, false, false, nil)
	return errors.Wrapf(err, "declare %s", channel)
}

func notificationPublishing(id string, data []byte, attrs map[string]string, now time.Time) amqp.Publishing {
	headers := amqp.Table{}
	for key, value := range attrs {
		headers[key] = value
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		AppId:        appID,
		Type:         attrs[actionAttr],
		Timestamp:    now.UTC(),
		Headers:      headers,
		Body:         data,
	}
}

// deliveryMessage converts a delivery, restoring the action from the
// message type when a publisher did not send it as a header.
func deliveryMessage(d amqp.Delivery) Message {
	attrs := make(map[string]string, len(d.Headers)+1)
	for key, value := range d.Headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	if _, ok := attrs[actionAttr]; !ok && d.Type != "" {
		attrs[actionAttr] = d.Type
	}
	if len(attrs) == 0 {
		attrs = nil
	}
	return Message{ID: d.MessageId, Data: d.Body, Attributes: attrs}
}
