package mq

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrClosed is returned by a closed Memory broker.
var ErrClosed = errors.New("broker closed")

// Memory is an in-process broker. Every subscriber of a channel gets
// every message published after it subscribed.
type Memory struct {
	mu     sync.Mutex
	subs   map[string][]chan Message
	closed bool
	done   chan struct{}
}

func NewMemory() *Memory {
	return &Memory{subs: map[string][]chan Message{}, done: make(chan struct{})}
}

func (m *Memory) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrClosed
	}
	subs := append([]chan Message(nil), m.subs[channel]...)
	m.mu.Unlock()

	msg := Message{ID: newMessageID(), Data: append([]byte(nil), data...), Attributes: copyAttrs(attrs)}
	for _, sub := range subs {
		select {
		case sub <- msg:
		case <-ctx.Done():
			return "", ctx.Err()
		case <-m.done:
			return "", ErrClosed
		}
	}
	return msg.ID, nil
}

// Subscribe blocks until ctx is done or the broker is closed.
func (m *Memory) Subscribe(ctx context.Context, channel string, handler Handler) error {
	ch := make(chan Message, 16)
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.subs[channel] = append(m.subs[channel], ch)
	m.mu.Unlock()
	defer m.unsubscribe(channel, ch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return ErrClosed
		case msg := <-ch:
			// Without redelivery a nack only drops the message.
			_ = handler(ctx, msg)
		}
	}
}

// Subscribers reports how many subscribers channel has.
func (m *Memory) Subscribers(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[channel])
}

func (m *Memory) unsubscribe(channel string, ch chan Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := m.subs[channel]
	for i, sub := range subs {
		if sub == ch {
			m.subs[channel] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

func copyAttrs(attrs map[string]string) map[string]string {
	if attrs == nil {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
