package notify

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/cellhub/admin/config"
	"github.com/cellhub/admin/internal/logger"
	"github.com/cellhub/admin/internal/mq"
	"github.com/pkg/errors"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification reports the outcome of one user action.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Action  string    `json:"action,omitempty"`
	At      time.Time `json:"at"`
}

func Success(action, message string) Notification {
	return Notification{Level: LevelSuccess, Action: action, Message: message}
}

func Failure(action, message string) Notification {
	return Notification{Level: LevelError, Action: action, Message: message}
}

// Notifier delivers notifications. Implementations fill At when it is
// zero.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

func stamp(n Notification) Notification {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	if n.Level == "" {
		n.Level = LevelInfo
	}
	return n
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	n = stamp(n)
	if n.Level == LevelError {
		l.log.Error(n.Message, "action="+n.Action)
		return nil
	}
	l.log.Info(n.Message, "action="+n.Action)
	return nil
}

// Publisher is the sending half of a broker.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// QueueNotifier publishes notifications as JSON on a broker channel.
type QueueNotifier struct {
	pub     Publisher
	channel string
}

func NewQueueNotifier(pub Publisher, channel string) *QueueNotifier {
	return &QueueNotifier{pub: pub, channel: channel}
}

func (q *QueueNotifier) Notify(ctx context.Context, n Notification) error {
	n = stamp(n)
	data, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "encode notification")
	}
	attrs := map[string]string{"level": string(n.Level)}
	if n.Action != "" {
		attrs["action"] = n.Action
	}
	if _, err := q.pub.Publish(ctx, q.channel, data, attrs); err != nil {
		return errors.Wrap(err, "publish notification")
	}
	return nil
}

// Decode reads a notification published by QueueNotifier.
func Decode(msg mq.Message) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(msg.Data, &n); err != nil {
		return Notification{}, errors.Wrapf(err, "decode notification %s", msg.ID)
	}
	return n, nil
}

// Multi delivers to every notifier and returns the first error.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	n = stamp(n)
	var first error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, stamp(n))
	return nil
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.all...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}

// FromConfig builds the notifier for cfg.Backend. "log" (or empty)
// only logs; a broker backend logs and publishes on cfg.Channel. The
// returned broker is nil for "log" and must be closed by the caller
// otherwise.
func FromConfig(ctx context.Context, cfg config.NotifyConfig, log logger.Logger) (Notifier, *mq.MQ, error) {
	logNotifier := NewLogNotifier(log)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "log":
		return logNotifier, nil, nil
	}
	bus, err := mq.FromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return Multi{logNotifier, NewQueueNotifier(bus, cfg.Channel)}, bus, nil
}
