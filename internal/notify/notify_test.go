package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/cellhub/admin/config"
	"github.com/cellhub/admin/internal/logger"
	"github.com/cellhub/admin/internal/mq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, Notification) error {
	return errors.New("down")
}

func TestQueueNotifierRoundTrip(t *testing.T) {
	mem := mq.NewMemory()
	bus := mq.New(mem, "memory")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Notification, 1)
	go func() {
		_ = bus.Subscribe(ctx, "cellhub.notifications", func(_ context.Context, msg mq.Message) error {
			n, err := Decode(msg)
			if err != nil {
				return err
			}
			assert.Equal(t, "users.accept", msg.Attributes["action"])
			received <- n
			return nil
		})
	}()
	require.Eventually(t, func() bool { return mem.Subscribers("cellhub.notifications") == 1 }, time.Second, 5*time.Millisecond)

	q := NewQueueNotifier(bus, "cellhub.notifications")
	require.NoError(t, q.Notify(ctx, Success("users.accept", "User accepted successfully")))

	select {
	case n := <-received:
		assert.Equal(t, LevelSuccess, n.Level)
		assert.Equal(t, "User accepted successfully", n.Message)
		assert.False(t, n.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logger.NewStdLogger(&buf, logger.LevelDebug))

	require.NoError(t, n.Notify(context.Background(), Failure("events.delete", "Unable to delete event")))
	assert.Contains(t, buf.String(), "ERROR Unable to delete event action=events.delete")
}

func TestMultiReturnsFirstErrorAndDeliversAll(t *testing.T) {
	rec := &Recorder{}
	err := Multi{failingNotifier{}, rec}.Notify(context.Background(), Notification{Message: "hi"})
	assert.EqualError(t, err, "down")

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, LevelInfo, last.Level)
	assert.Len(t, rec.All(), 1)
}

func TestFromConfig(t *testing.T) {
	n, bus, err := FromConfig(context.Background(), config.NotifyConfig{Backend: "log"}, logger.Nop{})
	require.NoError(t, err)
	assert.Nil(t, bus)
	assert.IsType(t, &LogNotifier{}, n)

	n, bus, err = FromConfig(context.Background(), config.NotifyConfig{Backend: "memory", Channel: "c"}, logger.Nop{})
	require.NoError(t, err)
	require.NotNil(t, bus)
	defer bus.Close()
	assert.Len(t, n, 2)
}
