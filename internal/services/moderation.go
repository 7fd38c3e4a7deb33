package services

import (
	"context"
	"strings"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/internal/logger"
	"github.com/cellhub/admin/internal/notify"
	"github.com/cellhub/admin/internal/stores"
)

// Moderation accepts, rejects and deletes member accounts. Each action
// is followed by a notification and a reload of the user list.
type Moderation struct {
	users    *stores.UserStore
	notifier notify.Notifier
	log      logger.Logger
}

func NewModeration(users *stores.UserStore, notifier notify.Notifier, log logger.Logger) *Moderation {
	if log == nil {
		log = logger.Nop{}
	}
	return &Moderation{users: users, notifier: notifier, log: log}
}

func (m *Moderation) Accept(ctx context.Context, id int) error {
	if err := m.users.Accept(ctx, id); err != nil {
		m.notify(ctx, notify.Failure("users.accept", apiclient.MessageOf(err, "Failed to accept user")))
		return err
	}
	m.reload(ctx)
	m.notify(ctx, notify.Success("users.accept", "User accepted"))
	return nil
}

// Reject requires a non-empty reason; without one nothing is sent.
func (m *Moderation) Reject(ctx context.Context, id int, reason string) error {
	if strings.TrimSpace(reason) == "" {
		m.notify(ctx, notify.Failure("users.reject", "Please enter a rejection reason"))
		return stores.ErrReasonRequired
	}
	if err := m.users.Reject(ctx, id, reason); err != nil {
		m.notify(ctx, notify.Failure("users.reject", apiclient.MessageOf(err, "Failed to reject user")))
		return err
	}
	m.reload(ctx)
	m.notify(ctx, notify.Success("users.reject", "User rejected"))
	return nil
}

func (m *Moderation) Delete(ctx context.Context, id int) error {
	if err := m.users.Delete(ctx, id); err != nil {
		m.notify(ctx, notify.Failure("users.delete", apiclient.MessageOf(err, "Failed to delete user")))
		return err
	}
	m.reload(ctx)
	m.notify(ctx, notify.Success("users.delete", "User deleted"))
	return nil
}

func (m *Moderation) reload(ctx context.Context) {
	if err := m.users.FetchAll(ctx); err != nil {
		m.log.Warn("reload users after moderation", err)
	}
}

func (m *Moderation) notify(ctx context.Context, n notify.Notification) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, n); err != nil {
		m.log.Warn("notification not delivered", err)
	}
}
