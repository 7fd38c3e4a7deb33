// Package dashboard wires the API client, the session, the stores and
// the page services into one container. Every container owns its own
// store instances.
package dashboard

import (
	"context"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/cellhub/admin/config"
	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/internal/forms"
	"github.com/cellhub/admin/internal/logger"
	"github.com/cellhub/admin/internal/mq"
	"github.com/cellhub/admin/internal/notify"
	"github.com/cellhub/admin/internal/services"
	"github.com/cellhub/admin/internal/session"
	"github.com/cellhub/admin/internal/storage"
	"github.com/cellhub/admin/internal/stores"
	"github.com/pkg/errors"
)

// Dashboard is the client side of the admin dashboard.
type Dashboard struct {
	Config  config.Config
	Log     logger.Logger
	Session *session.Store
	Client  *apiclient.Client

	Auth          *stores.AuthStore
	Theme         *stores.ThemeStore
	Users         *stores.UserStore
	Events        *stores.EventStore
	Cellules      *stores.CelluleStore
	Documents     *stores.DocumentStore
	Announcements *stores.AnnouncementStore
	Attendance    *stores.AttendanceStore

	Limits     forms.Limits
	Notifier   notify.Notifier
	Presence   *services.Presence
	Moderation *services.Moderation
	Overview   *services.Dashboard
	// Bundle exports documents. Use Archiver to also upload bundles.
	Bundle *services.DocumentBundle

	now       func() time.Time
	bus       *mq.MQ
	archiveMu sync.Mutex
	archive   *storage.Storage
	closers   []func()
}

type options struct {
	session    *session.Store
	httpClient *http.Client
	log        logger.Logger
	logOutput  io.Writer
	notifier   notify.Notifier
	archive    *storage.Storage
	now        func() time.Time
}

// Option configures New.
type Option func(*options)

// WithSession uses s instead of opening cfg.SessionFile.
func WithSession(s *session.Store) Option {
	return func(o *options) { o.session = s }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithLogOutput sets where the default logger writes. Defaults to
// stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithNotifier replaces the notifier built from cfg.Notify.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithArchive replaces the object storage built from cfg.Archive.
func WithArchive(s *storage.Storage) Option {
	return func(o *options) { o.archive = s }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds a dashboard for cfg. Close releases the logger and the
// notification broker.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Dashboard, error) {
	o := options{now: time.Now, logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Dashboard{Config: cfg, now: o.now, archive: o.archive}

	d.Log = o.log
	if d.Log == nil {
		d.Log = d.newLogger(o.logOutput)
	}

	d.Session = o.session
	if d.Session == nil {
		sess, err := session.Open(cfg.SessionFile)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.Session = sess
	}

	clientOpts := []apiclient.Option{apiclient.WithLogger(d.Log)}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(o.httpClient))
	}
	if cfg.RequestTimeout > 0 {
		clientOpts = append(clientOpts, apiclient.WithTimeout(cfg.RequestTimeout))
	}
	client, err := apiclient.New(cfg.APIURL, d.Session, clientOpts...)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Client = client

	deps := stores.Deps{API: client, Logger: d.Log, Now: d.now}
	d.Auth = stores.NewAuthStore(deps, client, d.Session)
	client.OnUnauthorized(d.Auth.HandleUnauthorized)
	d.Theme = stores.NewThemeStore(d.Session)
	d.Users = stores.NewUserStore(deps)
	d.Events = stores.NewEventStore(deps)
	d.Cellules = stores.NewCelluleStore(deps)
	d.Documents = stores.NewDocumentStore(deps)
	d.Announcements = stores.NewAnnouncementStore(deps)
	d.Attendance = stores.NewAttendanceStore(deps)

	d.Notifier = o.notifier
	if d.Notifier == nil {
		notifier, bus, err := notify.FromConfig(ctx, cfg.Notify, d.Log)
		if err != nil {
			d.Close()
			return nil, errors.Wrap(err, "notifications")
		}
		d.Notifier = notifier
		if bus != nil {
			d.bus = bus
			d.closers = append(d.closers, func() {
				if err := bus.Close(); err != nil {
					d.Log.Warn("close notification broker", err)
				}
			})
		}
	}

	d.Limits = forms.LimitsFromConfig(cfg.Limits)
	d.Presence = services.NewPresence(d.Attendance, d.Notifier)
	d.Moderation = services.NewModeration(d.Users, d.Notifier, d.Log)
	d.Overview = &services.Dashboard{
		Users:         d.Users,
		Events:        d.Events,
		Cellules:      d.Cellules,
		Documents:     d.Documents,
		Announcements: d.Announcements,
		Attendance:    d.Attendance,
		Now:           d.now,
		MaxAge:        cfg.CacheMaxAge,
	}
	d.Bundle = services.NewDocumentBundle(d.Documents, nil, d.now)
	return d, nil
}

func (d *Dashboard) newLogger(w io.Writer) logger.Logger {
	std := logger.NewStdLogger(w, logger.ParseLevel(d.Config.LogLevel))
	if d.Config.RollbarToken == "" {
		return std
	}
	rb := logger.NewRollbarLogger(std, logger.RollbarOptions{
		Token:       d.Config.RollbarToken,
		Environment: d.Config.Env,
	})
	d.closers = append(d.closers, rb.Close)
	return rb
}

// EventModal returns a new create/edit event dialog bound to the event
// store and the configured image limits.
func (d *Dashboard) EventModal() *forms.EventModal {
	return forms.NewEventModal(d.Events, d.Limits, forms.WithClock(d.now))
}

// Bus returns the notification broker, nil when notifications are only
// logged.
func (d *Dashboard) Bus() *mq.MQ {
	return d.bus
}

// Archiver returns a document bundle that can upload to object
// storage. The storage is opened on first use.
func (d *Dashboard) Archiver(ctx context.Context) (*services.DocumentBundle, error) {
	d.archiveMu.Lock()
	defer d.archiveMu.Unlock()
	if d.archive == nil {
		archive, err := storage.FromConfig(ctx, d.Config.Archive)
		if err != nil {
			return nil, errors.Wrap(err, "open archive storage")
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			return nil, errors.Wrap(err, "prepare archive bucket")
		}
		d.archive = archive
	}
	return services.NewDocumentBundle(d.Documents, d.archive, d.now), nil
}

// LoggedIn reports whether an administrator session is active.
func (d *Dashboard) LoggedIn() bool {
	return d.Auth.User() != nil && d.Session.Token() != ""
}

// Close releases resources in reverse order of creation.
func (d *Dashboard) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
