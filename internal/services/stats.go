package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/cellhub/admin/internal/stores"
	"github.com/cellhub/admin/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Unspecified labels records with an empty category.
const Unspecified = "Unspecified"

const (
	topLevels       = 6
	monthsShown     = 6
	nextEventsShown = 5
	recentDocsShown = 5
)

// Count is one bar or slice of a breakdown.
type Count struct {
	Label string
	Value int
}

// Stats is the statistics page.
type Stats struct {
	TotalUsers         int
	ActiveUsers        int
	TotalEvents        int
	UpcomingEvents     int
	TotalDocuments     int
	TotalCellules      int
	TotalAnnouncements int

	EventTypes []Count
	Genders    []Count
	// Levels holds the most common study levels, most common first.
	Levels []Count
	// Monthly holds event counts for the latest months that have events,
	// oldest first.
	Monthly []Count

	NextEvents      []types.Event
	RecentDocuments []types.Document
}

// Collections is the input of ComputeStats.
type Collections struct {
	Users         []types.User
	Events        []types.Event
	Cellules      []types.Cellule
	Documents     []types.Document
	Announcements []types.Announcement
}

// ComputeStats derives the statistics page from the cached collections.
// An event is upcoming when its day starts after now.
func ComputeStats(c Collections, now time.Time) Stats {
	s := Stats{
		TotalUsers:         len(c.Users),
		TotalEvents:        len(c.Events),
		TotalDocuments:     len(c.Documents),
		TotalCellules:      len(c.Cellules),
		TotalAnnouncements: len(c.Announcements),
	}

	genders := newTally()
	levels := newTally()
	for _, u := range c.Users {
		if u.IsActive {
			s.ActiveUsers++
		}
		genders.add(u.Gender)
		levels.add(u.Level)
	}
	s.Genders = genders.counts()
	s.Levels = levels.counts()
	sort.SliceStable(s.Levels, func(i, j int) bool { return s.Levels[i].Value > s.Levels[j].Value })
	if len(s.Levels) > topLevels {
		s.Levels = s.Levels[:topLevels]
	}

	eventTypes := newTally()
	months := map[time.Time]int{}
	type dated struct {
		event types.Event
		day   time.Time
	}
	var upcoming []dated
	for _, e := range c.Events {
		eventTypes.add(e.Type)
		day, ok := e.Day(now.Location())
		if !ok {
			continue
		}
		months[time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())]++
		if day.After(now) {
			upcoming = append(upcoming, dated{event: e, day: day})
		}
	}
	s.EventTypes = eventTypes.counts()
	s.UpcomingEvents = len(upcoming)

	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].day.Before(upcoming[j].day) })
	for i := 0; i < len(upcoming) && i < nextEventsShown; i++ {
		s.NextEvents = append(s.NextEvents, upcoming[i].event)
	}

	keys := make([]time.Time, 0, len(months))
	for month := range months {
		keys = append(keys, month)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	if len(keys) > monthsShown {
		keys = keys[len(keys)-monthsShown:]
	}
	for _, month := range keys {
		s.Monthly = append(s.Monthly, Count{Label: month.Format("Jan 2006"), Value: months[month]})
	}

	if len(c.Documents) > recentDocsShown {
		s.RecentDocuments = append([]types.Document(nil), c.Documents[:recentDocsShown]...)
	} else {
		s.RecentDocuments = append([]types.Document(nil), c.Documents...)
	}
	return s
}

// tally counts labels in first-seen order.
type tally struct {
	index map[string]int
	out   []Count
}

func newTally() *tally {
	return &tally{index: map[string]int{}}
}

func (t *tally) add(label string) {
	if label == "" {
		label = Unspecified
	}
	i, ok := t.index[label]
	if !ok {
		i = len(t.out)
		t.index[label] = i
		t.out = append(t.out, Count{Label: label})
	}
	t.out[i].Value++
}

func (t *tally) counts() []Count {
	return t.out
}

// AttendanceSummary is the attendance of one event.
type AttendanceSummary struct {
	EventID int
	Total   int
	Present int
	// Rate is the share of present records, rounded to a whole percent.
	Rate int
}

// SummarizeAttendance counts the records of eventID.
func SummarizeAttendance(records []types.AttendanceRecord, eventID int) AttendanceSummary {
	sum := AttendanceSummary{EventID: eventID}
	for _, r := range records {
		if r.EventID != eventID {
			continue
		}
		sum.Total++
		if r.Status == types.AttendancePresent {
			sum.Present++
		}
	}
	if sum.Total > 0 {
		sum.Rate = int(math.Round(float64(sum.Present) / float64(sum.Total) * 100))
	}
	return sum
}

// Dashboard loads every collection the statistics page needs.
type Dashboard struct {
	Users         *stores.UserStore
	Events        *stores.EventStore
	Cellules      *stores.CelluleStore
	Documents     *stores.DocumentStore
	Announcements *stores.AnnouncementStore
	Attendance    *stores.AttendanceStore
	Now           func() time.Time
	// MaxAge is how long Refresh keeps a loaded collection.
	MaxAge time.Duration
}

// Load fetches the five collections concurrently. Every fetch runs to
// completion; the first error is returned and the stores that loaded
// keep their data.
func (d *Dashboard) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return errors.Wrap(d.Announcements.FetchAll(ctx), "announcements") })
	g.Go(func() error { return errors.Wrap(d.Cellules.FetchAll(ctx), "cellules") })
	g.Go(func() error { return errors.Wrap(d.Documents.FetchAll(ctx), "documents") })
	g.Go(func() error { return errors.Wrap(d.Events.FetchAll(ctx), "events") })
	g.Go(func() error { return errors.Wrap(d.Users.FetchAll(ctx), "users") })
	return g.Wait()
}

type staler interface {
	Stale(maxAge time.Duration) bool
	FetchAll(ctx context.Context) error
}

// Refresh is Load restricted to the collections older than MaxAge.
func (d *Dashboard) Refresh(ctx context.Context) error {
	var g errgroup.Group
	for name, s := range map[string]staler{
		"announcements": d.Announcements,
		"cellules":      d.Cellules,
		"documents":     d.Documents,
		"events":        d.Events,
		"users":         d.Users,
	} {
		if !s.Stale(d.MaxAge) {
			continue
		}
		name, s := name, s
		g.Go(func() error { return errors.Wrap(s.FetchAll(ctx), name) })
	}
	return g.Wait()
}

// Stats computes statistics from the cached collections.
func (d *Dashboard) Stats() Stats {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	return ComputeStats(Collections{
		Users:         d.Users.Items(),
		Events:        d.Events.Items(),
		Cellules:      d.Cellules.Items(),
		Documents:     d.Documents.Items(),
		Announcements: d.Announcements.Items(),
	}, now())
}

// EventAttendance fetches and summarizes the attendance of one event.
func (d *Dashboard) EventAttendance(ctx context.Context, eventID int) (AttendanceSummary, error) {
	records, err := d.Attendance.FetchAttendance(ctx, eventID)
	if err != nil {
		return AttendanceSummary{}, err
	}
	return SummarizeAttendance(records, eventID), nil
}
