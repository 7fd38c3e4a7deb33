package forms

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type recordingStore struct {
	creates  int
	updates  int
	lastID   int
	lastForm *apiclient.MultipartPayload
	err      error
}

func (s *recordingStore) Create(_ context.Context, payload apiclient.Payload) (types.Event, error) {
	s.creates++
	s.lastForm, _ = payload.(*apiclient.MultipartPayload)
	if s.err != nil {
		return types.Event{}, s.err
	}
	title, _ := s.lastForm.Value("title")
	return types.Event{ID: 42, Title: title}, nil
}

func (s *recordingStore) Update(_ context.Context, id int, payload apiclient.Payload) (types.Event, error) {
	s.updates++
	s.lastID = id
	s.lastForm, _ = payload.(*apiclient.MultipartPayload)
	if s.err != nil {
		return types.Event{}, s.err
	}
	return types.Event{ID: id}, nil
}

func validFields() map[string]string {
	return map[string]string{
		"title":        "Kickoff",
		"description":  "Opening session of the year",
		"date":         "2026-05-21",
		"time_start":   "10:00",
		"time_end":     "12:00",
		"location":     "Main hall",
		"responsable":  "Jo",
		"cellule_name": "Robotics",
	}
}

func newModal(t *testing.T, store *recordingStore, overrides map[string]string) *EventModal {
	t.Helper()
	m := NewEventModal(store, DefaultLimits, WithClock(func() time.Time { return testNow }))
	m.OpenCreate()
	fields := validFields()
	for k, v := range overrides {
		fields[k] = v
	}
	for k, v := range fields {
		require.NoError(t, m.Set(k, v))
	}
	return m
}

func TestSubmitRejectsEndBeforeStart(t *testing.T) {
	store := &recordingStore{}
	m := newModal(t, store, map[string]string{"time_start": "10:00", "time_end": "09:00"})

	_, err := m.Submit(context.Background())

	require.ErrorIs(t, err, ErrInvalid)
	assert.Zero(t, store.creates)
	errs := m.Errors()
	assert.Equal(t, "end time must be after start time", errs["time_end"])
	assert.NotContains(t, errs, "time_start")
	assert.True(t, m.IsOpen())
}

func TestSubmitShortDescription(t *testing.T) {
	store := &recordingStore{}
	m := newModal(t, store, map[string]string{"title": "Kickoff", "description": "short"})

	_, err := m.Submit(context.Background())

	require.Error(t, err)
	assert.Zero(t, store.creates)
	errs := m.Errors()
	assert.Contains(t, errs, "description")
	assert.NotContains(t, errs, "title")
	for _, name := range eventFieldNames {
		assert.True(t, m.Touched(name), name)
	}
}

func TestSubmitRejectsPastDate(t *testing.T) {
	store := &recordingStore{}
	m := newModal(t, store, map[string]string{"date": "2026-05-19"})

	_, err := m.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "date cannot be in the past", m.Errors()["date"])
}

func TestTodayIsAllowed(t *testing.T) {
	store := &recordingStore{}
	m := newModal(t, store, map[string]string{"date": "2026-05-20"})

	_, err := m.Submit(context.Background())
	require.NoError(t, err)
}

func TestEqualTimesRejected(t *testing.T) {
	errs := ValidateEvent(context.Background(), EventFields{
		Title: "Kickoff", Description: "long enough text", Date: "2026-06-01",
		TimeStart: "10:00", TimeEnd: "10:00", Location: "Hall", Responsable: "Jo", CelluleName: "X",
	}, testNow)
	assert.Contains(t, errs, "time_end")
}

func TestValidateFieldRules(t *testing.T) {
	errs := ValidateEvent(context.Background(), EventFields{
		Title:       "ab",
		Description: strings.Repeat("x", 1001),
		Date:        "21/05/2026",
		TimeStart:   "25:00",
		TimeEnd:     "",
		Location:    "ab",
		Responsable: "J",
	}, testNow)

	for _, field := range []string{"title", "description", "date", "time_start", "time_end", "location", "responsable", "cellule_name"} {
		assert.Contains(t, errs, field)
	}
	assert.Equal(t, "cellule_name is a required field", errs["cellule_name"])
}

func TestWhitespaceIsTrimmed(t *testing.T) {
	errs := ValidateEvent(context.Background(), EventFields{Title: "   ab   "}, testNow)
	assert.Contains(t, errs, "title")
}

func TestSubmitCreatesAndResets(t *testing.T) {
	store := &recordingStore{}
	m := newModal(t, store, nil)
	require.NoError(t, m.SelectImage("cover.png", bytes.NewReader(pngHeader)))
	assert.True(t, strings.HasPrefix(m.Preview(), "data:image/png;base64,"))

	saved, err := m.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 42, saved.ID)
	assert.Equal(t, 1, store.creates)
	files := store.lastForm.Files()
	require.Len(t, files, 1)
	assert.Equal(t, EventImageField, files[0].Field)
	assert.Equal(t, pngHeader, files[0].Data)
	eventType, _ := store.lastForm.Value("type")
	assert.Equal(t, "conference", eventType)

	assert.False(t, m.IsOpen())
	assert.Empty(t, m.Fields().Title)
	assert.Nil(t, m.Image())
}

func TestSubmitFailureStaysOpen(t *testing.T) {
	store := &recordingStore{err: &apiclient.APIError{Status: 400, Message: "cellule not found"}}
	m := newModal(t, store, nil)

	_, err := m.Submit(context.Background())
	require.Error(t, err)

	assert.True(t, m.IsOpen())
	assert.Equal(t, "cellule not found", m.SubmitError())
	assert.Equal(t, "Kickoff", m.Fields().Title)
}

func TestSubmitFailureFallbackMessage(t *testing.T) {
	store := &recordingStore{err: errors.New("dial tcp: connection refused")}
	m := newModal(t, store, nil)

	_, err := m.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "An error occurred while creating the event", m.SubmitError())
}

func TestEditModalUsesPatchAndEditLimit(t *testing.T) {
	store := &recordingStore{}
	m := NewEventModal(store, Limits{CreateImageMax: 64, EditImageMax: 16}, WithClock(func() time.Time { return testNow }))
	m.OpenEdit(types.Event{
		ID: 9, Title: "Kickoff", Description: "Opening session of the year", Date: "2026-06-01T00:00:00.000Z",
		TimeStart: "10:00:00", TimeEnd: "12:30:00", Location: "Hall", Responsable: "Jo",
		CelluleName: "Robotics", ImageURL: "http://img/1.png",
	})
	assert.Equal(t, "2026-06-01", m.Fields().Date)
	assert.Equal(t, "12:30", m.Fields().TimeEnd)
	assert.Equal(t, "http://img/1.png", m.Preview())

	big := append(append([]byte{}, pngHeader...), make([]byte, 32)...)
	err := m.SelectImage("big.png", bytes.NewReader(big))
	require.Error(t, err)
	assert.Contains(t, m.Errors()["image"], "16 bytes")

	_, err = m.Submit(context.Background())
	require.Error(t, err)
	assert.Zero(t, store.updates)

	require.NoError(t, m.SelectImage("small.png", bytes.NewReader(pngHeader[:12])))
	_, err = m.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.updates)
	assert.Equal(t, 9, store.lastID)
}

func TestSelectImageRejectsNonImage(t *testing.T) {
	m := NewEventModal(&recordingStore{}, DefaultLimits)
	m.OpenCreate()

	err := m.SelectImage("notes.txt", strings.NewReader("hello world"))
	require.Error(t, err)
	assert.Equal(t, "please select a valid image", m.Errors()["image"])
	assert.Nil(t, m.Image())
}

func TestBlurShowsOnlyTouchedErrors(t *testing.T) {
	m := NewEventModal(&recordingStore{}, DefaultLimits, WithClock(func() time.Time { return testNow }))
	m.OpenCreate()

	require.NoError(t, m.Set("title", "ab"))
	assert.Empty(t, m.Errors())

	m.Blur("title")
	assert.Contains(t, m.Errors(), "title")
	assert.NotContains(t, m.Errors(), "description")

	require.NoError(t, m.Set("title", "abc"))
	assert.NotContains(t, m.Errors(), "title")

	assert.Error(t, m.Set("unknown", "x"))
}
