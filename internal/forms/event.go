package forms

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/types"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// EventImageField is the multipart field carrying the event image.
const EventImageField = "event_image"

const defaultEventType = "conference"

// EventFields are the text fields of the event form.
type EventFields struct {
	Title       string `json:"title" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"required,min=10,max=1000"`
	Type        string `json:"type"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeStart   string `json:"time_start" validate:"required,hhmm"`
	TimeEnd     string `json:"time_end" validate:"required,hhmm"`
	Location    string `json:"location" validate:"required,min=3"`
	Responsable string `json:"responsable" validate:"required,min=2"`
	CelluleName string `json:"cellule_name" validate:"required"`
}

var eventFieldNames = []string{
	"title", "description", "type", "date", "time_start", "time_end",
	"location", "responsable", "cellule_name",
}

func (f *EventFields) ref(name string) *string {
	switch name {
	case "title":
		return &f.Title
	case "description":
		return &f.Description
	case "type":
		return &f.Type
	case "date":
		return &f.Date
	case "time_start":
		return &f.TimeStart
	case "time_end":
		return &f.TimeEnd
	case "location":
		return &f.Location
	case "responsable":
		return &f.Responsable
	case "cellule_name":
		return &f.CelluleName
	default:
		return nil
	}
}

func (f EventFields) trimmed() EventFields {
	for _, name := range eventFieldNames {
		p := f.ref(name)
		*p = strings.TrimSpace(*p)
	}
	if f.Type == "" {
		f.Type = defaultEventType
	}
	return f
}

// FieldsFromEvent fills the form from an existing event.
func FieldsFromEvent(e types.Event) EventFields {
	date := e.Date
	if len(date) > len(types.DateLayout) {
		date = date[:len(types.DateLayout)]
	}
	return EventFields{
		Title:       e.Title,
		Description: e.Description,
		Type:        e.Type,
		Date:        date,
		TimeStart:   types.ShortTime(e.TimeStart),
		TimeEnd:     types.ShortTime(e.TimeEnd),
		Location:    e.Location,
		Responsable: e.Responsable,
		CelluleName: e.CelluleName,
	}
}

// ValidateEvent checks every field against the day of now.
func ValidateEvent(ctx context.Context, fields EventFields, now time.Time) FieldErrors {
	return validateStruct(withToday(ctx, now), fields.trimmed())
}

// eventStructValidation holds the cross-field rules: the date may not
// be before today, and the end time must be after the start time.
func eventStructValidation(ctx context.Context, sl validator.StructLevel) {
	f, ok := sl.Current().Interface().(EventFields)
	if !ok {
		return
	}
	if today, ok := ctx.Value(todayKey{}).(time.Time); ok && len(f.Date) == len(types.DateLayout) {
		if day, ok := types.ParseDay(f.Date, today.Location()); ok && day.Before(today) {
			sl.ReportError(f.Date, "date", "Date", notPastTag, "")
		}
	}
	if isClock(f.TimeStart) && isClock(f.TimeEnd) && f.TimeEnd <= f.TimeStart {
		sl.ReportError(f.TimeEnd, "time_end", "TimeEnd", afterStartTag, "")
	}
}

// EventMultipart builds the submission body.
func EventMultipart(fields EventFields, image *File) *apiclient.MultipartPayload {
	fields = fields.trimmed()
	form := apiclient.NewMultipart()
	for _, name := range eventFieldNames {
		form.Field(name, *fields.ref(name))
	}
	if image != nil {
		form.File(EventImageField, image.Name, image.ContentType, image.Data)
	}
	return form
}

// EventSubmitter is the store side of the modal.
type EventSubmitter interface {
	Create(ctx context.Context, payload apiclient.Payload) (types.Event, error)
	Update(ctx context.Context, id int, payload apiclient.Payload) (types.Event, error)
}

// Mode tells the modal whether it creates or edits.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// EventModal is the create/edit event dialog: field state, touched
// tracking, per-field errors, image selection and submission.
type EventModal struct {
	store  EventSubmitter
	limits Limits
	now    func() time.Time

	mu        sync.Mutex
	open      bool
	mode      Mode
	eventID   int
	fields    EventFields
	image     *File
	preview   string
	errs      FieldErrors
	touched   map[string]bool
	submitErr string
}

// ModalOption configures an EventModal.
type ModalOption func(*EventModal)

// WithClock sets the clock used for the not-in-the-past rule.
func WithClock(now func() time.Time) ModalOption {
	return func(m *EventModal) {
		m.now = now
	}
}

func NewEventModal(store EventSubmitter, limits Limits, opts ...ModalOption) *EventModal {
	m := &EventModal{store: store, limits: limits, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.reset()
	return m
}

// OpenCreate shows an empty form.
func (m *EventModal) OpenCreate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	m.mode = ModeCreate
	m.open = true
}

// OpenEdit shows the form filled from e. The current image is the
// preview until another one is selected.
func (m *EventModal) OpenEdit(e types.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	m.mode = ModeEdit
	m.eventID = e.ID
	m.fields = FieldsFromEvent(e)
	m.preview = e.ImageURL
	m.open = true
}

// Close hides the modal and drops its state.
func (m *EventModal) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *EventModal) reset() {
	m.open = false
	m.eventID = 0
	m.fields = EventFields{Type: defaultEventType}
	m.image = nil
	m.preview = ""
	m.errs = FieldErrors{}
	m.touched = map[string]bool{}
	m.submitErr = ""
}

// Set changes a field. A field already touched is validated again.
func (m *EventModal) Set(field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.fields.ref(field)
	if p == nil {
		return errors.Errorf("unknown event field %q", field)
	}
	*p = value
	if m.touched[field] {
		m.validateField(field)
	}
	return nil
}

// Blur marks a field touched and validates it.
func (m *EventModal) Blur(field string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[field] = true
	m.validateField(field)
}

func (m *EventModal) validateField(field string) {
	all := ValidateEvent(context.Background(), m.fields, m.now())
	if msg, ok := all[field]; ok {
		m.errs[field] = msg
		return
	}
	delete(m.errs, field)
}

// SelectImage reads an image. The original bytes are kept for upload
// and a data URL is produced for preview. On error the previous image
// is kept and the error recorded under "image".
func (m *EventModal) SelectImage(name string, r io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit := m.limits.CreateImageMax
	if m.mode == ModeEdit {
		limit = m.limits.EditImageMax
	}
	img, err := readImage(name, r, limit)
	if err != nil {
		m.errs["image"] = err.Error()
		return err
	}
	delete(m.errs, "image")
	m.image = img
	m.preview = img.DataURL()
	return nil
}

// Submit validates everything and, if valid, creates or updates the
// event. Invalid input marks every field touched and returns the
// FieldErrors without calling the store. A store failure keeps the
// modal open with the message in SubmitError.
func (m *EventModal) Submit(ctx context.Context) (types.Event, error) {
	m.mu.Lock()
	fields := m.fields
	image := m.image
	mode, id := m.mode, m.eventID

	errs := ValidateEvent(ctx, fields, m.now())
	if imgErr, ok := m.errs["image"]; ok {
		if errs == nil {
			errs = FieldErrors{}
		}
		errs["image"] = imgErr
	}
	if len(errs) > 0 {
		m.errs = errs
		for _, name := range eventFieldNames {
			m.touched[name] = true
		}
		m.mu.Unlock()
		return types.Event{}, errs
	}
	m.submitErr = ""
	m.mu.Unlock()

	payload := EventMultipart(fields, image)
	var (
		saved types.Event
		err   error
	)
	if mode == ModeEdit {
		saved, err = m.store.Update(ctx, id, payload)
	} else {
		saved, err = m.store.Create(ctx, payload)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		fallback := "An error occurred while creating the event"
		if mode == ModeEdit {
			fallback = "An error occurred while updating the event"
		}
		m.submitErr = apiclient.MessageOf(err, fallback)
		return types.Event{}, err
	}
	m.reset()
	return saved, nil
}

func (m *EventModal) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *EventModal) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

func (m *EventModal) Fields() EventFields {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fields
}

// Errors returns the errors of touched fields plus any image error.
func (m *EventModal) Errors() FieldErrors {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := FieldErrors{}
	for field, msg := range m.errs {
		if field == "image" || m.touched[field] {
			out[field] = msg
		}
	}
	return out
}

func (m *EventModal) Touched(field string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touched[field]
}

func (m *EventModal) Preview() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preview
}

func (m *EventModal) Image() *File {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.image
}

func (m *EventModal) SubmitError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitErr
}
