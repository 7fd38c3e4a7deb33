package types

import (
	"strings"
	"time"
)

// Event represents an organization event.
// Events are created and updated with multipart payloads so that an
// optional image can travel with the structured fields.
type Event struct {
	// ID is the unique identifier of the event.
	ID int `json:"id"`

	// Title is the human-readable name of the event.
	Title string `json:"title"`

	// Description is the long-form presentation of the event.
	Description string `json:"description"`

	// Type is the event category (conference, workshop, ...).
	Type string `json:"type"`

	// Date is the calendar day of the event. The backend sends either
	// YYYY-MM-DD or a full ISO-8601 timestamp.
	Date string `json:"date"`

	// TimeStart is the start time of day, HH:MM or HH:MM:SS.
	TimeStart string `json:"time_start"`

	// TimeEnd is the end time of day, HH:MM or HH:MM:SS.
	TimeEnd string `json:"time_end"`

	// Location is where the event takes place.
	Location string `json:"location"`

	// Responsable is the person in charge of the event.
	Responsable string `json:"responsable"`

	// CelluleName is the name of the organizing group.
	CelluleName string `json:"cellule_name"`

	// ImageURL points to the uploaded event image, if any.
	ImageURL string `json:"image_url,omitempty"`
}

// DateLayout is the date-only layout used by forms and the backend.
const DateLayout = "2006-01-02"

// Day parses the date part of Date in the given location.
func (e Event) Day(loc *time.Location) (time.Time, bool) {
	return ParseDay(e.Date, loc)
}

// ParseDay accepts YYYY-MM-DD or any value starting with it.
func ParseDay(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if len(value) < len(DateLayout) {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, value[:len(DateLayout)], loc)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// ShortTime trims a HH:MM:SS value to HH:MM.
func ShortTime(value string) string {
	if len(value) > 5 {
		return value[:5]
	}
	return value
}
