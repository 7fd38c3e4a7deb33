package services

import (
	"path"
	"strings"

	"github.com/cellhub/admin/types"
)

// FilterAll is the filter value that disables a status or domain filter.
const FilterAll = "all"

// UnknownEventTitle labels documents whose event is not in the cache.
const UnknownEventTitle = "Unknown event"

// matches reports whether any field contains term, ignoring case. An
// empty term matches everything.
func matches(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range fields {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// FilterUsers searches by full name, email and specialty, then keeps
// users with the given status ("" or "all" keeps every status).
func FilterUsers(users []types.User, term, status string) []types.User {
	out := make([]types.User, 0, len(users))
	for _, u := range users {
		if status != "" && status != FilterAll && string(u.Status) != status {
			continue
		}
		if matches(term, u.FullName(), u.Email, u.Specialty) {
			out = append(out, u)
		}
	}
	return out
}

// StatusCounts are the user counts per moderation status.
type StatusCounts struct {
	All     int
	Allowed int
	Pending int
	Denied  int
}

func CountStatuses(users []types.User) StatusCounts {
	counts := StatusCounts{All: len(users)}
	for _, u := range users {
		switch u.Status {
		case types.UserAllowed:
			counts.Allowed++
		case types.UserPending:
			counts.Pending++
		case types.UserDenied:
			counts.Denied++
		}
	}
	return counts
}

// FilterEvents searches titles and descriptions.
func FilterEvents(events []types.Event, term string) []types.Event {
	out := make([]types.Event, 0, len(events))
	for _, e := range events {
		if matches(term, e.Title, e.Description) {
			out = append(out, e)
		}
	}
	return out
}

// FilterCellules searches name, abbreviation and domain, then keeps
// the given domain ("" or "all" keeps every domain).
func FilterCellules(cellules []types.Cellule, term, domain string) []types.Cellule {
	out := make([]types.Cellule, 0, len(cellules))
	for _, c := range cellules {
		if domain != "" && domain != FilterAll && c.Domain != domain {
			continue
		}
		if matches(term, c.Name, c.Abbreviation, c.Domain) {
			out = append(out, c)
		}
	}
	return out
}

// Domains lists the distinct non-empty domains in first-seen order.
func Domains(cellules []types.Cellule) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range cellules {
		if c.Domain == "" || seen[c.Domain] {
			continue
		}
		seen[c.Domain] = true
		out = append(out, c.Domain)
	}
	return out
}

// DocumentRow is a document with the title of its event.
type DocumentRow struct {
	types.Document
	EventTitle string
}

// EnrichDocuments resolves event titles. Documents without an event
// get an empty title; an event missing from events gets
// UnknownEventTitle.
func EnrichDocuments(docs []types.Document, events []types.Event) []DocumentRow {
	titles := make(map[int]string, len(events))
	for _, e := range events {
		titles[e.ID] = e.Title
	}
	rows := make([]DocumentRow, len(docs))
	for i, d := range docs {
		rows[i] = DocumentRow{Document: d}
		if d.EventID == 0 || len(events) == 0 {
			continue
		}
		if title, ok := titles[d.EventID]; ok {
			rows[i].EventTitle = title
		} else {
			rows[i].EventTitle = UnknownEventTitle
		}
	}
	return rows
}

// FilterDocuments searches title, filename and event title.
func FilterDocuments(rows []DocumentRow, term string) []DocumentRow {
	out := make([]DocumentRow, 0, len(rows))
	for _, r := range rows {
		if matches(term, r.Title, r.Filename, r.EventTitle) {
			out = append(out, r)
		}
	}
	return out
}

// FilterRegistrations searches the registered user's name, email and
// specialty.
func FilterRegistrations(regs []types.Registration, term string) []types.Registration {
	out := make([]types.Registration, 0, len(regs))
	for _, r := range regs {
		var u types.User
		if r.User != nil {
			u = *r.User
		}
		if matches(term, u.FullName(), u.Email, u.Specialty) {
			out = append(out, r)
		}
	}
	return out
}

// FilterAttendees searches full name, email and specialty.
func FilterAttendees(rows []types.Attendee, term string) []types.Attendee {
	out := make([]types.Attendee, 0, len(rows))
	for _, a := range rows {
		if matches(term, a.FullName(), a.Email, a.Specialty) {
			out = append(out, a)
		}
	}
	return out
}

// FileKind classifies a document for display from its filename and
// MIME type.
func FileKind(filename, mimeType string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	mimeType = strings.ToLower(mimeType)
	has := func(parts ...string) bool {
		for _, p := range parts {
			if strings.Contains(mimeType, p) {
				return true
			}
		}
		return false
	}
	in := func(exts ...string) bool {
		for _, e := range exts {
			if ext == e {
				return true
			}
		}
		return false
	}

	switch {
	case ext == "pdf" || has("pdf"):
		return "pdf"
	case in("doc", "docx") || has("word"):
		return "word"
	case in("xls", "xlsx", "csv") || has("excel", "spreadsheet"):
		return "spreadsheet"
	case in("ppt", "pptx") || has("powerpoint", "presentation"):
		return "presentation"
	case in("jpg", "jpeg", "png", "gif", "bmp", "webp", "svg") || has("image"):
		return "image"
	case in("mp4", "avi", "mov", "wmv", "flv") || has("video"):
		return "video"
	case in("mp3", "wav", "ogg", "flac") || has("audio"):
		return "audio"
	case in("zip", "rar", "7z", "tar", "gz") || has("archive", "zip", "gzip"):
		return "archive"
	case in("js", "jsx", "ts", "tsx", "html", "css", "py", "java", "cpp", "c", "php", "go"):
		return "code"
	case in("txt", "rtf") || has("text"):
		return "text"
	default:
		return "file"
	}
}
