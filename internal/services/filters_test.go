package services

import (
	"testing"

	"github.com/cellhub/admin/types"
	"github.com/stretchr/testify/assert"
)

var sampleUsers = []types.User{
	{ID: 1, FirstName: "Amina", LastName: "Diallo", Email: "amina@x.org", Specialty: "Networks", Status: types.UserAllowed},
	{ID: 2, FirstName: "Yanis", LastName: "Benali", Email: "yanis@x.org", Status: types.UserPending},
	{ID: 3, FirstName: "Lina", LastName: "Haddad", Email: "lina@x.org", Specialty: "AI", Status: types.UserDenied},
	{ID: 4, FirstName: "Omar", LastName: "Said", Email: "omar@x.org", Status: types.UserPending},
}

func ids[T any](items []T, id func(T) int) []int {
	out := make([]int, 0, len(items))
	for _, item := range items {
		out = append(out, id(item))
	}
	return out
}

func userID(u types.User) int { return u.ID }

func TestFilterUsers(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4}, ids(FilterUsers(sampleUsers, "", FilterAll), userID))
	assert.Equal(t, []int{1}, ids(FilterUsers(sampleUsers, "amina diallo", ""), userID))
	assert.Equal(t, []int{3}, ids(FilterUsers(sampleUsers, "ai", ""), userID))
	assert.Equal(t, []int{2, 4}, ids(FilterUsers(sampleUsers, "", "pending"), userID))
	assert.Equal(t, []int{4}, ids(FilterUsers(sampleUsers, "OMAR", "pending"), userID))
	assert.Empty(t, FilterUsers(sampleUsers, "omar", "allowed"))
}

func TestCountStatuses(t *testing.T) {
	assert.Equal(t, StatusCounts{All: 4, Allowed: 1, Pending: 2, Denied: 1}, CountStatuses(sampleUsers))
}

func TestFilterEvents(t *testing.T) {
	events := []types.Event{
		{ID: 1, Title: "Go workshop", Description: "Concurrency basics"},
		{ID: 2, Title: "Hackathon", Description: "48 hours of Go"},
		{ID: 3, Title: "Assembly", Description: "Annual meeting"},
	}
	got := FilterEvents(events, "go")
	assert.Equal(t, []int{1, 2}, ids(got, func(e types.Event) int { return e.ID }))
}

func TestFilterCellulesAndDomains(t *testing.T) {
	cells := []types.Cellule{
		{ID: 1, Name: "Robotics", Abbreviation: "RBT", Domain: "Engineering"},
		{ID: 2, Name: "Media", Abbreviation: "MED", Domain: "Communication"},
		{ID: 3, Name: "Embedded", Abbreviation: "EMB", Domain: "Engineering"},
		{ID: 4, Name: "Chess", Abbreviation: "CHS"},
	}
	cellID := func(c types.Cellule) int { return c.ID }

	assert.Equal(t, []string{"Engineering", "Communication"}, Domains(cells))
	assert.Equal(t, []int{1, 3}, ids(FilterCellules(cells, "", "Engineering"), cellID))
	assert.Equal(t, []int{3}, ids(FilterCellules(cells, "emb", "Engineering"), cellID))
	assert.Equal(t, []int{2}, ids(FilterCellules(cells, "communication", FilterAll), cellID))
	assert.Equal(t, []int{4}, ids(FilterCellules(cells, "chs", ""), cellID))
}

func TestEnrichAndFilterDocuments(t *testing.T) {
	docs := []types.Document{
		{ID: 1, Title: "Minutes", Filename: "minutes.pdf", EventID: 7},
		{ID: 2, Title: "Budget", Filename: "budget.xlsx", EventID: 99},
		{ID: 3, Title: "Charter", Filename: "charter.docx"},
	}
	events := []types.Event{{ID: 7, Title: "General assembly"}}

	rows := EnrichDocuments(docs, events)
	assert.Equal(t, "General assembly", rows[0].EventTitle)
	assert.Equal(t, UnknownEventTitle, rows[1].EventTitle)
	assert.Empty(t, rows[2].EventTitle)

	assert.Empty(t, EnrichDocuments(docs, nil)[0].EventTitle)

	got := FilterDocuments(rows, "assembly")
	assert.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
	assert.Len(t, FilterDocuments(rows, ".docx"), 1)
}

func TestFilterRegistrations(t *testing.T) {
	regs := []types.Registration{
		{ID: 1, User: &sampleUsers[0]},
		{ID: 2, UserIDRaw: 9},
		{ID: 3, User: &sampleUsers[2]},
	}
	regID := func(r types.Registration) int { return r.ID }
	assert.Equal(t, []int{1, 2, 3}, ids(FilterRegistrations(regs, ""), regID))
	assert.Equal(t, []int{3}, ids(FilterRegistrations(regs, "lina"), regID))
}

func TestFileKind(t *testing.T) {
	cases := map[[2]string]string{
		{"report.PDF", ""}:               "pdf",
		{"blob", "application/pdf"}:      "pdf",
		{"notes.docx", ""}:               "word",
		{"data.csv", ""}:                 "spreadsheet",
		{"deck.pptx", ""}:                "presentation",
		{"logo.svg", ""}:                 "image",
		{"clip.mov", ""}:                 "video",
		{"song.flac", ""}:                "audio",
		{"src.tar", ""}:                  "archive",
		{"main.go", ""}:                  "code",
		{"readme", "text/plain"}:         "text",
		{"unknown.bin", "application/x"}: "file",
	}
	for in, want := range cases {
		assert.Equal(t, want, FileKind(in[0], in[1]), in[0])
	}
}
