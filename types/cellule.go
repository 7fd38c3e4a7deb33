package types

import "time"

// Cellule is a working group of the organization.
type Cellule struct {
	// ID is the unique identifier of the group.
	ID int `json:"id"`

	// Name is the full group name.
	Name string `json:"name"`

	// Abbreviation is the short label shown in lists.
	Abbreviation string `json:"abbreviation"`

	// Domain is the group's area of activity, used for filtering.
	Domain string `json:"domain,omitempty"`

	// ImageCell is the URL of the group's image.
	ImageCell string `json:"image_cell,omitempty"`
}

// Document is an uploaded file, optionally attached to an event.
type Document struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename"`
	FileURL    string    `json:"fileUrl,omitempty"`
	FilePath   string    `json:"file_path,omitempty"`
	EventID    int       `json:"event_id,omitempty"`
	UploadDate time.Time `json:"uploadDate"`
}

// Blob is the binary content of a document fetched for preview.
type Blob struct {
	DocumentID  int
	Filename    string
	ContentType string
	Data        []byte
}

// Announcement is a short link published to members.
type Announcement struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	URL      string `json:"url"`
	IsActive bool   `json:"isActive"`
}
