package forms

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/cellhub/admin/internal/apiclient"
)

// Multipart field names expected by the API.
const (
	CelluleImageCreateField = "cell_image_url"
	CelluleImageUpdateField = "uploaded_cell_image"
	DocumentFileField       = "uploaded_document"
)

// AnnouncementForm is the announcement dialog. It is sent as JSON.
type AnnouncementForm struct {
	Title    string `json:"title" validate:"required,min=3"`
	Subtitle string `json:"subtitle" validate:"required"`
	URL      string `json:"url" validate:"required,url"`
}

func (f AnnouncementForm) trimmed() AnnouncementForm {
	f.Title = strings.TrimSpace(f.Title)
	f.Subtitle = strings.TrimSpace(f.Subtitle)
	f.URL = strings.TrimSpace(f.URL)
	return f
}

// Validate returns nil or FieldErrors.
func (f AnnouncementForm) Validate() error {
	if errs := validateStruct(context.Background(), f.trimmed()); len(errs) > 0 {
		return errs
	}
	return nil
}

func (f AnnouncementForm) Payload() apiclient.Payload {
	return apiclient.JSON(f.trimmed())
}

// CelluleForm is the cellule dialog. The image is optional.
type CelluleForm struct {
	Name         string `json:"name" validate:"required"`
	Abbreviation string `json:"abbreviation" validate:"required"`
	Domain       string `json:"domain"`

	image *File
}

func (f *CelluleForm) trimmed() CelluleForm {
	out := *f
	out.Name = strings.TrimSpace(f.Name)
	out.Abbreviation = strings.TrimSpace(f.Abbreviation)
	out.Domain = strings.TrimSpace(f.Domain)
	return out
}

// SelectImage reads the cellule image, capped at limit bytes.
func (f *CelluleForm) SelectImage(name string, r io.Reader, limit int64) error {
	img, err := readImage(name, r, limit)
	if err != nil {
		return FieldErrors{"image": err.Error()}
	}
	f.image = img
	return nil
}

func (f *CelluleForm) Image() *File {
	return f.image
}

func (f *CelluleForm) Validate() error {
	if errs := validateStruct(context.Background(), f.trimmed()); len(errs) > 0 {
		return errs
	}
	return nil
}

// Multipart builds the body. The image field name differs between
// create and update.
func (f *CelluleForm) Multipart(mode Mode) *apiclient.MultipartPayload {
	t := f.trimmed()
	form := apiclient.NewMultipart().
		Field("name", t.Name).
		Field("abbreviation", t.Abbreviation)
	if t.Domain != "" {
		form.Field("domain", t.Domain)
	}
	if f.image != nil {
		field := CelluleImageCreateField
		if mode == ModeEdit {
			field = CelluleImageUpdateField
		}
		form.File(field, f.image.Name, f.image.ContentType, f.image.Data)
	}
	return form
}

// DocumentForm is the upload dialog.
type DocumentForm struct {
	Title   string `json:"title" validate:"required"`
	EventID int    `json:"event_id"`

	file *File
}

// SelectFile reads the document, capped at limit bytes.
func (f *DocumentForm) SelectFile(name string, r io.Reader, limit int64) error {
	file, err := readFile(name, r, limit)
	if err != nil {
		return FieldErrors{"file": err.Error()}
	}
	f.file = file
	return nil
}

func (f *DocumentForm) File() *File {
	return f.file
}

func (f *DocumentForm) Validate() error {
	t := DocumentForm{Title: strings.TrimSpace(f.Title), EventID: f.EventID}
	errs := validateStruct(context.Background(), t)
	if f.file == nil {
		if errs == nil {
			errs = FieldErrors{}
		}
		errs["file"] = "file is a required field"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (f *DocumentForm) Multipart() *apiclient.MultipartPayload {
	form := apiclient.NewMultipart().Field("title", strings.TrimSpace(f.Title))
	if f.EventID > 0 {
		form.Field("event_id", strconv.Itoa(f.EventID))
	}
	if f.file != nil {
		form.File(DocumentFileField, f.file.Name, f.file.ContentType, f.file.Data)
	}
	return form
}
