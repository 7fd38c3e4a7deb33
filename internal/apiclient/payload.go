package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/pkg/errors"
)

// Payload is a request body. It is encoded once per call so that a
// replay after a token refresh sends identical bytes.
type Payload interface {
	Encode() (body []byte, contentType string, err error)
}

// JSONPayload sends Value as application/json.
type JSONPayload struct {
	Value any
}

// JSON wraps v as a JSON payload.
func JSON(v any) JSONPayload {
	return JSONPayload{Value: v}
}

func (p JSONPayload) Encode() ([]byte, string, error) {
	data, err := json.Marshal(p.Value)
	if err != nil {
		return nil, "", errors.Wrap(err, "marshal json payload")
	}
	return data, "application/json", nil
}

// FilePart is one file of a multipart payload.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

type fieldPart struct {
	name  string
	value string
}

// MultipartPayload is a multipart/form-data body. Fields and files are
// written in insertion order.
type MultipartPayload struct {
	fields []fieldPart
	files  []FilePart
}

// NewMultipart returns an empty multipart payload.
func NewMultipart() *MultipartPayload {
	return &MultipartPayload{}
}

// Field appends a text field.
func (m *MultipartPayload) Field(name, value string) *MultipartPayload {
	m.fields = append(m.fields, fieldPart{name: name, value: value})
	return m
}

// File appends a file part. An empty content type falls back to
// application/octet-stream.
func (m *MultipartPayload) File(field, filename, contentType string, data []byte) *MultipartPayload {
	m.files = append(m.files, FilePart{
		Field:       field,
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	})
	return m
}

// Value returns the first value of a text field.
func (m *MultipartPayload) Value(name string) (string, bool) {
	for _, f := range m.fields {
		if f.name == name {
			return f.value, true
		}
	}
	return "", false
}

// Files returns the file parts.
func (m *MultipartPayload) Files() []FilePart {
	return append([]FilePart(nil), m.files...)
}

func (m *MultipartPayload) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range m.fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", errors.Wrapf(err, "write field %s", f.name)
		}
	}
	for _, f := range m.files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(f.Field), escapeQuotes(f.Filename)))
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", errors.Wrapf(err, "create part %s", f.Field)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", errors.Wrapf(err, "write part %s", f.Field)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "close multipart writer")
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
