package apiclient

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"path"

	"github.com/pkg/errors"
)

// DecodeKey unmarshals the value under key of a JSON object body into
// T. An empty key decodes the whole body. present is false when the key
// is missing or null, in which case the zero T is returned.
func DecodeKey[T any](body []byte, key string) (value T, present bool, err error) {
	if key == "" {
		if len(body) == 0 {
			return value, false, nil
		}
		if err := json.Unmarshal(body, &value); err != nil {
			return value, false, errors.Wrap(err, "decode response body")
		}
		return value, true, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return value, false, errors.Wrap(err, "decode response envelope")
	}
	raw, ok := envelope[key]
	if !ok || string(raw) == "null" {
		return value, false, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, errors.Wrapf(err, "decode response key %q", key)
	}
	return value, true, nil
}

// GetJSON sends a GET and decodes the value under key into out. A
// missing key leaves out untouched.
func (c *Client) GetJSON(ctx context.Context, path, key string, out any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	raw, present, err := DecodeKey[json.RawMessage](resp.Body, key)
	if err != nil || !present {
		return err
	}
	return errors.Wrap(json.Unmarshal(raw, out), "decode response")
}

// SendJSON sends v as a JSON body.
func (c *Client) SendJSON(ctx context.Context, method, path string, v any) (*Response, error) {
	return c.Send(ctx, method, path, JSON(v))
}

// SendMultipart sends a multipart form.
func (c *Client) SendMultipart(ctx context.Context, method, path string, form *MultipartPayload) (*Response, error) {
	return c.Send(ctx, method, path, form)
}

// Blob is binary content with the filename the server suggested.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}

// GetBlob downloads binary content.
func (c *Client) GetBlob(ctx context.Context, p string) (*Blob, error) {
	resp, err := c.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	return ReadBlob(resp, path.Base(p)), nil
}

// ReadBlob wraps a binary response. The filename comes from the
// Content-Disposition header, falling back to fallbackName.
func ReadBlob(resp *Response, fallbackName string) *Blob {
	blob := &Blob{
		Filename:    fallbackName,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        resp.Body,
	}
	if blob.ContentType == "" {
		blob.ContentType = http.DetectContentType(resp.Body)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			blob.Filename = params["filename"]
		}
	}
	return blob
}
