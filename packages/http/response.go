package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"strings"
	"sync"
	"time"
)

// Response is what a Transport returns. Its body can be read exactly once,
// through Bytes, Text or JSON. A Response built without NewResponse has an
// empty body.
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Duration   time.Duration

	mu       sync.Mutex
	body     io.ReadCloser
	consumed bool
}

// NewResponse wraps a status, headers and body reader. A nil body reads as empty.
func NewResponse(statusCode int, headers map[string]string, body io.Reader) *Response {
	rc, ok := body.(io.ReadCloser)
	if !ok {
		if body == nil {
			body = bytes.NewReader(nil)
		}
		rc = io.NopCloser(body)
	}
	if headers == nil {
		headers = make(map[string]string)
	}
	return &Response{
		StatusCode: statusCode,
		Headers:    headers,
		body:       rc,
	}
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) Header(key string) string {
	if v, ok := r.Headers[key]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return isJSONType(r.ContentType())
}

// Bytes reads and closes the body. Later reads fail with ErrBodyConsumed.
func (r *Response) Bytes() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumed {
		return nil, ErrBodyConsumed
	}
	r.consumed = true
	if r.body == nil {
		return []byte{}, nil
	}
	defer r.body.Close()
	return io.ReadAll(r.body)
}

func (r *Response) Text() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Response) JSON(dst any) error {
	b, err := r.Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// Close releases the body without reading it. It is a no-op once the body was consumed.
func (r *Response) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumed {
		return nil
	}
	r.consumed = true
	if r.body == nil {
		return nil
	}
	return r.body.Close()
}

// Result is the decoded outcome of a successful call.
type Result struct {
	Method      string
	URL         string
	StatusCode  int
	Headers     map[string]string
	ContentType string
	Duration    time.Duration
	// Value is the parsed JSON value, the body text, or the raw bytes for
	// non-textual content. It is nil for an empty body.
	Value any
	Raw   []byte
}

func (r *Result) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// Into decodes the raw body into dst.
func (r *Result) Into(dst any) error {
	return json.Unmarshal(r.Raw, dst)
}

func (r *Result) Text() string {
	return string(r.Raw)
}

func (r *Result) IsJSON() bool {
	return isJSONType(r.ContentType)
}

func (r *Result) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
		mt = strings.ToLower(strings.TrimSpace(mt))
	}
	return mt
}

func isJSONType(contentType string) bool {
	mt := mediaType(contentType)
	return mt == ContentTypeJSON || strings.HasSuffix(mt, "+json")
}

// isTextType reports whether a body of this type should decode to a string.
// An undeclared type counts as text.
func isTextType(contentType string) bool {
	mt := mediaType(contentType)
	switch {
	case mt == "":
		return true
	case strings.HasPrefix(mt, "text/"):
		return true
	case mt == "application/xml", strings.HasSuffix(mt, "+xml"):
		return true
	case mt == "application/javascript", mt == ContentTypeForm:
		return true
	}
	return false
}
