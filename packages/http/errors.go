package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("transport failure")

	// ErrConnectionFailure matches every *DecodeError: a response arrived but its body could not be decoded.
	ErrConnectionFailure = errors.New("connection failure")

	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrBodyConsumed           = errors.New("response body already consumed")
	ErrIntegrity              = errors.New("integrity check failed")
	ErrRedirect               = errors.New("redirect not allowed")
)

// TransportError reports that the request could not be sent or no response was received.
type TransportError struct {
	Method string
	URL    string
	Cause  error
}

func (e *TransportError) Error() string {
	return describe(e.Method, e.URL) + "transport failure: " + e.Cause.Error()
}

func (e *TransportError) Unwrap() error { return e.Cause }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// StatusError is returned for non-2xx responses whose body could be decoded.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	// Message is read from the configured message key, or is the body itself.
	Message string
	Body    []byte
}

func (e *StatusError) Error() string {
	var b strings.Builder
	b.WriteString(describe(e.Method, e.URL))
	b.WriteString(fmt.Sprintf("http %d", e.StatusCode))
	if t := http.StatusText(e.StatusCode); t != "" {
		b.WriteString(" ")
		b.WriteString(t)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// DecodeError is returned when a response body cannot be decoded for its
// declared content type. StatusCode is kept even though the message is generic.
type DecodeError struct {
	Method      string
	URL         string
	StatusCode  int
	ContentType string
	Cause       error
}

func (e *DecodeError) Error() string {
	msg := describe(e.Method, e.URL) + "connection failure"
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (http %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Cause }

func (e *DecodeError) Is(target error) bool { return target == ErrConnectionFailure }

func describe(method, url string) string {
	var b strings.Builder
	if method != "" {
		b.WriteString(method)
		b.WriteString(" ")
	}
	if url != "" {
		b.WriteString(url)
		b.WriteString(": ")
	}
	return b.String()
}

// AsStatusError extracts a *StatusError.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func IsHTTPStatus(err error, code int) bool {
	se, ok := AsStatusError(err)
	return ok && se.StatusCode == code
}

// StatusCode returns the HTTP status carried by err, or 0 when no response was received.
func StatusCode(err error) int {
	if se, ok := AsStatusError(err); ok {
		return se.StatusCode
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return de.StatusCode
	}
	return 0
}

// annotate fills request details into the classified errors produced by Pretreat.
func annotate(err error, req *Request) error {
	var se *StatusError
	if errors.As(err, &se) {
		se.Method, se.URL = req.Method, req.URL
		return err
	}
	var de *DecodeError
	if errors.As(err, &de) {
		de.Method, de.URL = req.Method, req.URL
	}
	return err
}

// Failure classes returned by Kind.
const (
	KindTransport = "transport"
	KindStatus    = "status"
	KindDecode    = "decode"
	KindOther     = "other"
)

// Kind returns the failure class of a client error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrConnectionFailure):
		return KindDecode
	}
	if _, ok := AsStatusError(err); ok {
		return KindStatus
	}
	return KindOther
}
