package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// maxMessageLen bounds the text snippet used as a failure message.
const maxMessageLen = 512

var errInvalidJSON = errors.New("invalid JSON body")

// Pretreat consumes the response body once and turns it into either a *Result
// (2xx) or a classified error. messageKey is the gjson path of the message in
// JSON error bodies.
//
// Non-2xx responses yield a *StatusError when the body decodes and a
// *DecodeError (matching ErrConnectionFailure) when it does not.
func Pretreat(resp *Response, messageKey string) (*Result, error) {
	if resp == nil {
		return nil, &DecodeError{Cause: errNoResponse}
	}
	ct := resp.ContentType()

	raw, err := resp.Bytes()
	if err != nil {
		return nil, &DecodeError{StatusCode: resp.StatusCode, ContentType: ct, Cause: err}
	}

	if !resp.OK() {
		message, err := failureMessage(raw, ct, messageKey, resp.StatusCode)
		if err != nil {
			return nil, &DecodeError{StatusCode: resp.StatusCode, ContentType: ct, Cause: err}
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: message, Body: raw}
	}

	value, err := decodeValue(raw, ct)
	if err != nil {
		return nil, &DecodeError{StatusCode: resp.StatusCode, ContentType: ct, Cause: err}
	}

	return &Result{
		StatusCode:  resp.StatusCode,
		Headers:     resp.Headers,
		ContentType: ct,
		Duration:    resp.Duration,
		Value:       value,
		Raw:         raw,
	}, nil
}

func decodeValue(raw []byte, contentType string) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	switch {
	case isJSONType(contentType):
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidJSON, err)
		}
		return v, nil
	case isTextType(contentType):
		return decodeText(raw), nil
	default:
		return raw, nil
	}
}

func failureMessage(raw []byte, contentType, messageKey string, status int) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return http.StatusText(status), nil
	}

	switch {
	case isJSONType(contentType):
		if !gjson.ValidBytes(trimmed) {
			return "", errInvalidJSON
		}
		if messageKey != "" {
			if r := gjson.GetBytes(trimmed, messageKey); r.Exists() {
				return r.String(), nil
			}
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return "", fmt.Errorf("%w: %v", errInvalidJSON, err)
		}
		return snippet(compact.String()), nil
	case isTextType(contentType):
		return snippet(decodeText(trimmed)), nil
	default:
		return http.StatusText(status), nil
	}
}

// decodeText turns a textual body into a string. Invalid UTF-8 sequences
// become U+FFFD.
func decodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), "\uFFFD")
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxMessageLen {
		return s
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
