package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/abdul-hamid-achik/connect/packages/core/config"
)

// Verb is one of the seven supported HTTP methods.
type Verb string

const (
	MethodGet     Verb = http.MethodGet
	MethodPost    Verb = http.MethodPost
	MethodPut     Verb = http.MethodPut
	MethodPatch   Verb = http.MethodPatch
	MethodDelete  Verb = http.MethodDelete
	MethodHead    Verb = http.MethodHead
	MethodOptions Verb = http.MethodOptions
)

// HasBody reports whether the verb carries an encoded body rather than a query string.
func (v Verb) HasBody() bool {
	return v == MethodPost || v == MethodPut || v == MethodPatch
}

// TransportOptions are the fetch-style settings that travel with a request.
type TransportOptions struct {
	Credentials    config.Credentials
	Cache          config.CacheMode
	Redirect       config.RedirectMode
	Referrer       string
	ReferrerPolicy config.ReferrerPolicy
	Mode           config.RequestMode
	Integrity      string
}

// Request is the descriptor handed to a Transport. It is built fresh for every call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte // nil for query-bearing verbs
	Options TransportOptions
}

func (r *Request) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Request) SetHeader(key, value string) *Request {
	for k := range r.Headers {
		if strings.EqualFold(k, key) {
			delete(r.Headers, k)
		}
	}
	r.Headers[http.CanonicalHeaderKey(key)] = value
	return r
}

// BuildRequest composes the descriptor for one call. Body-bearing verbs get the
// params encoded by the merged Content-Type header; the others get them in the
// query string.
func BuildRequest(verb Verb, domain, path string, params any, effective config.Layer) (*Request, error) {
	req := &Request{
		Method:  string(verb),
		URL:     ResolveURL(effective.Origin, domain, path),
		Headers: config.MergeHeaders(effective.Headers, nil),
		Options: optionsFrom(effective),
	}
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}

	if !verb.HasBody() {
		u, err := WithQuery(req.URL, params)
		if err != nil {
			return nil, err
		}
		req.URL = u
		return req, nil
	}

	bodyParams, err := toParams(params)
	if err != nil {
		return nil, err
	}
	body, err := EncodeBody(bodyParams, req.Header("Content-Type"))
	if err != nil {
		return nil, err
	}
	req.Body = body.Bytes
	req.SetHeader("Content-Type", body.ContentType)
	return req, nil
}

func optionsFrom(l config.Layer) TransportOptions {
	return TransportOptions{
		Credentials:    l.Credentials,
		Cache:          l.Cache,
		Redirect:       l.Redirect,
		Referrer:       l.Referrer,
		ReferrerPolicy: l.ReferrerPolicy,
		Mode:           l.Mode,
		Integrity:      l.Integrity,
	}
}

func toParams(params any) (Params, error) {
	switch p := params.(type) {
	case nil:
		return Params{}, nil
	case Params:
		if p == nil {
			return Params{}, nil
		}
		return p, nil
	case map[string]any:
		if p == nil {
			return Params{}, nil
		}
		return Params(p), nil
	case map[string]string:
		out := make(Params, len(p))
		for k, v := range p {
			out[k] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported body parameter type %T", params)
	}
}
