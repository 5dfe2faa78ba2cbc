package http

import (
	"fmt"
	neturl "net/url"
	"reflect"
	"strings"

	"github.com/google/go-querystring/query"
)

// ResolveURL joins origin, domain and path with "/". A path that already starts
// with "http" is returned unchanged. Empty segments are skipped; slashes at the
// segment boundaries are kept exactly as given.
func ResolveURL(origin, domain, path string) string {
	if strings.HasPrefix(path, "http") {
		return path
	}

	segments := make([]string, 0, 3)
	for _, s := range []string{origin, domain, path} {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return strings.Join(segments, "/")
}

// WithQuery sets one query value per parameter on rawURL, replacing values
// already present for the same key. Nil values are omitted.
//
// params may be a Params or map[string]any, a map[string]string, url.Values,
// or a struct (or pointer to one) with `url:"..."` field tags.
func WithQuery(rawURL string, params any) (string, error) {
	values, err := QueryValues(params)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return rawURL, nil
	}

	u, err := neturl.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	q := u.Query()
	for k, vs := range values {
		if len(vs) == 0 {
			continue
		}
		q.Set(k, vs[len(vs)-1])
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// QueryValues converts supported parameter shapes into url.Values.
func QueryValues(params any) (neturl.Values, error) {
	values := make(neturl.Values)

	switch p := params.(type) {
	case nil:
		return values, nil
	case neturl.Values:
		for k, vs := range p {
			values[k] = append([]string(nil), vs...)
		}
	case map[string]string:
		for k, v := range p {
			values.Set(k, v)
		}
	case Params:
		return paramValues(p), nil
	case map[string]any:
		return paramValues(p), nil
	default:
		rv := reflect.ValueOf(params)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return values, nil
			}
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return nil, fmt.Errorf("unsupported query parameter type %T", params)
		}
		v, err := query.Values(params)
		if err != nil {
			return nil, fmt.Errorf("encoding query parameters: %w", err)
		}
		return v, nil
	}
	return values, nil
}

func paramValues(p map[string]any) neturl.Values {
	values := make(neturl.Values, len(p))
	for k, v := range p {
		if s, ok := stringify(v); ok {
			values.Set(k, s)
		}
	}
	return values
}
