package http

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/connect/packages/core/config"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// Transport sends a request descriptor and returns the raw response.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// NetTransport is the net/http Transport. It maps TransportOptions onto plain
// HTTP: redirect policy, cache headers, referrer, credential stripping and
// subresource-integrity verification. Mode has no HTTP equivalent and is ignored.
type NetTransport struct {
	httpClient   *http.Client
	timeout      time.Duration
	maxRedirects int
	validateSSL  bool
	proxyURL     string
}

type TransportOption func(*NetTransport)

func NewNetTransport(opts ...TransportOption) *NetTransport {
	t := &NetTransport{
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
		validateSSL:  true,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.httpClient != nil {
		return t
	}

	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	if !t.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if t.proxyURL != "" {
		proxyURL, err := neturl.Parse(t.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	t.httpClient = &http.Client{
		Transport:     transport,
		Timeout:       t.timeout,
		CheckRedirect: t.checkRedirect,
	}
	return t
}

func WithTimeout(d time.Duration) TransportOption {
	return func(t *NetTransport) {
		t.timeout = d
	}
}

func WithMaxRedirects(max int) TransportOption {
	return func(t *NetTransport) {
		t.maxRedirects = max
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) TransportOption {
	return func(t *NetTransport) {
		t.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) TransportOption {
	return func(t *NetTransport) {
		t.proxyURL = proxyURL
	}
}

// WithHTTPClient uses client as is; the other options are then ignored.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *NetTransport) {
		t.httpClient = client
	}
}

type redirectModeKey struct{}

func (t *NetTransport) checkRedirect(req *http.Request, via []*http.Request) error {
	mode, _ := req.Context().Value(redirectModeKey{}).(config.RedirectMode)
	switch mode {
	case config.RedirectError:
		return fmt.Errorf("%w: %s", ErrRedirect, req.URL)
	case config.RedirectManual:
		return http.ErrUseLastResponse
	}
	if len(via) >= t.maxRedirects {
		return http.ErrUseLastResponse
	}
	return nil
}

func (t *NetTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	if err := ValidateURL(req.URL); err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	ctx = context.WithValue(ctx, redirectModeKey{}, req.Options.Redirect)
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	applyOptions(httpReq, req.Options)

	start := time.Now()
	httpResp, err := t.httpClient.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	if req.Options.Integrity != "" {
		if err := CheckIntegrity(req.Options.Integrity, respBody); err != nil {
			return nil, err
		}
	}

	headers := make(map[string]string, len(httpResp.Header))
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}

	resp := NewResponse(httpResp.StatusCode, headers, bytes.NewReader(respBody))
	resp.Status = httpResp.Status
	resp.Duration = duration
	return resp, nil
}

func applyOptions(r *http.Request, opts TransportOptions) {
	if opts.Credentials == config.CredentialsOmit {
		r.Header.Del("Authorization")
		r.Header.Del("Cookie")
	}

	if r.Header.Get("Cache-Control") == "" {
		switch opts.Cache {
		case config.CacheNoStore:
			r.Header.Set("Cache-Control", "no-store")
		case config.CacheReload:
			r.Header.Set("Cache-Control", "no-cache")
			r.Header.Set("Pragma", "no-cache")
		case config.CacheNoCache:
			r.Header.Set("Cache-Control", "max-age=0")
		case config.CacheOnlyIfCached:
			r.Header.Set("Cache-Control", "only-if-cached")
		}
	}

	if ref := referrerFor(opts.Referrer, opts.ReferrerPolicy, r.URL); ref != "" {
		r.Header.Set("Referer", ref)
	}
}

// referrerFor applies the referrer policy to referrer for a request to target.
// An unset policy behaves like no-referrer-when-downgrade.
func referrerFor(referrer string, policy config.ReferrerPolicy, target *neturl.URL) string {
	if referrer == "" || policy == config.ReferrerPolicyNoReferrer {
		return ""
	}
	ref, err := neturl.Parse(referrer)
	if err != nil || (ref.Scheme != "http" && ref.Scheme != "https") || ref.Host == "" {
		return ""
	}
	ref.User = nil
	ref.Fragment = ""
	origin := ref.Scheme + "://" + ref.Host + "/"

	switch policy {
	case config.ReferrerPolicyOrigin:
		return origin
	case config.ReferrerPolicyOriginWhenCrossOrigin:
		if ref.Scheme == target.Scheme && ref.Host == target.Host {
			return ref.String()
		}
		return origin
	case config.ReferrerPolicyUnsafeURL:
		return ref.String()
	default:
		if ref.Scheme == "https" && target.Scheme == "http" {
			return ""
		}
		return ref.String()
	}
}

// CheckIntegrity verifies body against subresource-integrity metadata such as
// "sha384-<base64>". Any matching supported hash passes; metadata without a
// supported algorithm is not enforced.
func CheckIntegrity(metadata string, body []byte) error {
	supported := false
	for _, token := range strings.Fields(metadata) {
		alg, digest, ok := strings.Cut(token, "-")
		if !ok {
			continue
		}
		digest, _, _ = strings.Cut(digest, "?")

		var sum []byte
		switch alg {
		case "sha256":
			s := sha256.Sum256(body)
			sum = s[:]
		case "sha384":
			s := sha512.Sum384(body)
			sum = s[:]
		case "sha512":
			s := sha512.Sum512(body)
			sum = s[:]
		default:
			continue
		}

		supported = true
		if base64.StdEncoding.EncodeToString(sum) == digest {
			return nil
		}
	}
	if !supported {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrIntegrity, metadata)
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
