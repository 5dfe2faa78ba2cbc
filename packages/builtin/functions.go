package builtin

import (
	"encoding/base64"
	"encoding/csv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Func computes a placeholder value from its literal arguments.
type Func func(args ...string) string

// Registry maps function names to implementations. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{
		funcs: map[string]Func{
			"uuid":        func(...string) string { return uuid.NewString() },
			"now":         func(...string) string { return time.Now().UTC().Format(time.RFC3339) },
			"timestamp":   func(...string) string { return strconv.FormatInt(time.Now().Unix(), 10) },
			"timestampMs": func(...string) string { return strconv.FormatInt(time.Now().UnixMilli(), 10) },
			"base64":      encodeBase64,
			"basicAuth":   basicAuth,
		},
	}
}

func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Call evaluates an expression such as `basicAuth("user", "pass")`. It reports
// false when expr is not a well-formed call to a registered function.
func (r *Registry) Call(expr string) (string, bool) {
	name, rest, ok := strings.Cut(strings.TrimSpace(expr), "(")
	if !ok || !strings.HasSuffix(rest, ")") {
		return "", false
	}

	r.mu.RLock()
	fn, ok := r.funcs[strings.TrimSpace(name)]
	r.mu.RUnlock()
	if !ok {
		return "", false
	}

	args, err := splitArgs(strings.TrimSuffix(rest, ")"))
	if err != nil {
		return "", false
	}
	return fn(args...), true
}

// splitArgs reads a comma separated argument list. Double quotes protect commas.
func splitArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	cr := csv.NewReader(strings.NewReader(s))
	cr.TrimLeadingSpace = true
	args, err := cr.Read()
	if err != nil {
		return nil, err
	}
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	return args, nil
}

func encodeBase64(args ...string) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(args, "")))
}

// basicAuth renders an Authorization header value for user and password.
func basicAuth(args ...string) string {
	var user, pass string
	if len(args) > 0 {
		user = args[0]
	}
	if len(args) > 1 {
		pass = args[1]
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}
