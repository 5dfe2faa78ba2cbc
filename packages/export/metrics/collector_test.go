package metrics

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/connect/packages/core/config"
	connecthttp "github.com/abdul-hamid-achik/connect/packages/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Observe(t *testing.T) {
	c := NewCollector("test")

	c.Observe("GET", 200, 10*time.Millisecond, nil)
	c.Observe("GET", 200, 20*time.Millisecond, nil)
	c.Observe("POST", 404, 5*time.Millisecond, &connecthttp.StatusError{StatusCode: 404})
	c.Observe("GET", 0, time.Millisecond, &connecthttp.TransportError{Cause: errors.New("refused")})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("POST", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("GET", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errorsTotal.WithLabelValues("POST", connecthttp.KindStatus)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errorsTotal.WithLabelValues("GET", connecthttp.KindTransport)))
	assert.Equal(t, 3, testutil.CollectAndCount(c.requestDuration))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Observe("GET", 200, time.Millisecond, nil)
	})
}

func TestCollector_WithClient(t *testing.T) {
	config.SetDefaults(config.Layer{})
	t.Cleanup(func() { config.SetDefaults(config.Layer{}) })
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("not json"))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := NewCollector("")
	client := connecthttp.New("", connecthttp.WithLayer(config.Layer{Origin: server.URL}), connecthttp.WithObserver(c))

	_, err := client.Get(context.Background(), "fine", nil)
	require.NoError(t, err)
	_, err = client.Get(context.Background(), "broken", nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errorsTotal.WithLabelValues("GET", connecthttp.KindDecode)))
}

func TestCollector_WriteText(t *testing.T) {
	c := NewCollector("")
	c.Observe("PUT", 204, time.Millisecond, nil)

	var buf bytes.Buffer
	require.NoError(t, c.WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, `connect_requests_total{method="PUT",status_code="204"} 1`)
	assert.Contains(t, out, "connect_request_duration_seconds_bucket")
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("svc")
	c.Observe("GET", 200, time.Millisecond, nil)

	server := httptest.NewServer(c.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), `svc_requests_total{method="GET",status_code="200"} 1`))
}

func TestNewCollectorWithRegistry_SharedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollectorWithRegistry("shared", registry)
	c.Observe("GET", 200, time.Millisecond, nil)

	count, err := testutil.GatherAndCount(registry, "shared_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Panics(t, func() {
		NewCollectorWithRegistry("shared", registry)
	})
}
