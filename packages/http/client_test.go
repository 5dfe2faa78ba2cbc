package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/connect/packages/core/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method string
	status int
	err    error
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (o *recordingObserver) Observe(method string, status int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observation{method: method, status: status, err: err})
}

// captureTransport records the last request and answers with a fixed JSON body.
func captureTransport(status int, body string, last **Request) Transport {
	return TransportFunc(func(_ context.Context, req *Request) (*Response, error) {
		*last = req
		return jsonResponse(status, body), nil
	})
}

func resetDefaults(t *testing.T) {
	t.Helper()
	config.SetDefaults(config.Layer{})
	t.Cleanup(func() { config.SetDefaults(config.Layer{}) })
}

func TestClient_Get(t *testing.T) {
	resetDefaults(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"name":"Ann"}`))
	}))
	defer server.Close()

	client := New("", WithLayer(config.Layer{Origin: server.URL}))
	result, err := client.Get(context.Background(), "users", Params{"id": 5})

	require.NoError(t, err)
	assert.Equal(t, 200, result.StatusCode)
	assert.Equal(t, map[string]any{"name": "Ann"}, result.Value)
	assert.Equal(t, "GET", result.Method)
	assert.Equal(t, server.URL+"/users?id=5", result.URL)
}

func TestClient_PostJSON(t *testing.T) {
	resetDefaults(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v2/users", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"name":"Bob"}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":123}`))
	}))
	defer server.Close()

	client := New("v2", WithLayer(config.Layer{
		Origin:  server.URL,
		Headers: map[string]string{"Content-Type": "application/json"},
	}))
	result, err := client.Post(context.Background(), "users", Params{"name": "Bob"})

	require.NoError(t, err)
	assert.Equal(t, 201, result.StatusCode)
	assert.Equal(t, map[string]any{"id": float64(123)}, result.Value)
}

func TestClient_AllVerbs(t *testing.T) {
	resetDefaults(t)
	var last *Request
	client := New("", WithLayer(config.Layer{Origin: "https://api.example.com"}),
		WithTransport(captureTransport(200, `{}`, &last)))
	ctx := context.Background()

	calls := map[Verb]func() (*Result, error){
		MethodGet:     func() (*Result, error) { return client.Get(ctx, "r", nil) },
		MethodPost:    func() (*Result, error) { return client.Post(ctx, "r", nil) },
		MethodPut:     func() (*Result, error) { return client.Put(ctx, "r", nil) },
		MethodPatch:   func() (*Result, error) { return client.Patch(ctx, "r", nil) },
		MethodDelete:  func() (*Result, error) { return client.Delete(ctx, "r", nil) },
		MethodHead:    func() (*Result, error) { return client.Head(ctx, "r", nil) },
		MethodOptions: func() (*Result, error) { return client.Options(ctx, "r", nil) },
	}

	for verb, call := range calls {
		_, err := call()
		require.NoError(t, err, verb)
		assert.Equal(t, string(verb), last.Method)
		assert.Equal(t, "https://api.example.com/r", last.URL)
	}
}

func TestClient_NotFoundMessage(t *testing.T) {
	resetDefaults(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}))
	defer server.Close()

	client := New("", WithLayer(config.Layer{Origin: server.URL}))
	result, err := client.Get(context.Background(), "missing", nil)

	assert.Nil(t, result)
	se, ok := AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, 404, se.StatusCode)
	assert.Equal(t, "not found", se.Message)
	assert.Equal(t, "GET", se.Method)
	assert.Equal(t, server.URL+"/missing", se.URL)
}

func TestClient_CustomMessageKey(t *testing.T) {
	resetDefaults(t)
	var last *Request
	client := New("", WithLayer(config.Layer{Origin: "https://api.example.com", MessageKey: "error"}),
		WithTransport(captureTransport(400, `{"error":"bad input","message":"ignored"}`, &last)))

	_, err := client.Get(context.Background(), "x", nil)
	se, ok := AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, "bad input", se.Message)
}

func TestClient_UndecodableServerError(t *testing.T) {
	resetDefaults(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>Internal Server Error</html>"))
	}))
	defer server.Close()

	client := New("", WithLayer(config.Layer{Origin: server.URL}))
	_, err := client.Get(context.Background(), "boom", nil)

	assert.ErrorIs(t, err, ErrConnectionFailure)
	assert.Equal(t, 500, StatusCode(err))
}

func TestClient_TransportError(t *testing.T) {
	resetDefaults(t)
	cause := errors.New("dial tcp: connection refused")
	client := New("", WithLayer(config.Layer{Origin: "https://api.example.com"}),
		WithTransport(TransportFunc(func(context.Context, *Request) (*Response, error) {
			return nil, cause
		})))

	_, err := client.Get(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 0, StatusCode(err))
}

func TestClient_TransportWithoutResponse(t *testing.T) {
	resetDefaults(t)
	client := New("", WithLayer(config.Layer{Origin: "https://api.example.com"}),
		WithTransport(TransportFunc(func(context.Context, *Request) (*Response, error) {
			return nil, nil
		})))

	var err error
	assert.NotPanics(t, func() {
		_, err = client.Get(context.Background(), "x", nil)
	})
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, KindTransport, Kind(err))
}

func TestClient_BareResponse(t *testing.T) {
	resetDefaults(t)
	client := New("", WithLayer(config.Layer{Origin: "https://api.example.com"}),
		WithTransport(TransportFunc(func(context.Context, *Request) (*Response, error) {
			return &Response{StatusCode: http.StatusNoContent}, nil
		})))

	var (
		result *Result
		err    error
	)
	assert.NotPanics(t, func() {
		result, err = client.Delete(context.Background(), "users/1", nil)
	})
	require.NoError(t, err)
	assert.Nil(t, result.Value)
	assert.Equal(t, "https://api.example.com/users/1", result.URL)
}

func TestClient_CustomPretreat(t *testing.T) {
	resetDefaults(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/envelope/bad" {
			_, _ = w.Write([]byte(`{"code":42,"msg":"quota exceeded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":0,"data":{"name":"Ann"}}`))
	}))
	defer server.Close()

	// Unwraps {"code","data","msg"} envelopes; a non-zero code is a failure.
	unwrap := func(resp *Response, messageKey string) (*Result, error) {
		result, err := Pretreat(resp, messageKey)
		if err != nil {
			return nil, err
		}
		env, _ := result.Value.(map[string]any)
		if code, _ := env["code"].(float64); code != 0 {
			msg, _ := env["msg"].(string)
			return nil, &StatusError{StatusCode: result.StatusCode, Message: msg, Body: result.Raw}
		}
		result.Value = env["data"]
		return result, nil
	}

	var calls int
	client := New("envelope", WithLayer(config.Layer{Origin: server.URL}),
		WithPretreat(func(resp *Response, messageKey string) (*Result, error) {
			calls++
			return unwrap(resp, messageKey)
		}))

	result, err := client.Post(context.Background(), "ok", Params{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ann"}, result.Value)
	assert.Equal(t, "POST", result.Method)

	_, err = client.Get(context.Background(), "bad", nil)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "quota exceeded", statusErr.Message)
	assert.Equal(t, "GET", statusErr.Method)
	assert.Equal(t, 2, calls)
}

func TestClient_NilPretreatKeepsDefault(t *testing.T) {
	resetDefaults(t)
	var last *Request
	client := New("", WithLayer(config.Layer{Origin: "https://api.example.com"}),
		WithPretreat(nil), WithTransport(captureTransport(200, `{"ok":true}`, &last)))

	result, err := client.Get(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, result.Value)
}

func TestClient_LayerPrecedence(t *testing.T) {
	resetDefaults(t)
	config.SetDefaults(config.Layer{
		Origin:   "https://global.example.com",
		Headers:  map[string]string{"A": "1", "B": "2"},
		Redirect: config.RedirectManual,
	})

	var last *Request
	client := New("", WithLayer(config.Layer{
		Origin:  "https://instance.example.com",
		Headers: map[string]string{"A": "3"},
	}), WithTransport(captureTransport(200, `{}`, &last)))

	_, err := client.Get(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://instance.example.com/x", last.URL)
	assert.Equal(t, map[string]string{"A": "3", "B": "2"}, last.Headers)
	assert.Equal(t, config.RedirectManual, last.Options.Redirect)

	_, err = client.Get(context.Background(), "x", nil, config.Layer{
		Origin:  "https://call.example.com",
		Headers: map[string]string{"b": "4"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://call.example.com/x", last.URL)
	assert.Equal(t, map[string]string{"A": "3", "B": "4"}, last.Headers)
}

func TestClient_GlobalChangesSeenByLaterCalls(t *testing.T) {
	resetDefaults(t)
	var last *Request
	client := New("", WithTransport(captureTransport(200, `{}`, &last)))

	config.SetDefaults(config.Layer{Origin: "https://one.example.com"})
	_, err := client.Get(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://one.example.com/x", last.URL)

	config.SetDefaults(config.Layer{Origin: "https://two.example.com"})
	_, err = client.Get(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://two.example.com/x", last.URL)
}

func TestClient_BaseLayerIsolation(t *testing.T) {
	resetDefaults(t)
	config.SetDefaults(config.Layer{Origin: "https://global.example.com"})

	var last *Request
	client := New("", WithBaseLayer(config.Layer{Origin: "https://isolated.example.com"}),
		WithTransport(captureTransport(200, `{}`, &last)))

	config.SetDefaults(config.Layer{Origin: "https://changed.example.com"})
	_, err := client.Get(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://isolated.example.com/x", last.URL)
}

func TestClient_InstanceLayerIsCopied(t *testing.T) {
	resetDefaults(t)
	layer := config.Layer{Origin: "https://api.example.com", Headers: map[string]string{"X-A": "1"}}
	var last *Request
	client := New("", WithLayer(layer), WithTransport(captureTransport(200, `{}`, &last)))

	layer.Headers["X-A"] = "mutated"
	_, err := client.Get(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "1", last.Header("X-A"))
	assert.Equal(t, "1", client.Layer().Header("x-a"))
}

func TestClient_InvalidConfig(t *testing.T) {
	resetDefaults(t)
	called := false
	client := New("", WithLayer(config.Layer{Origin: "https://api.example.com", Cache: "sometimes"}),
		WithTransport(TransportFunc(func(context.Context, *Request) (*Response, error) {
			called = true
			return nil, nil
		})))

	_, err := client.Get(context.Background(), "x", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.False(t, called)
}

func TestClient_RequestID(t *testing.T) {
	resetDefaults(t)
	var last *Request
	client := New("", WithLayer(config.Layer{Origin: "https://api.example.com"}),
		WithRequestID("X-Request-ID"), WithTransport(captureTransport(200, `{}`, &last)))

	_, err := client.Get(context.Background(), "x", nil)
	require.NoError(t, err)
	_, err = uuid.Parse(last.Header("X-Request-ID"))
	assert.NoError(t, err)

	_, err = client.Get(context.Background(), "x", nil, config.Layer{
		Headers: map[string]string{"X-Request-ID": "fixed"},
	})
	require.NoError(t, err)
	assert.Equal(t, "fixed", last.Header("X-Request-ID"))
}

func TestClient_Observer(t *testing.T) {
	resetDefaults(t)
	obs := &recordingObserver{}
	var last *Request
	client := New("", WithLayer(config.Layer{Origin: "https://api.example.com"}),
		WithObserver(obs), WithTransport(captureTransport(404, `{"message":"gone"}`, &last)))

	_, err := client.Delete(context.Background(), "x", nil)
	require.Error(t, err)

	require.Len(t, obs.seen, 1)
	assert.Equal(t, "DELETE", obs.seen[0].method)
	assert.Equal(t, 404, obs.seen[0].status)
	assert.Equal(t, err, obs.seen[0].err)
}

func TestClient_ConcurrentCalls(t *testing.T) {
	resetDefaults(t)
	client := New("", WithLayer(config.Layer{Origin: "https://api.example.com"}),
		WithTransport(TransportFunc(func(_ context.Context, req *Request) (*Response, error) {
			return jsonResponse(200, `{"url":"`+req.URL+`"}`), nil
		})))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := client.Get(context.Background(), "x", Params{"n": 1})
			assert.NoError(t, err)
			assert.Equal(t, "https://api.example.com/x?n=1", result.Value.(map[string]any)["url"])
		}()
	}
	wg.Wait()
}
