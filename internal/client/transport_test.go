package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_StampsRequestID(t *testing.T) {
	var mu sync.Mutex
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ids = append(ids, r.Header.Get(RequestIDHeader))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", WithTransport(NewTransport(nil, 0, 0)))
	for range 2 {
		resp, err := c.Do(context.Background(), http.MethodGet, "/ping", nil, nil)
		require.NoError(t, err)
		require.NoError(t, CheckError(resp))
		_, _ = ReadBody(resp)
	}

	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.NotEqual(t, ids[0], ids[1])
}

func TestTransport_Throttles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := NewTransport(nil, 20, 1)
	require.NotNil(t, tr.Limiter)
	c := NewClient(srv.URL, "", "", WithTransport(tr))

	start := time.Now()
	for range 3 {
		resp, err := c.Do(context.Background(), http.MethodGet, "/", nil, nil)
		require.NoError(t, err)
		_, _ = ReadBody(resp)
	}
	// Burst of one at 20 rps: the second and third requests wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestTransport_CanceledContext(t *testing.T) {
	tr := NewTransport(nil, 0.001, 1)
	c := NewClient("http://127.0.0.1:1", "", "", WithTransport(tr))

	// Drain the single token.
	require.True(t, tr.Limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Do(ctx, http.MethodGet, "/", nil, nil)
	require.Error(t, err)
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestTransport_ThrottleErrorClosesBody(t *testing.T) {
	tr := NewTransport(http.DefaultTransport, 0.001, 1)
	require.True(t, tr.Limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	body := &closeTracker{Reader: strings.NewReader(`{"x":1}`)}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://127.0.0.1:1/", body)
	require.NoError(t, err)

	resp, err := tr.RoundTrip(req)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, body.closed)
}

func TestNewTransport_DisabledLimiter(t *testing.T) {
	assert.Nil(t, NewTransport(nil, 0, 10).Limiter)
}
