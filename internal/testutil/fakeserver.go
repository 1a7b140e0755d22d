package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"assetflow/internal/contract"
)

// RecordedRequest is one request received by a FakeServer.
type RecordedRequest struct {
	Method      string
	Path        string
	Query       url.Values
	Header      http.Header
	Body        []byte
	OperationID string
}

// DecodeBody unmarshals the recorded JSON body into v.
func (r RecordedRequest) DecodeBody(t testing.TB, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		t.Fatalf("decode %s %s body: %v", r.Method, r.Path, err)
	}
}

// FakeServer is a chi-routed governance API double. Every request is checked
// against the embedded OpenAPI contract before it reaches a handler; a
// request that does not match fails the test.
type FakeServer struct {
	*httptest.Server

	t         testing.TB
	router    chi.Router
	validator *contract.Validator

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewFakeServer starts a FakeServer and registers its shutdown with t.
func NewFakeServer(t testing.TB) *FakeServer {
	t.Helper()
	v, err := contract.NewValidator(context.Background())
	if err != nil {
		t.Fatalf("load contract: %v", err)
	}
	f := &FakeServer{t: t, router: chi.NewRouter(), validator: v}
	f.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusNotFound, map[string]interface{}{"code": 404, "message": "no fake handler for " + r.Method + " " + r.URL.Path})
	})
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *FakeServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	opID, err := f.validator.ValidateRequest(r)
	if err != nil {
		f.t.Errorf("request violates contract: %v", err)
		WriteJSON(w, http.StatusBadRequest, map[string]interface{}{"code": 400, "message": err.Error()})
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.Query(),
		Header:      r.Header.Clone(),
		Body:        body,
		OperationID: opID,
	})
	f.mu.Unlock()

	r.Body = io.NopCloser(bytes.NewReader(body))
	f.router.ServeHTTP(w, r)
}

// Handle registers h for method and a chi route pattern such as
// "/assets/{id}/approve".
func (f *FakeServer) Handle(method, pattern string, h http.HandlerFunc) {
	f.router.MethodFunc(method, pattern, h)
}

// HandleJSON registers a handler that always answers with status and v.
func (f *FakeServer) HandleJSON(method, pattern string, status int, v interface{}) {
	f.Handle(method, pattern, func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, v)
	})
}

// Requests returns the requests received so far.
func (f *FakeServer) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// RequestsFor returns the recorded requests of one contract operation.
func (f *FakeServer) RequestsFor(operationID string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range f.Requests() {
		if r.OperationID == operationID {
			out = append(out, r)
		}
	}
	return out
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
