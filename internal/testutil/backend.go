package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// BasePath is the path prefix the fake backend serves under, mirroring the real API.
const BasePath = "/api"

// RecordedRequest is one call the fake backend received.
type RecordedRequest struct {
	Method string
	Path   string // without BasePath
	Query  url.Values
	Header http.Header
	Body   []byte
}

// JSON decodes the recorded body into v.
func (r RecordedRequest) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Backend is a fake user API. Unregistered routes answer 404 with an error envelope.
type Backend struct {
	server *httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []RecordedRequest
}

// NewBackend starts a fake backend that is closed on cleanup.
func NewBackend(t TestingTB) *Backend {
	t.Helper()
	b := &Backend{routes: map[string]http.HandlerFunc{}}
	b.server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.server.Close)
	return b
}

// URL is the base URL clients should be configured with.
func (b *Backend) URL() string {
	return b.server.URL + BasePath
}

// Close stops the server; later calls fail as unreachable.
func (b *Backend) Close() {
	b.server.Close()
}

// Handle registers h for method and path (path relative to BasePath, leading slash included).
func (b *Backend) Handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = h
}

// Respond registers a fixed JSON response.
func (b *Backend) Respond(method, path string, status int, body any) {
	b.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, body)
	})
}

// RespondData registers a 200 success envelope carrying data.
func (b *Backend) RespondData(method, path string, data any) {
	b.Respond(method, path, http.StatusOK, Envelope(200, "success", data))
}

// Requests returns every recorded request.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// Count returns the number of recorded requests.
func (b *Backend) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// Last returns the most recent request; ok is false when none arrived.
func (b *Backend) Last() (RecordedRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return RecordedRequest{}, false
	}
	return b.requests[len(b.requests)-1], true
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, BasePath)

	b.mu.Lock()
	b.requests = append(b.requests, RecordedRequest{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	h := b.routes[r.Method+" "+path]
	b.mu.Unlock()

	if h == nil {
		WriteJSON(w, http.StatusNotFound, Envelope(404, "no route "+r.Method+" "+path, nil))
		return
	}
	h(w, r)
}

// Envelope builds a backend response wrapper.
func Envelope(code int, message string, data any) map[string]any {
	return map[string]any{"code": code, "message": message, "data": data}
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
