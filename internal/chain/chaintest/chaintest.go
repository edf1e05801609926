// Package chaintest holds helpers shared by the connector tests.
package chaintest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mrz1836/polywallet/internal/chain"
)

// Options returns connector options with a fast retry policy and a limiter
// that never blocks.
func Options() chain.Options {
	return chain.Options{
		HTTPClient:  &http.Client{Timeout: 5 * time.Second},
		RateLimiter: chain.NewRateLimiter(1000, 100),
		Retry:       chain.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}
}

// Server is an httptest server routing by "METHOD /path" that records the
// bodies it received.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	bodies map[string][][]byte
}

// NewServer starts a server closed with t.Cleanup.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		routes: make(map[string]http.HandlerFunc),
		bodies: make(map[string][][]byte),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle registers a handler for "GET /path" style routes.
func (s *Server) Handle(route string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[route] = h
}

// JSON registers a route answering with v encoded as JSON.
func (s *Server) JSON(route string, v any) {
	s.Handle(route, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	})
}

// Bodies returns the request bodies received on route.
func (s *Server) Bodies(route string) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.bodies[route]...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path

	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	s.mu.Lock()
	h, ok := s.routes[route]
	if len(body) > 0 {
		s.bodies[route] = append(s.bodies[route], body)
	}
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}
