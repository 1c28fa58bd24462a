// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlaytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Replier answers a request decoded from JSON. Returning nil sends nothing.
// The request's rseq is copied into the reply.
type Replier func(req map[string]any) map[string]any

// MockServer is an OverlayPlugin-compatible WebSocket server on loopback.
type MockServer struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader
	wg       sync.WaitGroup

	mu       sync.Mutex
	conns    map[*serverConn]struct{}
	accepted int
	received [][]byte
	replier  Replier
}

type serverConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *serverConn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	//nolint:wrapcheck // test double
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// TB is the part of testing.TB the server needs. GinkgoT() satisfies it.
type TB interface {
	Helper()
	Cleanup(func())
}

// NewMockServer starts a server and closes it when t finishes.
func NewMockServer(t TB) *MockServer {
	t.Helper()
	s := &MockServer{
		conns: make(map[*serverConn]struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handle)
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// URL returns the ws:// endpoint including the /ws path.
func (s *MockServer) URL() string {
	return "ws://" + strings.TrimPrefix(s.srv.URL, "http://") + "/ws"
}

// Addr returns the ws:// endpoint without a path.
func (s *MockServer) Addr() string {
	return "ws://" + strings.TrimPrefix(s.srv.URL, "http://")
}

// ReplyWith sets how the server answers requests that carry an rseq.
func (s *MockServer) ReplyWith(r Replier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replier = r
}

func (s *MockServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sc := &serverConn{conn: conn}

	s.mu.Lock()
	s.conns[sc] = struct{}{}
	s.accepted++
	s.wg.Add(1)
	s.mu.Unlock()

	go s.serve(sc)
}

func (s *MockServer) serve(sc *serverConn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, sc)
		s.mu.Unlock()
		//nolint:errcheck // test double
		sc.conn.Close()
	}()

	for {
		_, data, err := sc.conn.ReadMessage()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.received = append(s.received, data)
		replier := s.replier
		s.mu.Unlock()

		if replier == nil {
			continue
		}
		var req map[string]any
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}
		rseq, ok := req["rseq"]
		if !ok {
			continue
		}
		reply := replier(req)
		if reply == nil {
			continue
		}
		reply["rseq"] = rseq
		out, err := json.Marshal(reply)
		if err != nil {
			continue
		}
		//nolint:errcheck // client may have gone away
		sc.write(out)
	}
}

// Push sends data to every connected client and returns how many got it.
func (s *MockServer) Push(data []byte) int {
	n := 0
	for _, sc := range s.connections() {
		if sc.write(data) == nil {
			n++
		}
	}
	return n
}

// PushJSON marshals v and pushes it.
func (s *MockServer) PushJSON(v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return s.Push(data)
}

// Received returns the raw requests received so far, in arrival order.
func (s *MockServer) Received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.received))
	copy(out, s.received)
	return out
}

// ReceivedStrings is Received as strings.
func (s *MockServer) ReceivedStrings() []string {
	msgs := s.Received()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = string(m)
	}
	return out
}

// Connected returns the number of open client connections.
func (s *MockServer) Connected() int {
	return len(s.connections())
}

// Accepted returns the number of connections accepted since start.
func (s *MockServer) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// DropConnections closes every open connection from the server side.
func (s *MockServer) DropConnections() {
	for _, sc := range s.connections() {
		//nolint:errcheck // test double
		sc.conn.Close()
	}
}

// Close drops all connections and stops the server.
func (s *MockServer) Close() {
	s.DropConnections()
	s.srv.Close()
	s.wg.Wait()
}

func (s *MockServer) connections() []*serverConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*serverConn, 0, len(s.conns))
	for sc := range s.conns {
		out = append(out, sc)
	}
	return out
}
