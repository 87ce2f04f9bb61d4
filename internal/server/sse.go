package server

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/specpreview/internal/events"
)

const heartbeatInterval = 30 * time.Second

type frame struct {
	name string
	data []byte
}

// Hub fans pipeline events out to server-sent event clients. New clients
// receive the most recent status first.
type Hub struct {
	mu         sync.RWMutex
	nextID     int
	clients    map[int]*sseClient
	closed     bool
	lastStatus *frame
	heartbeat  time.Duration
}

type sseClient struct {
	id   int
	ch   chan frame
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{clients: map[int]*sseClient{}, heartbeat: heartbeatInterval}
}

// ServeHTTP implements the event stream endpoint.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "event stream shutting down", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &sseClient{ch: make(chan frame, 16), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	last := h.lastStatus
	h.mu.Unlock()
	defer h.removeClient(client.id)

	bw := bufio.NewWriter(w)
	send := func(f frame) bool {
		if _, err := bw.WriteString("event: " + f.name + "\ndata: "); err != nil {
			slog.Debug("event stream write", slog.Any("error", err))
			return false
		}
		_, _ = bw.Write(f.data)
		_, _ = bw.WriteString("\n\n")
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		return
	}
	if last != nil {
		if !send(*last) {
			return
		}
	} else if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	hb := time.NewTicker(h.heartbeat)
	defer hb.Stop()
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err == nil && bw.Flush() == nil {
				flusher.Flush()
			}
		case f := <-client.ch:
			if !send(f) {
				return
			}
		}
	}
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends evt to every client. Clients that cannot keep up are dropped.
func (h *Hub) Broadcast(evt events.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		slog.Warn("Failed to encode event", slog.String("event", evt.EventName()), slog.Any("error", err))
		return
	}
	f := frame{name: evt.EventName(), data: data}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	if _, ok := evt.(events.StatusChanged); ok {
		h.lastStatus = &f
	}
	snapshot := make([]*sseClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- f:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	if dropped > 0 {
		slog.Debug("Dropped slow event stream clients", slog.Int("dropped", dropped))
	}
}

// Forward broadcasts bus events until ctx is canceled or the bus closes.
// Cursor moves are forwarded too so an attached editor view can follow focus.
func (h *Hub) Forward(ctx context.Context, bus *events.Bus) {
	ch, unsubscribe := events.Subscribe[events.Event](bus, 64)
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			h.Broadcast(evt)
		}
	}
}

// Close disconnects all clients and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*sseClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}
