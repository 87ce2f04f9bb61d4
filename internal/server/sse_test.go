package server

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/specpreview/internal/events"
)

func readFrame(t *testing.T, sc *bufio.Scanner) (name, data string) {
	t.Helper()
	for sc.Scan() {
		line := sc.Text()
		switch {
		case len(line) > 7 && line[:7] == "event: ":
			name = line[7:]
		case len(line) > 6 && line[:6] == "data: ":
			data = line[6:]
		case line == "" && name != "":
			return name, data
		}
	}
	t.Fatal("stream ended before a frame was read")
	return "", ""
}

func TestHub_ReplaysLastStatus(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	hub.Broadcast(events.StatusChanged{Status: "error-yaml", BuildID: "b-7"})
	hub.Broadcast(events.CursorMoved{Line: 3})

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	sc := bufio.NewScanner(resp.Body)

	name, data := readFrame(t, sc)
	assert.Equal(t, "status", name)
	assert.JSONEq(t, `{"status":"error-yaml","buildId":"b-7","dirty":false,"at":"0001-01-01T00:00:00Z"}`, data)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	hub.Broadcast(events.BuildSkipped{Gate: "health"})
	name, _ = readFrame(t, sc)
	assert.Equal(t, "skipped", name)
}

func TestHub_ClosedRejectsClients(t *testing.T) {
	hub := NewHub()
	hub.Close()

	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, hub.Clients())
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Close()
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
	}
	assert.Zero(t, hub.Clients())
}
