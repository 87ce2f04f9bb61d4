package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/specpreview/internal/builder"
	"git.home.luguber.info/inful/specpreview/internal/editor"
	"git.home.luguber.info/inful/specpreview/internal/eventstore"
	"git.home.luguber.info/inful/specpreview/internal/events"
	"git.home.luguber.info/inful/specpreview/internal/health"
	"git.home.luguber.info/inful/specpreview/internal/metrics"
	"git.home.luguber.info/inful/specpreview/internal/preferences"
	"git.home.luguber.info/inful/specpreview/internal/preview"
	"git.home.luguber.info/inful/specpreview/internal/storage"
	"git.home.luguber.info/inful/specpreview/internal/tags"
)

const petstore = `swagger: "2.0"
info:
  title: Petstore
  version: 1.0.0
tags:
  - name: pets
paths:
  /pets:
    get:
      tags: [pets]
      responses:
        "200":
          description: ok
        "404":
          description: missing
  /store:
    get:
      tags: [store]
      responses:
        "200":
          description: ok
definitions:
  Pet:
    type: object
`

type harness struct {
	srv     *httptest.Server
	store   storage.Store
	backend *health.Static
	editor  *editor.Surface
	bus     *events.Bus
}

func newHarness(t *testing.T, withHistory bool) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	store := storage.NewMemoryStore()
	bus := events.NewBus()
	surface := editor.NewSurface(bus)
	registry := tags.NewRegistry()
	backend := health.NewStatic(true)
	prefs, err := preferences.Load(ctx, store, preferences.Defaults())
	require.NoError(t, err)

	ctrl, err := preview.NewController(preview.Deps{
		Store:   store,
		Builder: builder.NewLocal(),
		Health:  backend,
		Editor:  surface,
		Tags:    registry,
		Prefs:   prefs,
	}, preview.WithBus(bus))
	require.NoError(t, err)

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = ctrl.Run(ctx)
	}()
	// Snapshot is served by the loop, so the document subscription is live after it returns.
	_, err = ctrl.Snapshot(ctx)
	require.NoError(t, err)

	deps := Deps{
		Controller:  ctrl,
		Store:       store,
		Editor:      surface,
		Tags:        registry,
		Preferences: prefs,
		Health:      backend,
		Bus:         bus,
		Metrics:     metrics.NewRegistry(),
	}
	if withHistory {
		deps.History = eventstore.NewHistory(nil, 10)
		payload, err := json.Marshal(events.BuildCompleted{BuildID: "b-1", Seq: 1, Status: "success-process"})
		require.NoError(t, err)
		deps.History.Apply(&eventstore.Record{EventBuildID: "b-1", EventType: "build", EventPayload: payload})
	}
	s := New("127.0.0.1:0", deps)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	go s.Hub().Forward(hubCtx, bus)
	srv := httptest.NewServer(s.Handler())

	t.Cleanup(func() {
		srv.Close()
		hubCancel()
		s.Hub().Close()
		cancel()
		<-runDone
		prefs.Close()
		bus.Close()
	})
	return &harness{srv: srv, store: store, backend: backend, editor: surface, bus: bus}
}

func (h *harness) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, h.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := h.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (h *harness) status(t *testing.T) preview.Snapshot {
	t.Helper()
	resp, body := h.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap preview.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	return snap
}

func (h *harness) putDocument(t *testing.T, text string) {
	t.Helper()
	resp, _ := h.do(t, http.MethodPut, "/api/document", text)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func (h *harness) waitStatus(t *testing.T, want preview.StatusCode) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.status(t).Status == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, false)

	resp, body := h.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report health.Response
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, health.StatusHealthy, report.Status)
	require.Len(t, report.Checks, 1)
	assert.Equal(t, "build_backend", report.Checks[0].Name)

	h.backend.Set(false)
	_, body = h.do(t, http.MethodGet, "/health", "")
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, health.StatusDegraded, report.Status)
}

func TestDocumentRoundTripBuilds(t *testing.T) {
	h := newHarness(t, false)

	resp, _ := h.do(t, http.MethodGet, "/api/document", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	h.putDocument(t, petstore)
	h.waitStatus(t, preview.StatusSuccess)

	resp, body := h.do(t, http.MethodGet, "/api/document", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, petstore, string(body))

	snap := h.status(t)
	assert.True(t, snap.HasResult)
	assert.NotEmpty(t, snap.LastBuildID)
}

func TestDocumentYAMLErrorAnnotates(t *testing.T) {
	h := newHarness(t, false)

	h.putDocument(t, "swagger: \"2.0\"\ninfo:\n  title: x\n version: 1\n")
	h.waitStatus(t, preview.StatusYAMLError)

	resp, body := h.do(t, http.MethodGet, "/api/diagnostics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state editor.State
	require.NoError(t, json.Unmarshal(body, &state))
	require.Len(t, state.Annotations, 1)
	assert.Equal(t, "yaml", state.Annotations[0].Source)
	assert.Equal(t, editor.KindError, state.Annotations[0].Kind)
}

func TestPathsAndTags(t *testing.T) {
	h := newHarness(t, false)
	h.putDocument(t, petstore)
	h.waitStatus(t, preview.StatusSuccess)

	resp, body := h.do(t, http.MethodGet, "/api/paths", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var paths pathsResponse
	require.NoError(t, json.Unmarshal(body, &paths))
	assert.True(t, paths.ShowDefinitions)
	require.Len(t, paths.Paths, 2)
	assert.Equal(t, "/pets", paths.Paths[0].Name)
	assert.Equal(t, "#/paths?path=%2Fpets", paths.Paths[0].EditPath)
	require.Len(t, paths.Paths[0].Operations, 1)
	assert.Equal(t, []responseView{{Code: "200", Class: "green"}, {Code: "404", Class: "yellow"}},
		paths.Paths[0].Operations[0].Responses)

	resp, body = h.do(t, http.MethodGet, "/api/tags", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tr tagsResponse
	require.NoError(t, json.Unmarshal(body, &tr))
	require.Len(t, tr.Tags, 2)
	assert.Equal(t, tagView{Name: "pets", Index: 0}, tr.Tags[0])
	assert.Equal(t, tagView{Name: "store", Index: 1}, tr.Tags[1])
	assert.Empty(t, tr.Current)

	resp, body = h.do(t, http.MethodPut, "/api/tags", `{"tags":["store"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var selected struct {
		Current []string   `json:"current"`
		Paths   []pathView `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(body, &selected))
	assert.Equal(t, []string{"store"}, selected.Current)
	require.Len(t, selected.Paths, 1)
	assert.Equal(t, "/store", selected.Paths[0].Name)
}

func TestPreferencesDeferAndReload(t *testing.T) {
	h := newHarness(t, false)
	h.putDocument(t, petstore)
	h.waitStatus(t, preview.StatusSuccess)

	resp, body := h.do(t, http.MethodPut, "/api/preferences", `{"liveRender":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"liveRender":false}`, string(body))

	h.putDocument(t, "swagger: \"2.0\"\ninfo:\n  title: x\n version: 1\n")
	h.waitStatus(t, preview.StatusUnsaved)
	assert.True(t, h.status(t).Dirty)

	resp, _ = h.do(t, http.MethodPost, "/api/reload", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	h.waitStatus(t, preview.StatusYAMLError)
	assert.False(t, h.status(t).Dirty)
}

func TestPreferencesValidation(t *testing.T) {
	h := newHarness(t, false)

	resp, body := h.do(t, http.MethodPut, "/api/preferences", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "liveRender is required")

	resp, _ = h.do(t, http.MethodPut, "/api/preferences", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFocus(t *testing.T) {
	h := newHarness(t, false)
	h.putDocument(t, petstore)
	h.waitStatus(t, preview.StatusSuccess)

	resp, body := h.do(t, http.MethodPost, "/api/focus", `{"path":["paths","/store"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pos struct{ Line, Column int }
	require.NoError(t, json.Unmarshal(body, &pos))
	assert.Equal(t, 16, pos.Line)

	state := h.editor.State()
	assert.Equal(t, 16, state.Line)
	assert.True(t, state.Focused)
}

func TestHistory(t *testing.T) {
	resp, _ := newHarness(t, false).do(t, http.MethodGet, "/api/history", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	h := newHarness(t, true)
	resp, body := h.do(t, http.MethodGet, "/api/history?limit=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Builds []eventstore.BuildSummary `json:"builds"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Builds, 1)
	assert.Equal(t, "b-1", out.Builds[0].BuildID)

	resp, _ = h.do(t, http.MethodGet, "/api/history?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, false)
	resp, body := h.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestEventStream(t *testing.T) {
	h := newHarness(t, false)
	require.Eventually(t, func() bool {
		return events.SubscriberCount[events.Event](h.bus) > 0
	}, time.Second, 5*time.Millisecond)

	resp, err := h.srv.Client().Get(h.srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 64)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	h.putDocument(t, petstore)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed early")
			if line == "event: status" {
				data := <-lines
				assert.True(t, strings.HasPrefix(data, "data: {"))
				return
			}
		case <-deadline:
			t.Fatal("no status event received")
		}
	}
}
