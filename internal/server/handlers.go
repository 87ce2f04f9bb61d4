package server

import (
	"io"
	"net/http"
	"strconv"

	"git.home.luguber.info/inful/specpreview/internal/document"
	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
	"git.home.luguber.info/inful/specpreview/internal/health"
	"git.home.luguber.info/inful/specpreview/internal/preview"
	"git.home.luguber.info/inful/specpreview/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := []health.Check{}
	if s.deps.Health != nil {
		checks = append(checks, health.BackendCheck(s.deps.Health))
	}
	writeJSON(w, http.StatusOK, health.Report(s.started, checks...))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Controller.Snapshot(r.Context())
	if err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	text, err := s.deps.Store.Load(r.Context(), storage.KeyDocument)
	if err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = io.WriteString(w, text)
}

// handlePutDocument stores the raw request body as the new document. The
// pipeline picks it up through its slot subscription.
func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		s.errors.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryValidation, "read request body").Build())
		return
	}
	if len(body) > maxBodyBytes {
		s.errors.WriteErrorResponse(w, r, ferrors.ValidationError("document too large").
			WithContext("limit", maxBodyBytes).Build())
		return
	}
	if err := s.deps.Store.Save(r.Context(), storage.KeyDocument, string(body)); err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Controller.LoadLatest(r.Context()); err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reload scheduled"})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Editor.State())
}

type responseView struct {
	Code  string `json:"code"`
	Class string `json:"class"`
}

type operationView struct {
	document.Operation
	Responses []responseView `json:"responses,omitempty"`
}

type pathView struct {
	Name       string          `json:"name"`
	EditPath   string          `json:"editPath"`
	Line       int             `json:"line,omitempty"`
	Operations []operationView `json:"operations"`
}

type pathsResponse struct {
	ShowDefinitions bool       `json:"showDefinitions"`
	Paths           []pathView `json:"paths"`
}

func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Controller.Snapshot(r.Context())
	if err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	visible, err := s.deps.Controller.VisiblePaths(r.Context())
	if err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	resp := pathsResponse{Paths: viewPaths(visible)}
	if snap.Spec != nil {
		resp.ShowDefinitions = preview.ShowDefinitions(snap.Spec.Definitions)
	}
	writeJSON(w, http.StatusOK, resp)
}

func viewPaths(visible []preview.VisiblePath) []pathView {
	out := make([]pathView, 0, len(visible))
	for _, vp := range visible {
		pv := pathView{Name: vp.Name, EditPath: vp.EditPath, Line: vp.Line, Operations: []operationView{}}
		for _, op := range vp.Operations {
			ov := operationView{Operation: op}
			for _, code := range op.Responses {
				ov.Responses = append(ov.Responses, responseView{Code: code, Class: preview.ResponseCodeClass(code)})
			}
			pv.Operations = append(pv.Operations, ov)
		}
		out = append(out, pv)
	}
	return out
}

type tagView struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Index       int    `json:"index"`
}

type tagsResponse struct {
	Tags    []tagView `json:"tags"`
	Current []string  `json:"current"`
}

func (s *Server) currentTags() tagsResponse {
	all := s.deps.Tags.GetAllTags()
	resp := tagsResponse{Tags: make([]tagView, 0, len(all)), Current: s.deps.Tags.GetCurrentTags()}
	for _, t := range all {
		resp.Tags = append(resp.Tags, tagView{Name: t.Name, Description: t.Description, Index: s.deps.Tags.TagIndexFor(t.Name)})
	}
	if resp.Current == nil {
		resp.Current = []string{}
	}
	return resp
}

func (s *Server) handleGetTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentTags())
}

type selectTagsRequest struct {
	Tags []string `json:"tags"`
}

func (s *Server) handlePutTags(w http.ResponseWriter, r *http.Request) {
	var req selectTagsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	visible, err := s.deps.Controller.SelectTags(r.Context(), req.Tags)
	if err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		tagsResponse
		Paths []pathView `json:"paths"`
	}{s.currentTags(), viewPaths(visible)})
}

type preferencesRequest struct {
	LiveRender *bool `json:"liveRender"`
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	if req.LiveRender == nil {
		s.errors.WriteErrorResponse(w, r, ferrors.ValidationError("liveRender is required").Build())
		return
	}
	if err := s.deps.Preferences.SetLiveRender(r.Context(), *req.LiveRender); err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liveRender": s.deps.Preferences.LiveRender()})
}

type focusRequest struct {
	Path []string `json:"path"`
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	pos, err := s.deps.Controller.FocusEdit(r.Context(), req.Path)
	if err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		s.errors.WriteErrorResponse(w, r, ferrors.NotFoundError("build history is disabled").Build())
		return
	}
	builds := s.deps.History.Builds()
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.errors.WriteErrorResponse(w, r, ferrors.ValidationError("limit must be a non-negative integer").
				WithContext("limit", raw).Build())
			return
		}
		if n < len(builds) {
			builds = builds[:n]
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"builds": builds, "skips": s.deps.History.Skips()})
}
