// Package handler exposes the practice workflow over a JSON API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qnotes/smap/internal/catalog"
	"github.com/qnotes/smap/internal/i18n"
	"github.com/qnotes/smap/internal/model"
	"github.com/qnotes/smap/internal/store"
	"github.com/qnotes/smap/internal/workflow"
)

// SectionFetcher pulls a fresh section list from the grading service.
type SectionFetcher interface {
	GetSections(ctx context.Context) ([]model.Section, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	workflow *workflow.Controller
	catalog  *catalog.Catalog
	store    *store.Store
	fetcher  SectionFetcher
}

// New creates a new Handler. The fetcher may be nil when the deployment
// only uses the built-in section catalog.
func New(wf *workflow.Controller, cat *catalog.Catalog, st *store.Store, fetcher SectionFetcher) *Handler {
	return &Handler{workflow: wf, catalog: cat, store: st, fetcher: fetcher}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleState)
		r.Get("/sections", h.handleSections)
		r.Post("/sections/refresh", h.handleSectionsRefresh)
		r.Post("/select", h.handleSelect)
		r.Post("/teach/proceed", h.handleProceed)
		r.Post("/draft", h.handleDraft)
		r.Get("/draft/progress", h.handleDraftProgress)
		r.Post("/submit", h.handleSubmit)
		r.Post("/review", h.handleReview)
		r.Post("/practice-another", h.handlePracticeAnother)
		r.Post("/insights", h.handleInsights)
		r.Post("/insights/continue", h.handleContinue)
		r.Post("/insights/choose", h.handleChoose)
		r.Post("/reset", h.handleReset)
		r.Get("/history", h.handleHistory)
	})
}

// SessionMiddleware stores the practice session id in every request
// context so handlers can report it without holding the auth provider.
func SessionMiddleware(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(model.ContextWithSessionID(r.Context(), id)))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["success"] = true
	writeJSON(w, http.StatusOK, payload)
}

// writeError maps the workflow error taxonomy onto HTTP statuses. A
// backend error message is passed through verbatim; everything else gets
// the controller's message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := "unknown"

	var verr *model.ValidationError
	var terr *model.TransportError
	var berr *model.BackendError
	switch {
	case errors.As(err, &verr):
		status = http.StatusConflict
		kind = "validation"
	case errors.As(err, &terr):
		status = http.StatusBadGateway
		kind = "transport"
	case errors.As(err, &berr):
		status = http.StatusBadGateway
		kind = "backend"
	}

	writeJSON(w, status, map[string]any{
		"success":    false,
		"error":      err.Error(),
		"error_kind": kind,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]any{"status": "ok"})
}

func snapshotPayload(snap workflow.Snapshot) map[string]any {
	payload := map[string]any{
		"state":    snap.State,
		"draft":    snap.Draft,
		"progress": snap.Progress,
	}
	if snap.Section != nil {
		payload["section"] = snap.Section
	}
	if snap.Teaching != nil {
		payload["teaching"] = snap.Teaching
	}
	if snap.Result != nil {
		payload["result"] = snap.Result
	}
	if snap.Insights != nil {
		payload["insights"] = snap.Insights
	}
	if snap.LastError != "" {
		payload["last_error"] = snap.LastError
		payload["last_error_kind"] = snap.ErrorKind
	}
	return payload
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	payload := snapshotPayload(h.workflow.Snapshot())
	if id := model.SessionIDFromContext(r.Context()); id != "" {
		payload["session_id"] = id
	}
	writeSuccess(w, payload)
}

func (h *Handler) handleSections(w http.ResponseWriter, r *http.Request) {
	difficulty := model.Difficulty(r.URL.Query().Get("difficulty"))
	var sections []model.Section
	if difficulty != "" {
		sections = h.catalog.ListByDifficulty(difficulty)
	} else {
		sections = h.catalog.ListSections()
	}
	writeSuccess(w, map[string]any{"sections": sections})
}

func (h *Handler) handleSectionsRefresh(w http.ResponseWriter, r *http.Request) {
	if h.fetcher == nil {
		writeError(w, &model.ValidationError{Reason: i18n.T(r.Context(), "RefreshUnavailable")})
		return
	}
	sections, err := h.fetcher.GetSections(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.catalog.Replace(sections); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, map[string]any{"sections": h.catalog.ListSections()})
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SectionID string `json:"section_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Reason: i18n.T(r.Context(), "InvalidRequestBody")})
		return
	}
	if err := h.workflow.SelectSection(r.Context(), req.SectionID); err != nil {
		if errors.Is(err, model.ErrStaleResponse) {
			writeSuccess(w, snapshotPayload(h.workflow.Snapshot()))
			return
		}
		// A teach failure still lands the session in drafting; report
		// the degraded state rather than an outright failure.
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			writeError(w, err)
			return
		}
	}
	writeSuccess(w, snapshotPayload(h.workflow.Snapshot()))
}

func (h *Handler) handleProceed(w http.ResponseWriter, r *http.Request) {
	if err := h.workflow.ProceedToDrafting(); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, snapshotPayload(h.workflow.Snapshot()))
}

func (h *Handler) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field model.Component `json:"field"`
		Value string          `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Reason: i18n.T(r.Context(), "InvalidRequestBody")})
		return
	}
	if err := h.workflow.UpdateField(req.Field, req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, map[string]any{"progress": h.workflow.Snapshot().Progress})
}

func (h *Handler) handleDraftProgress(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]any{"progress": h.workflow.Snapshot().Progress})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	result, err := h.workflow.Submit(r.Context())
	if err != nil {
		if errors.Is(err, model.ErrStaleResponse) {
			writeSuccess(w, snapshotPayload(h.workflow.Snapshot()))
			return
		}
		writeError(w, err)
		return
	}
	writeSuccess(w, map[string]any{"result": result})
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	if err := h.workflow.ReviewAnswers(); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, snapshotPayload(h.workflow.Snapshot()))
}

func (h *Handler) handlePracticeAnother(w http.ResponseWriter, r *http.Request) {
	if err := h.workflow.PracticeAnother(); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, snapshotPayload(h.workflow.Snapshot()))
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.workflow.RequestInsights(r.Context())
	if err != nil {
		if errors.Is(err, model.ErrStaleResponse) {
			writeSuccess(w, snapshotPayload(h.workflow.Snapshot()))
			return
		}
		writeError(w, err)
		return
	}
	writeSuccess(w, map[string]any{"insights": insights})
}

func (h *Handler) handleContinue(w http.ResponseWriter, r *http.Request) {
	if err := h.workflow.ContinuePractice(r.Context()); err != nil {
		if errors.Is(err, model.ErrStaleResponse) {
			writeSuccess(w, snapshotPayload(h.workflow.Snapshot()))
			return
		}
		writeError(w, err)
		return
	}
	writeSuccess(w, snapshotPayload(h.workflow.Snapshot()))
}

func (h *Handler) handleChoose(w http.ResponseWriter, r *http.Request) {
	if err := h.workflow.ChooseAnotherSection(); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, snapshotPayload(h.workflow.Snapshot()))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.workflow.Reset()
	writeSuccess(w, snapshotPayload(h.workflow.Snapshot()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeSuccess(w, map[string]any{"history": []model.HistoryEntry{}})
		return
	}
	history, err := h.store.History()
	if err != nil {
		slog.Error("load history", "error", err)
		writeError(w, err)
		return
	}
	if history == nil {
		history = []model.HistoryEntry{}
	}
	writeSuccess(w, map[string]any{"history": history})
}
