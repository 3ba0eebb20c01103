package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
	"github.com/mshadianto/wbs-bpkh-2026/internal/service"
	"github.com/mshadianto/wbs-bpkh-2026/internal/store"
)

const defaultTrendDays = 30

type handlers struct {
	svc *service.Service
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	var sub model.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if sub.Channel == "" {
		sub.Channel = model.ChannelAPI
	}

	receipt, err := h.svc.Submit(r.Context(), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, receipt)
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ReportFilter{
		Status:        model.ReportStatus(q.Get("status")),
		ViolationType: model.ViolationType(q.Get("violation_type")),
		Severity:      model.Severity(q.Get("severity")),
		Unit:          model.Unit(q.Get("unit")),
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = v
	}

	reports, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports, "count": len(reports)})
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := h.svc.Get(r.Context(), id, r.URL.Query().Get("pin"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status model.ReportStatus `json:"status"`
		Note   string             `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.UpdateStatus(r.Context(), id, req.Status, req.Note); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(req.Status)})
}

func (h *handlers) assign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Assignee string `json:"assignee"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Assign(r.Context(), id, req.Assignee); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "assigned_to": req.Assignee})
}

func (h *handlers) listMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// Reading the thread requires the reporter's PIN.
	if _, err := h.svc.Get(r.Context(), id, r.URL.Query().Get("pin")); err != nil {
		writeError(w, err)
		return
	}

	msgs, err := h.svc.Messages(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs, "count": len(msgs)})
}

func (h *handlers) addMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN     string `json:"pin"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message content required"})
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.svc.Get(r.Context(), id, req.PIN); err != nil {
		writeError(w, err)
		return
	}

	msg, err := h.svc.AddMessage(r.Context(), id, "reporter", req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *handlers) statistics(w http.ResponseWriter, r *http.Request) {
	var (
		stats  *model.Statistics
		trends []model.TrendPoint
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		stats, err = h.svc.Statistics(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		trends, err = h.svc.Trends(ctx, defaultTrendDays)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"statistics": stats, "trends": trends})
}

func (h *handlers) trends(w http.ResponseWriter, r *http.Request) {
	days := defaultTrendDays
	if v, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && v > 0 {
		days = v
	}

	trends, err := h.svc.Trends(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days, "trends": trends})
}
