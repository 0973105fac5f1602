package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"expense-backfill/internal/domain"
	"expense-backfill/internal/logging"
)

// Backfiller runs the expense category backfill for a trip.
type Backfiller interface {
	Backfill(ctx context.Context, tripID string) (*domain.BackfillSummary, error)
	Preview(ctx context.Context, tripID string) (*domain.BackfillSummary, error)
}

// Request is the body of a backfill request.
type Request struct {
	TripID string `json:"tripId"`
}

// Response is the success envelope.
type Response struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Fixed   int                        `json:"fixed"`
	Total   int                        `json:"total"`
	Skipped map[domain.MatchReason]int `json:"skipped"`
	Failed  []domain.UpdateFailure     `json:"failed"`
	DryRun  bool                       `json:"dryRun,omitempty"`
	Results []domain.MatchResult       `json:"results,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Handler serves the backfill operation over HTTP.
type Handler struct {
	backfill Backfiller
	log      logrus.FieldLogger
}

// New creates a handler.
func New(b Backfiller, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logging.Discard()
	}
	return &Handler{backfill: b, log: log}
}

// Routes registers the handler's endpoints on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/backfill-expense-categories", h.BackfillExpenseCategories)
	mux.HandleFunc("GET /healthz", h.Health)
	return mux
}

// BackfillExpenseCategories runs (or previews with ?dryRun=true) the
// backfill for the trip named in the request body.
func (h *Handler) BackfillExpenseCategories(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context(), h.log)

	var req Request
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	if req.TripID == "" {
		req.TripID = r.URL.Query().Get("tripId")
	}

	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dryRun"))
	withResults, _ := strconv.ParseBool(r.URL.Query().Get("results"))

	run := h.backfill.Backfill
	if dryRun {
		run = h.backfill.Preview
	}
	summary, err := run(r.Context(), req.TripID)

	switch {
	case errors.Is(err, domain.ErrTripIDRequired):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "tripId is required", Details: err.Error()})
		return
	case errors.Is(err, domain.ErrAllUpdatesFailed):
		log.WithError(err).WithField(logging.FieldTripID, req.TripID).Error("backfill failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to backfill expense categories",
			Details: fmt.Sprintf("%v: %d of %d updates failed", err, len(summary.Failures), len(summary.Failures)+summary.Fixed),
		})
		return
	case err != nil:
		log.WithError(err).WithField(logging.FieldTripID, req.TripID).Error("backfill failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to backfill expense categories", Details: err.Error()})
		return
	}

	resp := NewResponse(summary)
	if withResults {
		resp.Results = summary.Results
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewResponse builds the success envelope for a summary.
func NewResponse(s *domain.BackfillSummary) Response {
	msg := fmt.Sprintf("Fixed %d of %d uncategorized expenses", s.Fixed, s.Total)
	if s.DryRun {
		msg = fmt.Sprintf("Dry run: %d of %d uncategorized expenses can be fixed", s.Total-s.SkippedCount(), s.Total)
	}
	return Response{
		Success: true,
		Message: msg,
		Fixed:   s.Fixed,
		Total:   s.Total,
		Skipped: s.Skipped,
		Failed:  s.Failures,
		DryRun:  s.DryRun,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
