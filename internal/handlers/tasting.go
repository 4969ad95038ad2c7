package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/blindtaste/internal/app"
	"github.com/shrimpsizemoose/blindtaste/internal/metrics"
	"github.com/shrimpsizemoose/blindtaste/internal/models"
	"github.com/shrimpsizemoose/blindtaste/internal/recompute"
	"github.com/shrimpsizemoose/blindtaste/internal/store"
)

type TastingHandler struct {
	service *app.Service
}

func NewTastingHandler(service *app.Service) *TastingHandler {
	return &TastingHandler{
		service: service,
	}
}

// Register mounts every route on mux.
func (h *TastingHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/events", h.wrap(h.HandleListEvents))
	mux.HandleFunc("POST /api/v1/events", h.wrap(h.HandleCreateEvent))
	mux.HandleFunc("GET /api/v1/events/{event}/open-round", h.wrap(h.HandleOpenRound))
	mux.HandleFunc("POST /api/v1/events/{event}/close", h.wrap(h.HandleCloseEvent))
	mux.HandleFunc("POST /api/v1/events/{event}/recalculate", h.wrap(h.HandleRecalculateEvent))
	mux.HandleFunc("GET /api/v1/events/{event}/ranking", h.wrap(h.HandleEventRanking))
	mux.HandleFunc("GET /api/v1/events/{event}/winners", h.wrap(h.HandleEventWinners))
	mux.HandleFunc("GET /api/v1/events/{event}/answer-key", h.wrap(h.HandleEventAnswerKeys))
	mux.HandleFunc("GET /api/v1/events/{event}/participants/{participant}/summary", h.wrap(h.HandleParticipantSummary))

	mux.HandleFunc("GET /api/v1/rounds", h.wrap(h.HandleListRounds))
	mux.HandleFunc("POST /api/v1/rounds", h.wrap(h.HandleCreateRound))
	mux.HandleFunc("POST /api/v1/rounds/{round}/close", h.wrap(h.HandleCloseRound))
	mux.HandleFunc("POST /api/v1/rounds/{round}/recalculate", h.wrap(h.HandleRecalculateRound))
	mux.HandleFunc("GET /api/v1/rounds/{round}/ranking", h.wrap(h.HandleRoundRanking))
	mux.HandleFunc("GET /api/v1/rounds/{round}/winners", h.wrap(h.HandleRoundWinners))
	mux.HandleFunc("GET /api/v1/rounds/{round}/participants/{participant}/result", h.wrap(h.HandleParticipantResult))

	mux.HandleFunc("POST /api/v1/participants", h.wrap(h.HandleCreateParticipant))
	mux.HandleFunc("POST /api/v1/evaluations", h.wrap(h.HandleSubmitEvaluation))
	mux.HandleFunc("GET /api/v1/evaluations/answered-rounds", h.wrap(h.HandleAnsweredRounds))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// wrap applies the required header gate and records request duration.
func (h *TastingHandler) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			metrics.APIRequestDuration.WithLabelValues(
				r.Pattern,
				r.Method,
				strconv.Itoa(rec.status),
			).Observe(time.Since(start).Seconds())
		}()

		if !h.service.ValidateHeaders(r.Header) {
			http.Error(rec, "these are not the droids you are looking for", http.StatusForbidden)
			return
		}
		next(rec, r)
	}
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, recompute.ErrNoAnswerKey),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, app.ErrRoundClosed),
		errors.Is(err, app.ErrEventClosed),
		errors.Is(err, app.ErrOpenRounds):
		status = http.StatusConflict
	case errors.Is(err, app.ErrBusy):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		logger.Error.Printf("Request failed: %v", err)
		http.Error(w, "Internal error", status)
		return
	}
	logger.Debug.Printf("Request rejected with %d: %v", status, err)
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, payload map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		logger.Debug.Printf("Failed to extract %s from path %s: %v", name, r.URL.Path, err)
		http.Error(w, "Invalid "+name+" id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func queryID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.URL.Query().Get(name))
	if err != nil {
		logger.Debug.Printf("Failed to extract %s from query %q: %v", name, r.URL.RawQuery, err)
		http.Error(w, "Invalid "+name, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		logger.Debug.Printf("Invalid request body for %s: %v", r.URL.Path, err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *TastingHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (h *TastingHandler) HandleOpenRound(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "event")
	if !ok {
		return
	}
	round, err := h.service.OpenRound(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"round": round})
}

func (h *TastingHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if !decode(w, r, &event) {
		return
	}
	if err := h.service.CreateEvent(r.Context(), &event); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"event": event})
}

func (h *TastingHandler) HandleCloseEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "event")
	if !ok {
		return
	}
	if err := h.service.CloseEvent(r.Context(), eventID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"event_id": eventID, "is_open": false})
}

func (h *TastingHandler) HandleRecalculateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "event")
	if !ok {
		return
	}
	updated, err := h.service.RecalculateEvent(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"event_id": eventID, "participants_updated": updated})
}

func (h *TastingHandler) HandleEventRanking(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "event")
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	standings, err := h.service.EventRanking(r.Context(), eventID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": standings})
}

func (h *TastingHandler) HandleEventWinners(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "event")
	if !ok {
		return
	}
	winners, err := h.service.EventWinners(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"winners": winners})
}

func (h *TastingHandler) HandleEventAnswerKeys(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "event")
	if !ok {
		return
	}
	keys, err := h.service.EventAnswerKeys(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"answer_keys": keys})
}

func (h *TastingHandler) HandleParticipantSummary(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "event")
	if !ok {
		return
	}
	participantID, ok := pathID(w, r, "participant")
	if !ok {
		return
	}
	summary, err := h.service.ParticipantSummary(r.Context(), eventID, participantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"summary": summary})
}

// HandleListRounds serves GET /api/v1/rounds?event_id=
func (h *TastingHandler) HandleListRounds(w http.ResponseWriter, r *http.Request) {
	eventID, ok := queryID(w, r, "event_id")
	if !ok {
		return
	}
	rounds, err := h.service.EventRounds(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	if rounds == nil {
		rounds = []models.Round{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rounds": rounds})
}

func (h *TastingHandler) HandleCreateRound(w http.ResponseWriter, r *http.Request) {
	var round models.Round
	if !decode(w, r, &round) {
		return
	}
	if err := h.service.CreateRound(r.Context(), &round); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"round": round})
}

func (h *TastingHandler) HandleCloseRound(w http.ResponseWriter, r *http.Request) {
	roundID, ok := pathID(w, r, "round")
	if !ok {
		return
	}
	result, err := h.service.CloseRound(r.Context(), roundID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"result": result, "count": result.Count()})
}

func (h *TastingHandler) HandleRecalculateRound(w http.ResponseWriter, r *http.Request) {
	roundID, ok := pathID(w, r, "round")
	if !ok {
		return
	}
	result, err := h.service.RecalculateRound(r.Context(), roundID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"result": result, "count": result.Count()})
}

func (h *TastingHandler) HandleRoundRanking(w http.ResponseWriter, r *http.Request) {
	roundID, ok := pathID(w, r, "round")
	if !ok {
		return
	}
	standings, err := h.service.RoundRanking(r.Context(), roundID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": standings})
}

func (h *TastingHandler) HandleRoundWinners(w http.ResponseWriter, r *http.Request) {
	roundID, ok := pathID(w, r, "round")
	if !ok {
		return
	}
	winners, err := h.service.RoundWinners(r.Context(), roundID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"winners": winners})
}

func (h *TastingHandler) HandleParticipantResult(w http.ResponseWriter, r *http.Request) {
	roundID, ok := pathID(w, r, "round")
	if !ok {
		return
	}
	participantID, ok := pathID(w, r, "participant")
	if !ok {
		return
	}
	breakdown, err := h.service.ParticipantResult(r.Context(), roundID, participantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"result": breakdown})
}

func (h *TastingHandler) HandleCreateParticipant(w http.ResponseWriter, r *http.Request) {
	var participant models.Participant
	if !decode(w, r, &participant) {
		return
	}
	if err := h.service.CreateParticipant(r.Context(), &participant); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"participant": participant})
}

func (h *TastingHandler) HandleSubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	var evaluation models.Evaluation
	if !decode(w, r, &evaluation) {
		return
	}
	if err := h.service.SubmitEvaluation(r.Context(), &evaluation); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"evaluation": evaluation})
}

// HandleAnsweredRounds serves GET /api/v1/evaluations/answered-rounds?participant_id=&event_id=
func (h *TastingHandler) HandleAnsweredRounds(w http.ResponseWriter, r *http.Request) {
	participantID, ok := queryID(w, r, "participant_id")
	if !ok {
		return
	}
	eventID, ok := queryID(w, r, "event_id")
	if !ok {
		return
	}
	rounds, err := h.service.AnsweredRounds(r.Context(), eventID, participantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"round_ids": rounds})
}
