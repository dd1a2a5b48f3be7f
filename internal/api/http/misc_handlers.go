package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appCancellation "github.com/estateflow/estateflow/internal/application/cancellation"
	"github.com/estateflow/estateflow/internal/domain/audit"
	"github.com/estateflow/estateflow/internal/domain/fault"
	"github.com/estateflow/estateflow/internal/infrastructure/sse"
)

func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "draftId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid draftId")
		return
	}
	d, err := s.draftSvc.Get(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

type cancelRequest struct {
	TargetType appCancellation.TargetType `json:"targetType"`
	TargetID   uuid.UUID                  `json:"targetId"`
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.TargetID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "targetId is required")
		return
	}

	actorID := actorFromContext(r.Context())
	result, err := s.cancellationSvc.Cancel(r.Context(), req.TargetType, req.TargetID, actorID)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "assetId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid assetId")
		return
	}
	a, err := s.assetRepo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if a == nil {
		respondFault(w, fault.NotFound("asset", id))
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100, 200)
	recipient := actorFromContext(r.Context())
	notifications, err := s.notificationSvc.ListByRecipient(r.Context(), recipient, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

func (s *Server) listAudit(w http.ResponseWriter, r *http.Request) {
	entityType := audit.EntityType(chi.URLParam(r, "entityType"))
	switch entityType {
	case audit.EntityNegotiation, audit.EntityDraft, audit.EntityDeal, audit.EntityContract, audit.EntityAsset:
	default:
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "unknown entity type")
		return
	}
	entityID := chi.URLParam(r, "entityId")
	limit, offset := parseLimitOffset(r, 100, 200)

	entries, err := s.auditSvc.ListByEntity(r.Context(), entityType, entityID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (s *Server) sseEndpoint(w http.ResponseWriter, r *http.Request) {
	recipient := r.URL.Query().Get("recipient")
	if recipient == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "recipient required")
		return
	}
	if _, err := uuid.Parse(recipient); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid recipient")
		return
	}
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	client := sse.NewClient(clientID, recipient, 16)
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(clientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, ok := w.(http.Flusher)
	if !ok {
		return
	}
	// Send an initial comment to flush headers and keep the connection alive.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case msg := <-client.MessageChan:
			if msg == nil {
				return
			}
			payload, _ := json.Marshal(msg)
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
