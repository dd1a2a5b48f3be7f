package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/estateflow/estateflow/internal/domain/negotiation"
	"github.com/estateflow/estateflow/internal/domain/pricing"
)

type startNegotiationRequest struct {
	AssetID uuid.UUID     `json:"assetId"`
	Offer   pricing.Offer `json:"offer"`
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes,omitempty"`
}

type confirmRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

type sessionSummary struct {
	SessionID uuid.UUID          `json:"sessionId"`
	AssetID   uuid.UUID          `json:"assetId"`
	BuyerID   uuid.UUID          `json:"buyerId"`
	OwnerID   uuid.UUID          `json:"ownerId"`
	Status    negotiation.Status `json:"status"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func (s *Server) startNegotiation(w http.ResponseWriter, r *http.Request) {
	var req startNegotiationRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.AssetID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "assetId is required")
		return
	}

	buyerID := actorFromContext(r.Context())
	result, err := s.negotiationSvc.Start(r.Context(), req.AssetID, buyerID, req.Offer)
	if err != nil {
		respondFault(w, err)
		return
	}
	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	respondJSON(w, status, map[string]interface{}{
		"session":   result.Session,
		"duplicate": result.Duplicate,
	})
}

func (s *Server) listNegotiations(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100, 200)
	filter := negotiation.Filter{}
	if v := r.URL.Query().Get("status"); v != "" {
		status := negotiation.Status(v)
		filter.Status = &status
	}
	if v := r.URL.Query().Get("assetId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid assetId")
			return
		}
		filter.AssetID = &id
	}
	if v := r.URL.Query().Get("buyerId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid buyerId")
			return
		}
		filter.BuyerID = &id
	}
	if v := r.URL.Query().Get("ownerId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid ownerId")
			return
		}
		filter.OwnerID = &id
	}

	sessions, err := s.negotiationSvc.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": lo.Map(sessions, func(sess *negotiation.Session, _ int) sessionSummary {
			return sessionSummary{
				SessionID: sess.SessionID,
				AssetID:   sess.AssetID,
				BuyerID:   sess.BuyerID,
				OwnerID:   sess.OwnerID,
				Status:    sess.Status,
				UpdatedAt: sess.UpdatedAt,
			}
		}),
	})
}

func (s *Server) getNegotiation(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	session, err := s.negotiationSvc.Get(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) decideNegotiation(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	var req decisionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}

	actorID := actorFromContext(r.Context())
	session, err := s.negotiationSvc.Decide(r.Context(), id, actorID, negotiation.Status(req.Decision), req.Notes)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) requestDraft(w http.ResponseWriter, r *http.Request) {
	s.advanceSession(w, r, s.negotiationSvc.RequestDraft)
}

func (s *Server) generateDraft(w http.ResponseWriter, r *http.Request) {
	s.advanceSession(w, r, s.negotiationSvc.GenerateDraft)
}

func (s *Server) sendDraft(w http.ResponseWriter, r *http.Request) {
	s.advanceSession(w, r, s.negotiationSvc.SendDraft)
}

func (s *Server) advanceSession(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, sessionID, actorID uuid.UUID) (*negotiation.Session, error),
) {
	id, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	actorID := actorFromContext(r.Context())
	session, err := op(r.Context(), id, actorID)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) confirmReservation(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	var req confirmRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.PaymentMethod == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "paymentMethod is required")
		return
	}

	actorID := actorFromContext(r.Context())
	result, err := s.negotiationSvc.ConfirmReservation(r.Context(), id, actorID, req.PaymentMethod)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
