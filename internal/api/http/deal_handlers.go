package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/estateflow/estateflow/internal/domain/deal"
)

func (s *Server) listDeals(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100, 200)
	filter := deal.Filter{}
	if v := r.URL.Query().Get("status"); v != "" {
		status := deal.Status(v)
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

	deals, err := s.dealSvc.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"deals": deals})
}

func (s *Server) getDeal(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "dealId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid dealId")
		return
	}
	d, err := s.dealSvc.Get(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) acceptDeal(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "dealId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid dealId")
		return
	}
	actorID := actorFromContext(r.Context())
	d, err := s.dealSvc.Accept(r.Context(), id, actorID)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) rejectDeal(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "dealId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid dealId")
		return
	}
	actorID := actorFromContext(r.Context())
	d, err := s.dealSvc.Reject(r.Context(), id, actorID)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}
