package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/estateflow/estateflow/internal/domain/contract"
)

func (s *Server) listContracts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100, 200)
	filter := contract.Filter{}
	if v := r.URL.Query().Get("status"); v != "" {
		status := contract.Status(v)
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

	contracts, err := s.contractSvc.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"contracts": contracts})
}

func (s *Server) getContract(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "contractId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid contractId")
		return
	}
	c, err := s.contractSvc.Get(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) signContract(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "contractId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid contractId")
		return
	}
	actorID := actorFromContext(r.Context())
	c, err := s.contractSvc.Sign(r.Context(), id, actorID)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) payInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "contractId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid contractId")
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid installment index")
		return
	}
	actorID := actorFromContext(r.Context())
	c, err := s.contractSvc.MarkInstallmentPaid(r.Context(), id, index, actorID)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}
