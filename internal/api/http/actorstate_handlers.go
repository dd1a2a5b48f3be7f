package httpapi

import (
	"net/http"
)

// Actor state endpoints back the external controller/chat layer: they hold
// partially entered offers between requests. State is keyed by the acting
// party and expires on the server's sweep schedule.

type actorStateRequest struct {
	Data map[string]interface{} `json:"data"`
}

func (s *Server) getActorState(w http.ResponseWriter, r *http.Request) {
	actorID := actorFromContext(r.Context())
	entry := s.actorStore.Get(actorID.String())
	if entry == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "no state held for actor")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":      entry.Data,
		"updatedAt": entry.UpdatedAt,
	})
}

func (s *Server) putActorState(w http.ResponseWriter, r *http.Request) {
	var req actorStateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actorID := actorFromContext(r.Context())
	s.actorStore.Put(actorID.String(), req.Data)
	respondJSON(w, http.StatusOK, map[string]interface{}{"stored": true})
}

func (s *Server) deleteActorState(w http.ResponseWriter, r *http.Request) {
	actorID := actorFromContext(r.Context())
	s.actorStore.Delete(actorID.String())
	respondJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
