package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	appAudit "github.com/estateflow/estateflow/internal/application/audit"
	appCancellation "github.com/estateflow/estateflow/internal/application/cancellation"
	appContract "github.com/estateflow/estateflow/internal/application/contract"
	appDeal "github.com/estateflow/estateflow/internal/application/deal"
	appDraft "github.com/estateflow/estateflow/internal/application/draft"
	appNegotiation "github.com/estateflow/estateflow/internal/application/negotiation"
	appNotification "github.com/estateflow/estateflow/internal/application/notification"
	"github.com/estateflow/estateflow/internal/domain/asset"
	"github.com/estateflow/estateflow/internal/domain/fault"
	"github.com/estateflow/estateflow/internal/domain/party"
	"github.com/estateflow/estateflow/internal/infrastructure/actorstate"
	"github.com/estateflow/estateflow/internal/infrastructure/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	negotiationSvc  *appNegotiation.Service
	draftSvc        *appDraft.Service
	dealSvc         *appDeal.Service
	contractSvc     *appContract.Service
	cancellationSvc *appCancellation.Service
	notificationSvc *appNotification.Service
	auditSvc        *appAudit.Service
	assetRepo       asset.Repository
	directory       party.Directory
	sseHub          *sse.Hub
	actorStore      *actorstate.Store
}

func NewServer(
	negotiationSvc *appNegotiation.Service,
	draftSvc *appDraft.Service,
	dealSvc *appDeal.Service,
	contractSvc *appContract.Service,
	cancellationSvc *appCancellation.Service,
	notificationSvc *appNotification.Service,
	auditSvc *appAudit.Service,
	assetRepo asset.Repository,
	directory party.Directory,
	sseHub *sse.Hub,
	actorStore *actorstate.Store,
) *Server {
	return &Server{
		negotiationSvc:  negotiationSvc,
		draftSvc:        draftSvc,
		dealSvc:         dealSvc,
		contractSvc:     contractSvc,
		cancellationSvc: cancellationSvc,
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
		assetRepo:       assetRepo,
		directory:       directory,
		sseHub:          sseHub,
		actorStore:      actorStore,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requireActor)

			r.Route("/negotiations", func(r chi.Router) {
				r.Post("/", s.startNegotiation)
				r.Get("/", s.listNegotiations)
				r.Get("/{sessionId}", s.getNegotiation)
				r.Post("/{sessionId}/decision", s.decideNegotiation)
				r.Post("/{sessionId}/request-draft", s.requestDraft)
				r.Post("/{sessionId}/generate-draft", s.generateDraft)
				r.Post("/{sessionId}/send-draft", s.sendDraft)
				r.Post("/{sessionId}/confirm", s.confirmReservation)
			})

			r.Route("/drafts", func(r chi.Router) {
				r.Get("/{draftId}", s.getDraft)
			})

			r.Route("/deals", func(r chi.Router) {
				r.Get("/", s.listDeals)
				r.Get("/{dealId}", s.getDeal)
				r.Post("/{dealId}/accept", s.acceptDeal)
				r.Post("/{dealId}/reject", s.rejectDeal)
			})

			r.Route("/contracts", func(r chi.Router) {
				r.Get("/", s.listContracts)
				r.Get("/{contractId}", s.getContract)
				r.Post("/{contractId}/sign", s.signContract)
				r.Post("/{contractId}/installments/{index}/pay", s.payInstallment)
			})

			r.Post("/cancellations", s.cancel)

			r.Route("/assets", func(r chi.Router) {
				r.Get("/{assetId}", s.getAsset)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.listNotifications)
			})

			r.Get("/audit/{entityType}/{entityId}", s.listAudit)

			r.Route("/actor-state", func(r chi.Router) {
				r.Get("/", s.getActorState)
				r.Put("/", s.putActorState)
				r.Delete("/", s.deleteActorState)
			})
		})

		r.Get("/events", s.sseEndpoint)
	})

	return r
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondFault maps the domain error taxonomy onto HTTP statuses.
func respondFault(w http.ResponseWriter, err error) {
	kind, ok := fault.KindOf(err)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	status := http.StatusInternalServerError
	switch kind {
	case fault.KindNotFound:
		status = http.StatusNotFound
	case fault.KindAuthorization:
		status = http.StatusForbidden
	case fault.KindInvalidState, fault.KindUnavailableAsset:
		status = http.StatusConflict
	case fault.KindValidation:
		status = http.StatusBadRequest
	}
	respondError(w, status, string(kind), err.Error())
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type actorKey struct{}

// requireActor resolves the acting party from the X-Actor-Id header.
func (s *Server) requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Actor-Id")
		if raw == "" {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "X-Actor-Id header required")
			return
		}
		actorID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid X-Actor-Id header")
			return
		}
		p, err := s.directory.GetByID(r.Context(), actorID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
			return
		}
		if p == nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown actor")
			return
		}
		ctx := context.WithValue(r.Context(), actorKey{}, actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(actorKey{}).(uuid.UUID)
	return id
}
