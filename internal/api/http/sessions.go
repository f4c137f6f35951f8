package http

import (
	"net/http"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/service"

	"github.com/gorilla/mux"
)

type SessionHandler struct {
	sessionSvc service.SessionService
}

func NewSessionHandler(sessionSvc service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

type startSessionRequest struct {
	UnitID string `json:"unit_id"`
}

type endSessionResponse struct {
	Invoice *domain.Invoice       `json:"invoice"`
	Payment *domain.PaymentRecord `json:"payment"`
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	var req startSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.UnitID == "" {
		writeError(w, r, domain.NewValidationError("unit_id", "is required"))
		return
	}
	session, err := h.sessionSvc.StartSession(r.Context(), actor, req.UnitID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, session)
}

func (h *SessionHandler) Active(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionSvc.ListActiveSessions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []domain.RentalSession{}
	}
	writeData(w, http.StatusOK, sessions)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionSvc.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, session)
}

func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	invoice, payment, err := h.sessionSvc.EndSession(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, endSessionResponse{Invoice: invoice, Payment: payment})
}

func (h *SessionHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.sessionSvc.GetInvoice(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, invoice)
}
