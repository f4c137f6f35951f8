package http

import (
	"net/http"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/service"

	"github.com/gorilla/mux"
)

type PaymentHandler struct {
	paymentSvc service.PaymentService
}

func NewPaymentHandler(paymentSvc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := parseRange(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, limit, err := parsePage(q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter := domain.PaymentFilter{
		Method: q.Get("payment_method"),
		From:   from,
		To:     to,
		Search: q.Get("search"),
		Page:   page,
		Limit:  limit,
	}
	if raw := q.Get("status"); raw != "" {
		status, err := domain.ParsePaymentStatus(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.Status = status
	}

	payments, total, err := h.paymentSvc.ListPayments(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if payments == nil {
		payments = []domain.PaymentRecord{}
	}
	writeData(w, http.StatusOK, listResponse{Items: payments, Total: total, Page: page, Limit: limit})
}

func (h *PaymentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := h.paymentSvc.GetPaymentStats(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	payment, err := h.paymentSvc.GetPayment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, payment)
}

func (h *PaymentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	payment, err := h.paymentSvc.UpdatePaymentStatus(r.Context(), actor, mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, payment)
}
