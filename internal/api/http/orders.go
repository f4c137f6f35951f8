package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"lounge-pos-backend/internal/cache"
	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/service"

	"github.com/gorilla/mux"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotentReplay     = "Idempotent-Replayed"
)

type OrderHandler struct {
	orderSvc service.OrderService
	idem     cache.IdempotencyStore
}

// NewOrderHandler builds the order endpoints. idem may be nil, in which case
// Idempotency-Key headers are ignored.
func NewOrderHandler(orderSvc service.OrderService, idem cache.IdempotencyStore) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc, idem: idem}
}

type createOrderResponse struct {
	Order   *domain.Order         `json:"order"`
	Payment *domain.PaymentRecord `json:"payment"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := ActorFromContext(ctx)

	var in service.CreateOrderInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	key := r.Header.Get(idempotencyKeyHeader)
	reserved := false
	if key != "" && h.idem != nil {
		state, body, err := h.idem.Reserve(ctx, actor.UserID, key)
		switch {
		case err != nil:
			logger.WarnContext(ctx, "Idempotency reservation failed, creating without it", "key", key, "error", err)
		case state == cache.KeyCompleted:
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(idempotentReplay, "true")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(body)
			return
		case state == cache.KeyPending:
			writeMessage(w, http.StatusConflict, "a request with this idempotency key is still in progress")
			return
		default:
			reserved = true
		}
	}

	order, payment, err := h.orderSvc.CreateOrder(ctx, actor, in)
	if err != nil {
		if reserved {
			h.releaseKey(r, actor.UserID, key)
		}
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(envelope{Success: true, Data: createOrderResponse{Order: order, Payment: payment}}); err != nil {
		if reserved {
			h.releaseKey(r, actor.UserID, key)
		}
		writeError(w, r, err)
		return
	}
	if reserved {
		if err := h.idem.Complete(ctx, actor.UserID, key, buf.Bytes()); err != nil {
			logger.WarnContext(ctx, "Failed to remember idempotency key", "key", key, "orderID", order.ID, "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(buf.Bytes())
}

func (h *OrderHandler) releaseKey(r *http.Request, owner, key string) {
	if err := h.idem.Release(r.Context(), owner, key); err != nil {
		logger.WarnContext(r.Context(), "Failed to release idempotency key", "key", key, "error", err)
	}
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	statuses, err := parseStatuses(q.Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
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

	filter := domain.OrderFilter{
		Statuses:      statuses,
		TableID:       q.Get("table_id"),
		PaymentMethod: q.Get("payment_method"),
		From:          from,
		To:            to,
		Page:          page,
		Limit:         limit,
	}
	orders, total, err := h.orderSvc.ListOrders(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeData(w, http.StatusOK, listResponse{Items: orders, Total: total, Page: page, Limit: limit})
}

func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := h.orderSvc.GetOrderStats(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderSvc.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.orderSvc.UpdateOrderStatus(r.Context(), actor, mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, order)
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	if err := h.orderSvc.DeleteOrder(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "order deleted"})
}
