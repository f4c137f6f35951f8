package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Orders   *OrderHandler
	Sessions *SessionHandler
	Payments *PaymentHandler
	Auth     *Authenticator
}

// NewRouter registers every endpoint under a route name; the auth
// middleware looks the name up in config.EndpointSecurityConfig.
func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestID, Instrument, h.Auth.Middleware)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: "ok"})
	}).Methods(http.MethodGet).Name("healthz")
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/orders", h.Orders.Create).Methods(http.MethodPost).Name("orders.create")
	api.HandleFunc("/orders", h.Orders.List).Methods(http.MethodGet).Name("orders.list")
	api.HandleFunc("/orders/stats", h.Orders.Stats).Methods(http.MethodGet).Name("orders.stats")
	api.HandleFunc("/orders/{id}", h.Orders.Get).Methods(http.MethodGet).Name("orders.get")
	api.HandleFunc("/orders/{id}/status", h.Orders.UpdateStatus).Methods(http.MethodPatch).Name("orders.update_status")
	api.HandleFunc("/orders/{id}", h.Orders.Delete).Methods(http.MethodDelete).Name("orders.delete")

	api.HandleFunc("/sessions", h.Sessions.Start).Methods(http.MethodPost).Name("sessions.start")
	api.HandleFunc("/sessions/active", h.Sessions.Active).Methods(http.MethodGet).Name("sessions.active")
	api.HandleFunc("/sessions/{id}", h.Sessions.Get).Methods(http.MethodGet).Name("sessions.get")
	api.HandleFunc("/sessions/{id}/end", h.Sessions.End).Methods(http.MethodPost).Name("sessions.end")
	api.HandleFunc("/sessions/{id}/invoice", h.Sessions.Invoice).Methods(http.MethodGet).Name("sessions.invoice")

	api.HandleFunc("/payments", h.Payments.List).Methods(http.MethodGet).Name("payments.list")
	api.HandleFunc("/payments/stats", h.Payments.Stats).Methods(http.MethodGet).Name("payments.stats")
	api.HandleFunc("/payments/{id}", h.Payments.Get).Methods(http.MethodGet).Name("payments.get")
	api.HandleFunc("/payments/{id}/status", h.Payments.UpdateStatus).Methods(http.MethodPatch).Name("payments.update_status")

	return router
}
