package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/security"
	"lounge-pos-backend/internal/service"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router   *mux.Router
	orders   *MockOrderService
	sessions *MockSessionService
	payments *MockPaymentService
	idem     *memoryIdempotency
	tokens   security.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		orders:   new(MockOrderService),
		sessions: new(MockSessionService),
		payments: new(MockPaymentService),
		idem:     &memoryIdempotency{bodies: map[string][]byte{}},
		tokens:   security.NewTokenManager("test-secret-key-with-at-least-32-chars", "lounge-pos", time.Hour),
	}
	s.router = NewRouter(Handlers{
		Orders:   NewOrderHandler(s.orders, s.idem),
		Sessions: NewSessionHandler(s.sessions),
		Payments: NewPaymentHandler(s.payments),
		Auth:     NewAuthenticator(s.tokens),
	})
	return s
}

func (s *testServer) token(t *testing.T, id string, role domain.Role) string {
	t.Helper()
	tok, err := s.tokens.GenerateAccessToken(&domain.User{ID: id, Email: id + "@lounge.test", Role: role})
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var res response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

var (
	cashierActor = domain.Actor{UserID: "cashier-1", Role: domain.RoleCashier}
	adminActor   = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
)

func sampleOrder() (*domain.Order, *domain.PaymentRecord) {
	orderID := "5e0c6a43-7b1d-4f0e-9c2d-0000ffabc123"
	bill := domain.Bill{Subtotal: decimal.NewFromInt(50), Tax: decimal.Zero, Total: decimal.NewFromInt(50)}
	order := &domain.Order{ID: orderID, Status: domain.OrderStatusPaid, Bill: bill, PaymentMethod: "Cash"}
	payment := &domain.PaymentRecord{ID: "pay-1", Code: "INV-ABC123", OrderID: &orderID, Bill: bill, Status: domain.PaymentStatusPaid}
	return order, payment
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)

	t.Run("Public routes need no token", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", "", "").Code)
		assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/metrics", "", "").Code)
	})

	t.Run("Missing token", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/orders", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, decode(t, rec).Success)
	})

	t.Run("Garbage token", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/orders", "not-a-jwt", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Cashier cannot delete orders", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, "/api/v1/orders/o-1", s.token(t, "cashier-1", domain.RoleCashier), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		s.orders.AssertNotCalled(t, "DeleteOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Admin deletes orders", func(t *testing.T) {
		s.orders.On("DeleteOrder", mock.Anything, adminActor, "o-1").Return(nil).Once()
		rec := s.do(t, http.MethodDelete, "/api/v1/orders/o-1", s.token(t, "admin-1", domain.RoleAdmin), "")
		assert.Equal(t, http.StatusOK, rec.Code)
		s.orders.AssertExpectations(t)
	})

	t.Run("Request id is echoed", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/healthz", "", "", requestIDHeader, "req-42")
		assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
	})
}

func TestOrderHandler_Create(t *testing.T) {
	body := `{"table_id":"t-1","items":[{"product_id":"latte","quantity":2,"unit_price":"25"}],"payment_method":"Card"}`
	matchInput := mock.MatchedBy(func(in service.CreateOrderInput) bool {
		return in.TableID == "t-1" && len(in.Items) == 1 && in.Items[0].Quantity == 2 &&
			in.Items[0].UnitPrice.Equal(decimal.NewFromInt(25)) && in.PaymentMethod == "Card"
	})

	t.Run("Success", func(t *testing.T) {
		s := newTestServer(t)
		order, payment := sampleOrder()
		s.orders.On("CreateOrder", mock.Anything, cashierActor, matchInput).Return(order, payment, nil).Once()

		rec := s.do(t, http.MethodPost, "/api/v1/orders", s.token(t, "cashier-1", domain.RoleCashier), body)
		require.Equal(t, http.StatusCreated, rec.Code)

		res := decode(t, rec)
		assert.True(t, res.Success)
		var data struct {
			Order   domain.Order         `json:"order"`
			Payment domain.PaymentRecord `json:"payment"`
		}
		require.NoError(t, json.Unmarshal(res.Data, &data))
		assert.Equal(t, order.ID, data.Order.ID)
		assert.Equal(t, "INV-ABC123", data.Payment.Code)
		assert.True(t, data.Order.Bill.Total.Equal(decimal.NewFromInt(50)))
	})

	t.Run("Replays an idempotent retry", func(t *testing.T) {
		s := newTestServer(t)
		order, payment := sampleOrder()
		s.orders.On("CreateOrder", mock.Anything, cashierActor, matchInput).Return(order, payment, nil).Once()
		token := s.token(t, "cashier-1", domain.RoleCashier)

		first := s.do(t, http.MethodPost, "/api/v1/orders", token, body, idempotencyKeyHeader, "key-1")
		second := s.do(t, http.MethodPost, "/api/v1/orders", token, body, idempotencyKeyHeader, "key-1")

		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, "true", second.Header().Get(idempotentReplay))
		assert.JSONEq(t, first.Body.String(), second.Body.String())
		s.orders.AssertNumberOfCalls(t, "CreateOrder", 1)
	})

	t.Run("Retry while the first request is in flight", func(t *testing.T) {
		s := newTestServer(t)
		order, payment := sampleOrder()
		entered := make(chan struct{})
		proceed := make(chan struct{})
		s.orders.On("CreateOrder", mock.Anything, cashierActor, matchInput).
			Run(func(mock.Arguments) {
				close(entered)
				<-proceed
			}).
			Return(order, payment, nil).Once()
		token := s.token(t, "cashier-1", domain.RoleCashier)

		firstDone := make(chan *httptest.ResponseRecorder)
		go func() {
			firstDone <- s.do(t, http.MethodPost, "/api/v1/orders", token, body, idempotencyKeyHeader, "key-race")
		}()
		<-entered

		retry := s.do(t, http.MethodPost, "/api/v1/orders", token, body, idempotencyKeyHeader, "key-race")
		assert.Equal(t, http.StatusConflict, retry.Code)
		assert.Empty(t, retry.Header().Get(idempotentReplay))

		close(proceed)
		first := <-firstDone
		assert.Equal(t, http.StatusCreated, first.Code)

		replay := s.do(t, http.MethodPost, "/api/v1/orders", token, body, idempotencyKeyHeader, "key-race")
		assert.Equal(t, http.StatusCreated, replay.Code)
		assert.Equal(t, "true", replay.Header().Get(idempotentReplay))
		s.orders.AssertNumberOfCalls(t, "CreateOrder", 1)
	})

	t.Run("Keys are not shared between cashiers", func(t *testing.T) {
		s := newTestServer(t)
		order, payment := sampleOrder()
		other := domain.Actor{UserID: "cashier-2", Role: domain.RoleCashier}
		s.orders.On("CreateOrder", mock.Anything, cashierActor, matchInput).Return(order, payment, nil).Once()
		otherOrder := &domain.Order{ID: "o-cashier-2", Status: domain.OrderStatusPaid, Bill: order.Bill, PaymentMethod: "Card"}
		s.orders.On("CreateOrder", mock.Anything, other, matchInput).Return(otherOrder, payment, nil).Once()

		first := s.do(t, http.MethodPost, "/api/v1/orders", s.token(t, "cashier-1", domain.RoleCashier), body, idempotencyKeyHeader, "shared-key")
		require.Equal(t, http.StatusCreated, first.Code)

		second := s.do(t, http.MethodPost, "/api/v1/orders", s.token(t, "cashier-2", domain.RoleCashier), body, idempotencyKeyHeader, "shared-key")
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Empty(t, second.Header().Get(idempotentReplay))
		assert.Contains(t, second.Body.String(), otherOrder.ID)
		assert.NotContains(t, second.Body.String(), order.ID)
		s.orders.AssertExpectations(t)
	})

	t.Run("Failed request frees its key", func(t *testing.T) {
		s := newTestServer(t)
		order, payment := sampleOrder()
		s.orders.On("CreateOrder", mock.Anything, cashierActor, matchInput).Return(nil, nil, domain.ErrTableBusy).Once()
		s.orders.On("CreateOrder", mock.Anything, cashierActor, matchInput).Return(order, payment, nil).Once()
		token := s.token(t, "cashier-1", domain.RoleCashier)

		failed := s.do(t, http.MethodPost, "/api/v1/orders", token, body, idempotencyKeyHeader, "key-retry")
		assert.Equal(t, http.StatusConflict, failed.Code)

		retried := s.do(t, http.MethodPost, "/api/v1/orders", token, body, idempotencyKeyHeader, "key-retry")
		assert.Equal(t, http.StatusCreated, retried.Code)
		assert.Empty(t, retried.Header().Get(idempotentReplay))
		s.orders.AssertNumberOfCalls(t, "CreateOrder", 2)
	})

	t.Run("Error mapping", func(t *testing.T) {
		cases := []struct {
			name   string
			err    error
			status int
		}{
			{"insufficient stock", &domain.StockError{ProductID: "latte", Name: "Latte", Requested: 2, Available: 1}, http.StatusBadRequest},
			{"table busy", domain.ErrTableBusy, http.StatusConflict},
			{"stale write", domain.ErrStaleWrite, http.StatusConflict},
			{"unknown product", domain.ErrProductNotFound, http.StatusNotFound},
			{"validation", domain.NewValidationError("items", "at least one item is required"), http.StatusBadRequest},
			{"session ended", domain.ErrSessionNotActive, http.StatusBadRequest},
			{"database down", errors.New("connection reset"), http.StatusInternalServerError},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				s := newTestServer(t)
				s.orders.On("CreateOrder", mock.Anything, cashierActor, mock.Anything).Return(nil, nil, tc.err).Once()

				rec := s.do(t, http.MethodPost, "/api/v1/orders", s.token(t, "cashier-1", domain.RoleCashier), body, idempotencyKeyHeader, "key-err")
				assert.Equal(t, tc.status, rec.Code)
				res := decode(t, rec)
				assert.False(t, res.Success)
				assert.NotEmpty(t, res.Message)
				assert.Empty(t, s.idem.bodies)
			})
		}
	})

	t.Run("Stock error carries details", func(t *testing.T) {
		s := newTestServer(t)
		s.orders.On("CreateOrder", mock.Anything, cashierActor, mock.Anything).
			Return(nil, nil, &domain.StockError{ProductID: "latte", Name: "Latte", Requested: 2, Available: 1}).Once()

		rec := s.do(t, http.MethodPost, "/api/v1/orders", s.token(t, "cashier-1", domain.RoleCashier), body)
		var details domain.StockError
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &details))
		assert.Equal(t, "latte", details.ProductID)
		assert.Equal(t, int32(1), details.Available)
	})

	t.Run("Malformed body", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(t, http.MethodPost, "/api/v1/orders", s.token(t, "cashier-1", domain.RoleCashier), `{"items":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		s.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrderHandler_ListAndStatus(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "cashier-1", domain.RoleCashier)

	t.Run("Filters from the query string", func(t *testing.T) {
		wantTo := time.Date(2026, 3, 2, 23, 59, 59, 999999999, time.UTC)
		s.orders.On("ListOrders", mock.Anything, mock.MatchedBy(func(f domain.OrderFilter) bool {
			return len(f.Statuses) == 2 && f.Statuses[0] == domain.OrderStatusPending && f.Statuses[1] == domain.OrderStatusReady &&
				f.TableID == "t-1" && f.Page == 2 && f.Limit == 10 &&
				f.From != nil && f.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) &&
				f.To != nil && f.To.Equal(wantTo)
		})).Return([]domain.Order{}, int32(12), nil).Once()

		rec := s.do(t, http.MethodGet, "/api/v1/orders?status=Pending,Ready&table_id=t-1&from=2026-03-01&to=2026-03-02&page=2&limit=10", token, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var list struct {
			Items []domain.Order `json:"items"`
			Total int32          `json:"total"`
		}
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &list))
		assert.Equal(t, int32(12), list.Total)
		assert.NotNil(t, list.Items)
	})

	t.Run("Bad query values", func(t *testing.T) {
		for _, q := range []string{"status=Served", "from=yesterday", "limit=-1", "from=2026-03-05&to=2026-03-01"} {
			rec := s.do(t, http.MethodGet, "/api/v1/orders?"+q, token, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		}
	})

	t.Run("Update status", func(t *testing.T) {
		order, _ := sampleOrder()
		order.Status = domain.OrderStatusReady
		s.orders.On("UpdateOrderStatus", mock.Anything, cashierActor, order.ID, "Ready").Return(order, nil).Once()

		rec := s.do(t, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", token, `{"status":"Ready"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Invalid status value", func(t *testing.T) {
		s.orders.On("UpdateOrderStatus", mock.Anything, cashierActor, "o-1", "Served").Return(nil, domain.ErrInvalidStatus).Once()
		rec := s.do(t, http.MethodPatch, "/api/v1/orders/o-1/status", token, `{"status":"Served"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSessionHandler(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "cashier-1", domain.RoleCashier)

	t.Run("Start", func(t *testing.T) {
		s.sessions.On("StartSession", mock.Anything, cashierActor, "ps-1").
			Return(&domain.RentalSession{ID: "s-1", UnitID: "ps-1", Status: domain.SessionStatusActive}, nil).Once()
		rec := s.do(t, http.MethodPost, "/api/v1/sessions", token, `{"unit_id":"ps-1"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("Start requires a unit", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/sessions", token, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Busy unit", func(t *testing.T) {
		s.sessions.On("StartSession", mock.Anything, cashierActor, "ps-2").Return(nil, domain.ErrUnitBusy).Once()
		rec := s.do(t, http.MethodPost, "/api/v1/sessions", token, `{"unit_id":"ps-2"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("End", func(t *testing.T) {
		inv := &domain.Invoice{Subtotal: decimal.NewFromInt(80), Tax: decimal.RequireFromString("11.2"), Total: decimal.RequireFromString("91.2")}
		s.sessions.On("EndSession", mock.Anything, cashierActor, "s-1").
			Return(inv, &domain.PaymentRecord{ID: "pay-2", Code: "PS-000001"}, nil).Once()

		rec := s.do(t, http.MethodPost, "/api/v1/sessions/s-1/end", token, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var data struct {
			Invoice domain.Invoice       `json:"invoice"`
			Payment domain.PaymentRecord `json:"payment"`
		}
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
		assert.True(t, data.Invoice.Total.Equal(decimal.RequireFromString("91.2")))
		assert.Equal(t, "PS-000001", data.Payment.Code)
	})

	t.Run("End twice", func(t *testing.T) {
		s.sessions.On("EndSession", mock.Anything, cashierActor, "s-2").Return(nil, nil, domain.ErrSessionAlreadyCompleted).Once()
		rec := s.do(t, http.MethodPost, "/api/v1/sessions/s-2/end", token, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Active route is not captured by the id route", func(t *testing.T) {
		s.sessions.On("ListActiveSessions", mock.Anything).Return([]domain.RentalSession(nil), nil).Once()
		rec := s.do(t, http.MethodGet, "/api/v1/sessions/active", token, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, string(decode(t, rec).Data))
	})

	t.Run("Invoice for unknown session", func(t *testing.T) {
		s.sessions.On("GetInvoice", mock.Anything, "missing").Return(nil, domain.ErrSessionNotFound).Once()
		rec := s.do(t, http.MethodGet, "/api/v1/sessions/missing/invoice", token, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPaymentHandler(t *testing.T) {
	s := newTestServer(t)
	cashierToken := s.token(t, "cashier-1", domain.RoleCashier)
	adminToken := s.token(t, "admin-1", domain.RoleAdmin)

	t.Run("List with search", func(t *testing.T) {
		s.payments.On("ListPayments", mock.Anything, mock.MatchedBy(func(f domain.PaymentFilter) bool {
			return f.Search == "INV-ABC" && f.Status == domain.PaymentStatusPaid && f.Method == "Cash"
		})).Return([]domain.PaymentRecord{{ID: "pay-1"}}, int32(1), nil).Once()

		rec := s.do(t, http.MethodGet, "/api/v1/payments?search=INV-ABC&status=Paid&payment_method=Cash", cashierToken, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Stats are admin only", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/payments/stats", cashierToken, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)

		s.payments.On("GetPaymentStats", mock.Anything, (*time.Time)(nil), (*time.Time)(nil)).
			Return(&domain.PaymentStats{TotalPayments: 3}, nil).Once()
		rec = s.do(t, http.MethodGet, "/api/v1/payments/stats", adminToken, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Refund", func(t *testing.T) {
		s.payments.On("UpdatePaymentStatus", mock.Anything, adminActor, "pay-1", "Refunded").
			Return(&domain.PaymentRecord{ID: "pay-1", Status: domain.PaymentStatusRefunded}, nil).Once()
		rec := s.do(t, http.MethodPatch, "/api/v1/payments/pay-1/status", adminToken, `{"status":"Refunded"}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, http.MethodPatch, "/api/v1/payments/pay-1/status", cashierToken, `{"status":"Refunded"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	s.payments.AssertExpectations(t)
}
