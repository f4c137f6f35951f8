package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"lounge-pos-backend/internal/config"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/metrics"
	"lounge-pos-backend/internal/security"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if name := route.GetName(); name != "" {
			return name
		}
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "undefined"
}

// RequestID tags the request context so every log line carries the id.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logger.WithAttrs(r.Context(), "requestID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Instrument records request metrics and writes the access log.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		duration := time.Since(start)

		route := routeName(r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
		logger.InfoContext(r.Context(), "HTTP request", "method", r.Method, "path", r.URL.Path, "route", route, "status", rec.status, "duration_ms", duration.Milliseconds())
	})
}

type Authenticator struct {
	tokenManager security.TokenManager
}

func NewAuthenticator(tm security.TokenManager) *Authenticator {
	return &Authenticator{tokenManager: tm}
}

// Middleware authenticates the bearer token and checks the caller's role
// against the security level of the matched route.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.GetSecurityLevel(routeName(r))
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "authorization token is not provided")
			return
		}
		claims, err := a.tokenManager.ValidateToken(token)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid token: "+err.Error())
			return
		}
		if !level.Allows(claims.Role) {
			writeMessage(w, http.StatusForbidden, "insufficient role")
			return
		}

		ctx := WithActor(r.Context(), claims.Actor())
		ctx = logger.WithAttrs(ctx, "actorID", claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}
