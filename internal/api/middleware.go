package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
	"github.com/rigbook/rigbook-server/internal/http/response"
	"github.com/rigbook/rigbook-server/internal/logger"
)

const (
	requestIDHeader   = "X-Request-ID"
	displayNameHeader = "X-Rigbook-Display-Name"
	maxRequestIDLen   = 128
)

type ctxKey string

const identityKey ctxKey = "identity"

// identity is what the upstream gateway asserted about the caller. It is
// not checked until a handler asks for the actor.
type identity struct {
	userID      string
	displayName string
}

// requestID propagates an incoming X-Request-ID or assigns a fresh UUID.
// The id is stored where chi's middleware.GetReqID finds it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs one line per request and places a request-scoped
// logger in the context.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		reqLogger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		r = r.WithContext(logger.NewContext(r.Context(), reqLogger))

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			}
			switch {
			case status >= http.StatusInternalServerError:
				reqLogger.Error("request completed", attrs...)
			case r.URL.Path == "/health" || r.URL.Path == s.cfg.Metrics.Path:
				reqLogger.Debug("request completed", attrs...)
			default:
				reqLogger.Info("request completed", attrs...)
			}
		}()

		next.ServeHTTP(ww, r)
	})
}

// recoverer turns a panic into a 500 problem response.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.FromContext(r.Context(), s.logger).Error("panic serving request",
				"path", r.URL.Path,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			response.Write(w, response.New(http.StatusInternalServerError, domainerrors.CodeInternal, "internal server error"), s.logger)
		}()
		next.ServeHTTP(w, r)
	})
}

// identify records the identity headers, if any, in the request context.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(s.cfg.HTTP.IdentityHeader))
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identity{
			userID:      userID,
			displayName: strings.TrimSpace(r.Header.Get(displayNameHeader)),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimit applies the per-actor token bucket. Anonymous callers are keyed
// by client address.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == s.cfg.Metrics.Path {
			next.ServeHTTP(w, r)
			return
		}

		key := "ip:" + clientIP(r)
		if id, ok := r.Context().Value(identityKey).(identity); ok {
			key = "user:" + id.userID
		}

		if !s.limiter.Allow(key) {
			logger.FromContext(r.Context(), s.logger).Warn("rate limit exceeded",
				"key", key,
				"path", r.URL.Path,
			)
			response.TooManyRequests(w, s.limiter.RetryAfter(key), s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr. middleware.RealIP has already
// rewritten it when the server sits behind a trusted proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requireActor resolves the caller for routes that need one. The user record
// is created on first sight.
func (s *Server) requireActor(ctx context.Context) (string, error) {
	id, ok := ctx.Value(identityKey).(identity)
	if !ok {
		return "", domainerrors.Unauthorized(fmt.Sprintf("missing %s header", s.cfg.HTTP.IdentityHeader))
	}
	user, err := s.services.Users.Identify(ctx, id.userID, id.displayName)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
