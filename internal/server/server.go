// Package server hosts the dispatcher over HTTP. It is the wire boundary:
// it translates http.Request into a request descriptor, hands it to the
// dispatcher, and writes the resulting response descriptor back out.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/tjfontaine/relay/internal/core/domain"
	"github.com/tjfontaine/relay/internal/dispatch"
)

// SessionHeader carries the client's session id. A "session" cookie works
// as a fallback for browser clients.
const SessionHeader = "X-Session-ID"

// maxBodyBytes bounds request bodies read into the descriptor.
const maxBodyBytes = 10 << 20

type Server struct {
	Router *chi.Mux
	Port   int
	logger *slog.Logger
	srv    *http.Server
}

// New builds the HTTP host around the dispatcher with the standard
// middleware chain.
func New(port int, timeout time.Duration, logger *slog.Logger, dispatcher *dispatch.Dispatcher) *Server {
	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(timeout))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "relay")
	})

	// The dispatcher owns exact (method, path) matching, so a single
	// catch-all mount is all the mux needs.
	r.Handle("/*", Handler(dispatcher))

	return &Server{
		Router: r,
		Port:   port,
		logger: logger,
	}
}

// Handler adapts the dispatcher to net/http.
func Handler(dispatcher *dispatch.Dispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeRequest(r)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		resp := dispatcher.Route(r.Context(), req)

		// Caller is gone; nothing sensible to write.
		if r.Context().Err() != nil {
			return
		}

		for name, value := range resp.Headers() {
			w.Header().Set(name, value)
		}
		status := resp.Status()
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write(resp.Body())
	})
}

func decodeRequest(r *http.Request) (*domain.Request, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	req := domain.NewRequest(r.Method, r.URL.Path).WithBody(body)
	for name, values := range r.Header {
		if len(values) > 0 {
			req.Header.Set(name, values[0])
		}
	}

	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		if c, err := r.Cookie("session"); err == nil {
			sessionID = c.Value
		}
	}
	return req.WithSession(sessionID), nil
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Port),
		Handler: s.Router,
	}

	s.logger.Info("starting server", slog.Int("port", s.Port))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
