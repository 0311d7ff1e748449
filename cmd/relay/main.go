package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/relay/internal/core/domain"
	"github.com/tjfontaine/relay/internal/core/ports"
	"github.com/tjfontaine/relay/internal/stages"
	"github.com/tjfontaine/relay/internal/telemetry"
	"github.com/tjfontaine/relay/pkg/relay"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.Init("relay", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	eng, err := relay.New(
		relay.WithConfigFile("config.yaml"),
		relay.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	if err := registerRoutes(eng, logger); err != nil {
		log.Fatalf("Failed to register routes: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}
	logger.Info("engine started")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := eng.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("engine shutdown complete")
}

// registerRoutes wires the demo routes: a health check and a greeting
// pipeline showing auth, session state, and a terminator.
func registerRoutes(eng *relay.Engine, logger *slog.Logger) error {
	if err := eng.Store().SetGlobal("greeting.prefix", "Hello"); err != nil {
		return err
	}

	if _, err := eng.Register(http.MethodGet, "/healthz",
		[]ports.Stage{stages.Static(http.StatusOK, "application/json", []byte(`{"status":"ok"}`))},
		stages.NewErrorStage("health-error", respondUnavailable),
	); err != nil {
		return err
	}

	loadName := stages.New("load-name", func(ctx context.Context, in *ports.StageInput) (domain.Outcome, error) {
		name, ok, err := in.State.Get(ctx, ports.ScopeAuto, "user.name")
		if err != nil {
			return domain.Outcome{}, err
		}
		if !ok {
			name = "stranger"
		}
		return domain.Continue(), in.State.Set(ctx, ports.ScopeRequest, "greet.name", name)
	})

	greet := stages.NewTerminator("respond-greeting", func(ctx context.Context, in *ports.StageInput) (domain.Outcome, error) {
		prefix, _, err := in.State.Get(ctx, ports.ScopeGlobal, "greeting.prefix")
		if err != nil {
			return domain.Outcome{}, err
		}
		name, _, err := in.State.Get(ctx, ports.ScopeRequest, "greet.name")
		if err != nil {
			return domain.Outcome{}, err
		}
		if err := in.Response.SetStatus(http.StatusOK); err != nil {
			return domain.Outcome{}, err
		}
		if err := in.Response.SetHeader("Content-Type", "text/plain"); err != nil {
			return domain.Outcome{}, err
		}
		if err := in.Response.Write(fmt.Appendf(nil, "%v, %v", prefix, name)); err != nil {
			return domain.Outcome{}, err
		}
		return domain.Respond(), nil
	})

	// Remember the caller's name in their session for later requests.
	rememberName := stages.New("remember-name", func(ctx context.Context, in *ports.StageInput) (domain.Outcome, error) {
		if name := in.Request.Header.Get("X-Name"); name != "" && in.State.SessionID() != "" {
			if err := in.State.Set(ctx, ports.ScopeSession, "user.name", name); err != nil {
				return domain.Outcome{}, err
			}
		}
		return domain.Continue(), nil
	})

	_, err := eng.Register(http.MethodGet, "/greet",
		[]ports.Stage{
			stages.RequestLog(logger),
			stages.HeaderAuth("Auth", "valid"),
			rememberName,
			loadName,
			greet,
		},
		stages.NewErrorStage("send-unauthorized", respondFailure),
	)
	return err
}

func respondFailure(ctx context.Context, failure error, in *ports.StageInput) (domain.Outcome, error) {
	status := http.StatusInternalServerError
	message := "internal error"
	if oe, ok := domain.AsOperational(failure); ok {
		status = oe.HTTPStatusCode()
		message = oe.Message
	}
	if err := in.Response.SetStatus(status); err != nil {
		return domain.Outcome{}, err
	}
	if err := in.Response.SetHeader("Content-Type", "text/plain"); err != nil {
		return domain.Outcome{}, err
	}
	if status == http.StatusUnauthorized {
		message = "Unauthorized"
	}
	if err := in.Response.Write([]byte(message)); err != nil {
		return domain.Outcome{}, err
	}
	return domain.Respond(), nil
}

func respondUnavailable(ctx context.Context, failure error, in *ports.StageInput) (domain.Outcome, error) {
	if err := in.Response.SetStatus(http.StatusServiceUnavailable); err != nil {
		return domain.Outcome{}, err
	}
	if err := in.Response.Write([]byte("unavailable")); err != nil {
		return domain.Outcome{}, err
	}
	return domain.Respond(), nil
}
