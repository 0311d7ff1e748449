package stages

import (
	"context"
	"net/http"
	"testing"

	"github.com/tjfontaine/relay/internal/core/domain"
	"github.com/tjfontaine/relay/internal/core/ports"
)

func input() *ports.StageInput {
	return &ports.StageInput{
		Request:  domain.NewRequest(http.MethodGet, "/x"),
		Response: domain.NewResponse(),
	}
}

func TestHeaderAuth(t *testing.T) {
	stage := HeaderAuth("Auth", "valid")
	if stage.Terminator() {
		t.Error("auth stage must not be a terminator")
	}

	in := input()
	in.Request.Header.Set("auth", "valid")
	out, err := stage.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out.Action != domain.ActionContinue {
		t.Errorf("action = %q, want continue", out.Action)
	}

	in = input()
	out, err = stage.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out.Action != domain.ActionFail {
		t.Fatalf("action = %q, want fail", out.Action)
	}
	oe, ok := domain.AsOperational(out.Err)
	if !ok {
		t.Fatalf("expected operational error, got %v", out.Err)
	}
	if oe.HTTPStatusCode() != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", oe.HTTPStatusCode())
	}
}

func TestStatic(t *testing.T) {
	stage := Static(http.StatusAccepted, "text/plain", []byte("done"))
	if !stage.Terminator() {
		t.Error("static stage must be a terminator")
	}

	in := input()
	out, err := stage.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out.Action != domain.ActionRespond {
		t.Errorf("action = %q, want respond", out.Action)
	}
	if in.Response.Status() != http.StatusAccepted {
		t.Errorf("status = %d, want 202", in.Response.Status())
	}
	if got := string(in.Response.Body()); got != "done" {
		t.Errorf("body = %q, want done", got)
	}
}

func TestJSON(t *testing.T) {
	stage := JSON(http.StatusOK, map[string]string{"status": "ok"})

	in := input()
	out, err := stage.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out.Action != domain.ActionRespond {
		t.Errorf("action = %q, want respond", out.Action)
	}
	if ct := in.Response.HeaderValue("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if got := string(in.Response.Body()); got != `{"status":"ok"}` {
		t.Errorf("body = %q", got)
	}
}

func TestJSON_UnencodableValueErrors(t *testing.T) {
	stage := JSON(http.StatusOK, func() {})

	in := input()
	if _, err := stage.Process(context.Background(), in); err == nil {
		t.Fatal("expected encoding error")
	}
}

func TestFuncAdapters(t *testing.T) {
	plain := New("plain", func(ctx context.Context, in *ports.StageInput) (domain.Outcome, error) {
		return domain.Continue(), nil
	})
	if plain.Name() != "plain" || plain.Terminator() {
		t.Errorf("New() name = %q terminator = %v", plain.Name(), plain.Terminator())
	}

	term := NewTerminator("term", func(ctx context.Context, in *ports.StageInput) (domain.Outcome, error) {
		return domain.Respond(), nil
	})
	if !term.Terminator() {
		t.Error("NewTerminator() must mark the stage as terminator")
	}

	es := NewErrorStage("handler", func(ctx context.Context, failure error, in *ports.StageInput) (domain.Outcome, error) {
		return domain.Respond(), nil
	})
	out, err := es.Handle(context.Background(), domain.ErrInvalidRequest("x"), input())
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if out.Action != domain.ActionRespond {
		t.Errorf("action = %q, want respond", out.Action)
	}
}
