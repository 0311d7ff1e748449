package pipeline

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tjfontaine/relay/internal/core/domain"
	"github.com/tjfontaine/relay/internal/core/ports"
)

// Router is the default error stage. Operational errors map to their status
// code and safe message; everything else maps to a fixed 500 with a generic
// body so programming faults never leak internal detail to the caller.
type Router struct{}

var _ ports.ErrorStage = (*Router)(nil)

// NewRouter creates the default error stage.
func NewRouter() *Router { return &Router{} }

// Name returns the stage identifier.
func (r *Router) Name() string { return "error-router" }

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
		Message string `json:"message"`
	} `json:"error"`
}

// Handle writes the failure response and responds.
func (r *Router) Handle(ctx context.Context, failure error, in *ports.StageInput) (domain.Outcome, error) {
	var body errorBody
	status := http.StatusInternalServerError
	body.Error.Type = string(domain.ErrorTypeServer)
	body.Error.Message = "internal error"

	if oe, ok := domain.AsOperational(failure); ok {
		status = oe.HTTPStatusCode()
		body.Error.Type = string(oe.Type)
		body.Error.Code = oe.Code
		body.Error.Message = oe.Message
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.Outcome{}, err
	}
	if err := in.Response.SetStatus(status); err != nil {
		return domain.Outcome{}, err
	}
	if err := in.Response.SetHeader("Content-Type", "application/json"); err != nil {
		return domain.Outcome{}, err
	}
	if err := in.Response.Write(payload); err != nil {
		return domain.Outcome{}, err
	}
	return domain.Respond(), nil
}
