package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bblibapp/bblib-server/internal/errors"
	"github.com/bblibapp/bblib-server/internal/service"
	"github.com/bblibapp/bblib-server/internal/sheets"
)

func (s *Server) registerResponseRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "submitResponse",
		Method:        http.MethodPost,
		Path:          "/api/v1/responses",
		Summary:       "Submit a response",
		Description:   "Dispatches a vote or comment to the sheet's write endpoint. A success means dispatched, not accepted: the row only becomes visible after a later reload.",
		Tags:          []string{"Responses"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleSubmitResponse)

	huma.Register(s.api, huma.Operation{
		OperationID: "reloadSnapshot",
		Method:      http.MethodPost,
		Path:        "/api/v1/reload",
		Summary:     "Reload from the sheets",
		Description: "Fetches every sheet and swaps in a fresh snapshot. Concurrent reloads coalesce onto one in-flight load.",
		Tags:        []string{"Responses"},
	}, s.handleReload)
}

// === DTOs ===

type SubmitRequest struct {
	ItemID  string `json:"item_id" minLength:"1" doc:"Inventory item ID"`
	Choice  string `json:"choice" minLength:"1" doc:"Vote tag, or comment for a comment-only row"`
	Comment string `json:"comment,omitempty" doc:"Free-text comment"`
}

type SubmitInput struct {
	User string `header:"X-BBLib-User" doc:"Identity forwarded by the browser shell"`
	Mode string `query:"mode" doc:"Set to public to force a read-only view"`
	Body SubmitRequest
}

type SubmitResponseBody struct {
	Status  string         `json:"status" doc:"Always dispatched on success"`
	Receipt sheets.Receipt `json:"receipt" doc:"Receipt for log correlation"`
}

type SubmitOutput struct {
	Body SubmitResponseBody
}

type ReloadOutput struct {
	Body service.LoadResult
}

// === Handlers ===

func (s *Server) handleSubmitResponse(ctx context.Context, in *SubmitInput) (*SubmitOutput, error) {
	if s.publicMode(in.Mode) {
		return nil, errors.ReadOnly("submissions are disabled in public mode")
	}

	identity := s.identity(in.User, in.Mode)
	if identity == "" {
		return nil, errors.Unauthorized("an identity is required to submit")
	}

	receipt, err := s.svc.Respond(ctx, identity, in.Body.ItemID, in.Body.Choice, in.Body.Comment)
	if err != nil {
		return nil, err
	}

	return &SubmitOutput{Body: SubmitResponseBody{
		Status:  "dispatched",
		Receipt: receipt,
	}}, nil
}

func (s *Server) handleReload(ctx context.Context, _ *struct{}) (*ReloadOutput, error) {
	res, err := s.svc.Reload(ctx)
	if err != nil {
		return nil, err
	}
	return &ReloadOutput{Body: res}, nil
}
