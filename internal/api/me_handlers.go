package api

import (
	"context"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerMeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getMe",
		Method:      http.MethodGet,
		Path:        "/api/v1/me",
		Summary:     "Get my state",
		Description: "Returns the calling identity's voted items and comments, derived from the response log",
		Tags:        []string{"Me"},
	}, s.handleGetMe)
}

// === DTOs ===

type GetMeInput struct {
	User string `header:"X-BBLib-User" doc:"Identity forwarded by the browser shell"`
	Mode string `query:"mode" doc:"Set to public to force a read-only view"`
}

// MeResponse is the derived per-user state. With no identity every field is
// empty and ReadOnly is true.
type MeResponse struct {
	Email    string            `json:"email,omitempty" doc:"Effective identity"`
	ReadOnly bool              `json:"read_only" doc:"Whether submissions are disabled for this request"`
	VotedIDs []string          `json:"voted_ids" doc:"Item IDs the identity has responded to"`
	Comments map[string]string `json:"comments" doc:"Latest comment per item ID"`
}

type GetMeOutput struct {
	Body MeResponse
}

// === Handlers ===

func (s *Server) handleGetMe(_ context.Context, in *GetMeInput) (*GetMeOutput, error) {
	identity := s.identity(in.User, in.Mode)
	state := s.svc.Me(identity)

	voted := make([]string, 0, len(state.VotedIDs))
	for id := range state.VotedIDs {
		voted = append(voted, id)
	}
	sort.Strings(voted)

	return &GetMeOutput{Body: MeResponse{
		Email:    identity,
		ReadOnly: s.publicMode(in.Mode) || identity == "",
		VotedIDs: voted,
		Comments: state.CommentByItem,
	}}, nil
}
