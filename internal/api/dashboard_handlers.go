package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bblibapp/bblib-server/internal/dashboard"
	"github.com/bblibapp/bblib-server/internal/errors"
)

func (s *Server) registerDashboardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getDashboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/dashboard",
		Summary:     "Get dashboard",
		Description: "Returns vote and comment rollups. Admins only.",
		Tags:        []string{"Dashboard"},
	}, s.handleGetDashboard)
}

// === DTOs ===

type GetDashboardInput struct {
	User string `header:"X-BBLib-User" doc:"Identity forwarded by the browser shell"`
	Mode string `query:"mode" doc:"Set to public to force a read-only view"`
}

type GetDashboardOutput struct {
	Body dashboard.Summary
}

// === Handlers ===

func (s *Server) handleGetDashboard(_ context.Context, in *GetDashboardInput) (*GetDashboardOutput, error) {
	if s.publicMode(in.Mode) {
		return nil, errors.Forbidden("dashboard is not available in public mode")
	}

	summary, err := s.svc.Dashboard(s.identity(in.User, in.Mode))
	if err != nil {
		return nil, err
	}
	return &GetDashboardOutput{Body: summary}, nil
}
