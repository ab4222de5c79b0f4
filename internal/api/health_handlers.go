package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bblibapp/bblib-server/internal/service"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health and snapshot status",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status   string         `json:"status" doc:"healthy, or degraded while no snapshot is loaded"`
	Snapshot service.Status `json:"snapshot" doc:"Current snapshot vitals"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	snap := s.svc.Status()

	status := "healthy"
	if !snap.Loaded {
		status = "degraded"
	}

	return &HealthOutput{Body: HealthResponse{
		Status:   status,
		Snapshot: snap,
	}}, nil
}
