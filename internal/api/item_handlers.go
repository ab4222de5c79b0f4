package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bblibapp/bblib-server/internal/domain"
	"github.com/bblibapp/bblib-server/internal/service"
)

func (s *Server) registerItemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/items",
		Summary:     "List items",
		Description: "Returns the filtered, paged inventory in sheet order",
		Tags:        []string{"Items"},
	}, s.handleListItems)

	huma.Register(s.api, huma.Operation{
		OperationID: "getItem",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/{id}",
		Summary:     "Get item",
		Description: "Returns a single inventory item with all raw columns",
		Tags:        []string{"Items"},
	}, s.handleGetItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFacets",
		Method:      http.MethodGet,
		Path:        "/api/v1/facets",
		Summary:     "Get facets",
		Description: "Returns facet values and counts for the current filter state",
		Tags:        []string{"Items"},
	}, s.handleGetFacets)
}

// === DTOs ===

type ListItemsInput struct {
	Classes []string `query:"class" doc:"Class facet values, OR'd within the group"`
	Genres  []string `query:"genre" doc:"Genre facet values, OR'd within the group"`
	Query   string   `query:"q" doc:"Free-text substring filter"`
	Limit   int      `query:"limit" minimum:"0" maximum:"500" doc:"Page size, 0 for the server default"`
	Offset  int      `query:"offset" minimum:"0" doc:"Items to skip"`
}

type ListItemsOutput struct {
	Body service.ItemsResult
}

type GetItemInput struct {
	ID string `path:"id" doc:"Inventory item ID"`
}

type GetItemOutput struct {
	Body domain.Item
}

type GetFacetsInput struct {
	Classes []string `query:"class" doc:"Class facet values currently selected"`
	Genres  []string `query:"genre" doc:"Genre facet values currently selected"`
	Query   string   `query:"q" doc:"Free-text substring filter"`
}

type GetFacetsOutput struct {
	Body service.FacetsResult
}

// === Handlers ===

func (s *Server) handleListItems(_ context.Context, in *ListItemsInput) (*ListItemsOutput, error) {
	res := s.svc.Items(service.ItemsQuery{
		Classes: in.Classes,
		Genres:  in.Genres,
		Query:   in.Query,
		Limit:   in.Limit,
		Offset:  in.Offset,
	})
	return &ListItemsOutput{Body: res}, nil
}

func (s *Server) handleGetItem(_ context.Context, in *GetItemInput) (*GetItemOutput, error) {
	item, err := s.svc.Item(in.ID)
	if err != nil {
		return nil, err
	}
	return &GetItemOutput{Body: item}, nil
}

func (s *Server) handleGetFacets(_ context.Context, in *GetFacetsInput) (*GetFacetsOutput, error) {
	res := s.svc.Facets(in.Classes, in.Genres, in.Query)
	return &GetFacetsOutput{Body: res}, nil
}
