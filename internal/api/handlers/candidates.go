package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/skindex/skindex/internal/market"
	"github.com/skindex/skindex/internal/names"
)

// CandidatesHandler exposes the market-hash-name candidate generator, mostly
// useful for debugging which exact names a provider will be probed with.
type CandidatesHandler struct{}

// NewCandidatesHandler creates a new CandidatesHandler.
func NewCandidatesHandler() *CandidatesHandler {
	return &CandidatesHandler{}
}

// CandidatesInput is the query for the candidates endpoint.
type CandidatesInput struct {
	Text     string `query:"text" required:"true" doc:"Free-text item query" example:"karambit doppler"`
	Wear     string `query:"wear" doc:"Pin a single wear tier" example:"Factory New"`
	StatTrak *bool  `query:"stattrak" doc:"Pin the StatTrak axis"`
	Souvenir *bool  `query:"souvenir" doc:"Pin the Souvenir axis"`
}

// CandidatesOutput lists the generated candidate names.
type CandidatesOutput struct {
	Body struct {
		Candidates []string `json:"candidates" doc:"Candidate market hash names, most specific first"`
	}
}

// Candidates generates candidate market hash names for a query.
func (h *CandidatesHandler) Candidates(_ context.Context, input *CandidatesInput) (*CandidatesOutput, error) {
	var wear *market.Wear
	if input.Wear != "" {
		w, ok := market.ParseWear(input.Wear)
		if !ok {
			return nil, huma.Error422UnprocessableEntity("unknown wear tier: " + input.Wear)
		}
		wear = &w
	}

	out := &CandidatesOutput{}
	out.Body.Candidates = names.Candidates(input.Text, wear, input.StatTrak, input.Souvenir)
	return out, nil
}

// RegisterCandidatesRoutes registers the candidates endpoint with the Huma API.
func RegisterCandidatesRoutes(api huma.API, h *CandidatesHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-candidates",
		Method:      http.MethodGet,
		Path:        "/api/v1/candidates",
		Summary:     "Generate candidate market hash names",
		Tags:        []string{"search"},
		Errors:      []int{http.StatusUnprocessableEntity},
	}, h.Candidates)
}
