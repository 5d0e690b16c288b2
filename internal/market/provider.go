package market

import "context"

// Provider is the capability each marketplace adapter implements. Name is a
// stable identifier, matched case-insensitively when a query selects a
// provider subset. Search must return an error (not a sentinel value) on any
// unrecoverable failure; an empty result list is a valid success.
//
// Adapters are expected to apply the shared TTL cache and, where their
// upstream indexes by exact catalog name, the candidate generator.
type Provider interface {
	Name() string
	Search(ctx context.Context, query SearchQuery) ([]MarketResult, error)
}
