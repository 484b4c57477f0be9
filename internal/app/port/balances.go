package port

import (
	"context"

	"github.com/InNinoWeTrust/covalent/internal/domain/entity"
)

// BalanceFetcher fetches the raw token balance list for a wallet address
// from the external indexing API.
type BalanceFetcher interface {
	// GetTokenBalances issues one request to the indexing endpoint and
	// returns the parsed balance records. It fails with entity.ErrNetwork
	// if the request does not complete, or *entity.RemoteServiceError if
	// the endpoint answers with a non-success status. No retry.
	GetTokenBalances(ctx context.Context, chainID int64, address string) ([]entity.TokenBalance, error)
}
