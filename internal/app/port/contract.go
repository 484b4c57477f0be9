package port

import (
	"context"

	"github.com/InNinoWeTrust/covalent/internal/domain/entity"
)

// ContractHandle is a live reference to a resolved ERC-721 deployment.
// Handles are resolved lazily per distinct contract address and owned by
// one rendering pass; they are not cached across passes.
type ContractHandle interface {
	// Address returns the contract address the handle was resolved for.
	Address() string

	// Name returns the on-chain collection name, or "" when the contract
	// does not expose one.
	Name() string

	// TokenURI resolves the metadata URI for a specific token identifier.
	TokenURI(ctx context.Context, tokenID string) (string, error)
}

// ContractResolver resolves contract addresses to live handles through the
// chain RPC endpoint.
type ContractResolver interface {
	// Resolve fails with *entity.ContractResolutionError when the address
	// is not a deployed, recognizable ERC-721 contract.
	Resolve(ctx context.Context, contractAddress string) (ContractHandle, error)
}

// MetadataLoader resolves display metadata for one token under a resolved
// contract. Loads are best effort: entity.ErrMetadataAbsent means the
// token has no usable metadata and should simply be skipped.
type MetadataLoader interface {
	Load(ctx context.Context, handle ContractHandle, token entity.NFTData) (*entity.NFTMetadata, error)
}
