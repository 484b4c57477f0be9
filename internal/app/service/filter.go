package service

import "github.com/InNinoWeTrust/covalent/internal/domain/entity"

// FilterNFTBalances narrows a raw balance list to entries representing
// ERC-721 non-fungible tokens. Pure and idempotent: entries with absent or
// malformed type/interface fields are excluded, never rejected.
func FilterNFTBalances(items []entity.TokenBalance) []entity.TokenBalance {
	filtered := make([]entity.TokenBalance, 0, len(items))
	for _, item := range items {
		if item.IsERC721NFT() {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
