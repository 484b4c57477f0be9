package entity

// Stages at which a per-contract or per-token failure can occur.
const (
	StageBalances = "balances"
	StageResolve  = "resolve"
	StageMetadata = "metadata"
)

// GalleryError represents a non-fatal failure for one contract or token
// during a rendering pass. Failures are reported alongside the items that
// did render instead of blocking them.
type GalleryError struct {
	WalletAddress   string `json:"walletAddress,omitempty"`
	ContractAddress string `json:"contractAddress,omitempty"`
	TokenID         string `json:"tokenId,omitempty"`
	Stage           string `json:"stage"`
	Message         string `json:"message"`
}
