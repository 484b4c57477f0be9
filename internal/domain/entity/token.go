package entity

// Token type tags as reported by the indexing API.
const (
	TokenTypeNFT            = "nft"
	TokenTypeCryptocurrency = "cryptocurrency"
)

// ERC721Interface is the interface tag the indexing API reports for
// contracts following the ERC-721 convention.
const ERC721Interface = "erc721"

// TokenBalance is a single entry from the indexing API balances response.
// Records are trusted as returned; nothing here is validated beyond what
// the NFT filter needs.
type TokenBalance struct {
	ContractName         string    `json:"contract_name"`
	ContractTickerSymbol string    `json:"contract_ticker_symbol"`
	ContractAddress      string    `json:"contract_address"`
	ContractDecimals     int       `json:"contract_decimals"`
	SupportsERC          []string  `json:"supports_erc"`
	Type                 string    `json:"type"`
	Balance              string    `json:"balance"`
	NFTData              []NFTData `json:"nft_data"`
}

// NFTData is the per-token record nested under an NFT-typed balance entry.
type NFTData struct {
	TokenID      string           `json:"token_id"`
	TokenURL     string           `json:"token_url"`
	ExternalData *NFTExternalData `json:"external_data"`
}

// NFTExternalData is display metadata the indexing API may already carry
// for a token. It is best-effort and frequently absent.
type NFTExternalData struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Attributes  []NFTAttribute `json:"attributes"`
}

// NFTAttribute is one trait of a token's metadata document.
type NFTAttribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// IsERC721NFT reports whether this balance entry represents an ERC-721
// non-fungible token. Absent or malformed fields count as non-matching.
func (t TokenBalance) IsERC721NFT() bool {
	if t.Type != TokenTypeNFT {
		return false
	}
	for _, erc := range t.SupportsERC {
		if erc == ERC721Interface {
			return true
		}
	}
	return false
}
