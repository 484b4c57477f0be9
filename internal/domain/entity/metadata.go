package entity

// NFTMetadata is the resolved display metadata for one token of one
// contract. It lives only for the duration of a rendering pass.
type NFTMetadata struct {
	ContractAddress string         `json:"contractAddress"`
	ContractName    string         `json:"contractName,omitempty"`
	TokenID         string         `json:"tokenId"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Image           string         `json:"image,omitempty"`
	Attributes      []NFTAttribute `json:"attributes,omitempty"`
}

// Gallery is the result of one full rendering pass for a wallet.
type Gallery struct {
	WalletAddress string         `json:"walletAddress"`
	Generation    uint64         `json:"generation"`
	Items         []NFTMetadata  `json:"items"`
	Errors        []GalleryError `json:"errors,omitempty"`
}
