package domain

// TokenMetadata is the Metaplex metadata account content for a mint.
type TokenMetadata struct {
	UpdateAuthority string `json:"updateAuthority"`
	Mint            string `json:"mint"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	URI             string `json:"uri"`
}

// MintInfo is the decoded SPL Token mint account.
type MintInfo struct {
	Supply          uint64 `json:"supply"`
	Decimals        int    `json:"decimals"`
	Initialized     bool   `json:"initialized"`
	MintAuthority   string `json:"mintAuthority,omitempty"`   // empty when revoked
	FreezeAuthority string `json:"freezeAuthority,omitempty"` // empty when revoked
}

// OffchainMetadata is the JSON document a metadata URI points to.
type OffchainMetadata struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"` // image resolved through the gateway
	Twitter     string `json:"twitter,omitempty"`
	Telegram    string `json:"telegram,omitempty"`
	Website     string `json:"website,omitempty"`
}
