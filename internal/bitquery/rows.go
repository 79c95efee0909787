package bitquery

// Currency is the token descriptor Bitquery attaches to most rows.
type Currency struct {
	MintAddress     string `json:"MintAddress"`
	Name            string `json:"Name"`
	Symbol          string `json:"Symbol"`
	URI             string `json:"Uri"`
	UpdateAuthority string `json:"UpdateAuthority"`
	Decimals        *int   `json:"Decimals"`
}

// NewestRow is one TokenSupplyUpdates row of the newest-mints query.
type NewestRow struct {
	TokenSupplyUpdate *struct {
		Currency *Currency `json:"Currency"`
	} `json:"TokenSupplyUpdate"`
}

// Currency returns the row's currency, or nil when the row is malformed.
func (r NewestRow) Currency() *Currency {
	if r.TokenSupplyUpdate == nil {
		return nil
	}
	return r.TokenSupplyUpdate.Currency
}

// TopRow is one DEXTradeByTokens row of the top-movers query.
// MarketcapChange5m is left untyped: the API may return a number, a numeric
// string or null.
type TopRow struct {
	Trade *struct {
		Currency *Currency `json:"Currency"`
	} `json:"Trade"`
	MarketcapChange5m any `json:"Marketcap_Change_5min"`
}

// Currency returns the row's currency, or nil when the row is malformed.
func (r TopRow) Currency() *Currency {
	if r.Trade == nil {
		return nil
	}
	return r.Trade.Currency
}

type newestData struct {
	Solana *struct {
		TokenSupplyUpdates []NewestRow `json:"TokenSupplyUpdates"`
	} `json:"Solana"`
}

type topData struct {
	Solana *struct {
		DEXTradeByTokens []TopRow `json:"DEXTradeByTokens"`
	} `json:"Solana"`
}

// CreationRow is one TokenSupplyUpdates row of the creations subscription.
type CreationRow struct {
	Block *struct {
		Time *struct {
			ISO8601 string `json:"iso8601"`
		} `json:"Time"`
	} `json:"Block"`
	Transaction *struct {
		Signer string `json:"Signer"`
	} `json:"Transaction"`
	TokenSupplyUpdate *struct {
		Currency *Currency `json:"Currency"`
	} `json:"TokenSupplyUpdate"`
}

type creationData struct {
	Solana *struct {
		TokenSupplyUpdates []CreationRow `json:"TokenSupplyUpdates"`
	} `json:"Solana"`
}

// Currency returns the row's currency, or nil when the row is malformed.
func (r CreationRow) Currency() *Currency {
	if r.TokenSupplyUpdate == nil {
		return nil
	}
	return r.TokenSupplyUpdate.Currency
}

// BlockTime returns the ISO 8601 block time, or "" when absent.
func (r CreationRow) BlockTime() string {
	if r.Block == nil || r.Block.Time == nil {
		return ""
	}
	return r.Block.Time.ISO8601
}

// Signer returns the transaction signer, or "" when absent.
func (r CreationRow) Signer() string {
	if r.Transaction == nil {
		return ""
	}
	return r.Transaction.Signer
}
