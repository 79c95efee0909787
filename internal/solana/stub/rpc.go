// Package stub provides an in-memory solana.RPCClient for tests.
package stub

import (
	"context"

	"pump-candidate/internal/solana"
)

// RPCClient implements solana.RPCClient from in-memory maps.
type RPCClient struct {
	Accounts   map[string]*solana.AccountInfo
	Signatures map[string][]solana.SignatureInfo

	// Err, when set, is returned by every call.
	Err error

	Calls []string
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:   make(map[string]*solana.AccountInfo),
		Signatures: make(map[string][]solana.SignatureInfo),
	}
}

// GetAccountInfo returns the stored account or nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.Calls = append(c.Calls, "getAccountInfo:"+pubkey)
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Accounts[pubkey], nil
}

// GetSignaturesForAddress returns stored signatures, honoring opts.Limit.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.Calls = append(c.Calls, "getSignaturesForAddress:"+address)
	if c.Err != nil {
		return nil, c.Err
	}
	sigs := c.Signatures[address]
	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		return sigs[:opts.Limit], nil
	}
	return sigs, nil
}
