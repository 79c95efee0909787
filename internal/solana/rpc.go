// Package solana is a minimal Solana JSON-RPC client for mint verification.
package solana

import "context"

// RPCClient defines the Solana RPC calls used to verify a mint.
type RPCClient interface {
	// GetAccountInfo retrieves an account, or nil when it does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetSignaturesForAddress retrieves recent signatures touching an address.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)
}
