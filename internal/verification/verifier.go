// Package verification checks a picked mint against Solana on-chain state:
// the mint account, its Metaplex metadata account and recent activity.
package verification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"pump-candidate/internal/domain"
	"pump-candidate/internal/normalization"
	"pump-candidate/internal/solana"
)

// DefaultSignatureLimit is how many recent signatures a report carries.
const DefaultSignatureLimit = 5

// Account summarizes an on-chain account lookup.
type Account struct {
	Address  string `json:"address"`
	Exists   bool   `json:"exists"`
	Lamports uint64 `json:"lamports,omitempty"`
	Owner    string `json:"owner,omitempty"`
}

// Report is the outcome of verifying one mint.
type Report struct {
	Mint             string                 `json:"mint"`
	MintAccount      Account                `json:"mintAccount"`
	MintInfo         *domain.MintInfo       `json:"mintInfo,omitempty"`
	MetadataAccount  Account                `json:"metadataAccount"`
	Metadata         *domain.TokenMetadata  `json:"metadata,omitempty"`
	RecentSignatures []solana.SignatureInfo `json:"recentSignatures"`

	// URIMatch is set by VerifyCandidate: whether the on-chain URI
	// canonicalizes to the candidate's URI.
	URIMatch *bool `json:"uriMatch,omitempty"`

	// Warnings lists decode problems that did not stop verification.
	Warnings []string `json:"warnings,omitempty"`
}

// Verified reports whether both the mint and its metadata account exist.
func (r *Report) Verified() bool {
	return r.MintAccount.Exists && r.MetadataAccount.Exists
}

// Verifier looks up mints over Solana RPC.
type Verifier struct {
	rpc            solana.RPCClient
	signatureLimit int
}

// NewVerifier creates a Verifier backed by rpc.
func NewVerifier(rpc solana.RPCClient) *Verifier {
	return &Verifier{rpc: rpc, signatureLimit: DefaultSignatureLimit}
}

// Verify builds a Report for mint. A missing account is reported, not
// returned as an error; RPC failures and malformed addresses are errors.
func (v *Verifier) Verify(ctx context.Context, mint string) (*Report, error) {
	pda, err := DeriveMetadataPDA(mint)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Mint:             mint,
		MintAccount:      Account{Address: mint},
		MetadataAccount:  Account{Address: pda},
		RecentSignatures: []solana.SignatureInfo{},
	}

	mintInfo, err := v.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("get mint account: %w", err)
	}
	if mintInfo != nil {
		fillAccount(&report.MintAccount, mintInfo)
		if info, err := ParseMintAccount(mintInfo.Data); err != nil {
			report.Warnings = append(report.Warnings, err.Error())
		} else {
			report.MintInfo = info
		}
	}

	metaInfo, err := v.rpc.GetAccountInfo(ctx, pda)
	if err != nil {
		return nil, fmt.Errorf("get metadata account: %w", err)
	}
	if metaInfo != nil {
		fillAccount(&report.MetadataAccount, metaInfo)
		if meta, err := ParseMetadataAccount(metaInfo.Data); err != nil {
			report.Warnings = append(report.Warnings, err.Error())
		} else {
			report.Metadata = meta
		}
	}

	sigs, err := v.rpc.GetSignaturesForAddress(ctx, mint, &solana.SignaturesOpts{Limit: v.signatureLimit})
	if err != nil {
		return nil, fmt.Errorf("get signatures: %w", err)
	}
	if sigs != nil {
		report.RecentSignatures = sigs
	}

	log.Debug().
		Str("mint", mint).
		Bool("mint_exists", report.MintAccount.Exists).
		Bool("metadata_exists", report.MetadataAccount.Exists).
		Int("signatures", len(report.RecentSignatures)).
		Msg("mint verified")

	return report, nil
}

// VerifyCandidate verifies c.Mint and compares the on-chain URI with c.URI.
func (v *Verifier) VerifyCandidate(ctx context.Context, c *domain.Candidate) (*Report, error) {
	report, err := v.Verify(ctx, c.Mint)
	if err != nil {
		return nil, err
	}
	if report.Metadata != nil {
		match := normalization.NormalizeURI(report.Metadata.URI) == normalization.NormalizeURI(c.URI)
		report.URIMatch = &match
	}
	return report, nil
}

func fillAccount(a *Account, info *solana.AccountInfo) {
	a.Exists = true
	a.Lamports = info.Lamports
	a.Owner = info.Owner
}
