package verification

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"pump-candidate/internal/domain"
)

// metadataV1Key is the discriminator of a Metaplex MetadataV1 account.
const metadataV1Key = 4

// mintAccountSize is the length of an SPL Token mint account.
const mintAccountSize = 82

// Upper bounds on borsh string lengths; larger values mean a corrupt account.
const (
	maxNameLen   = 100
	maxSymbolLen = 20
	maxURILen    = 400
)

var errShortAccount = errors.New("account data too short")

// ParseMintAccount decodes base64 SPL Token mint account data.
//
// Layout (82 bytes):
//   - mintAuthority: COption<Pubkey> (4 + 32)
//   - supply: u64
//   - decimals: u8
//   - isInitialized: bool
//   - freezeAuthority: COption<Pubkey> (4 + 32)
func ParseMintAccount(data string) (*domain.MintInfo, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode mint data: %w", err)
	}
	if len(raw) < mintAccountSize {
		return nil, fmt.Errorf("mint data: %w: %d bytes", errShortAccount, len(raw))
	}

	return &domain.MintInfo{
		MintAuthority:   optionalKey(raw[0:36]),
		Supply:          binary.LittleEndian.Uint64(raw[36:44]),
		Decimals:        int(raw[44]),
		Initialized:     raw[45] == 1,
		FreezeAuthority: optionalKey(raw[46:82]),
	}, nil
}

func optionalKey(b []byte) string {
	if binary.LittleEndian.Uint32(b[0:4]) == 0 {
		return ""
	}
	return base58.Encode(b[4:36])
}

// ParseMetadataAccount decodes base64 Metaplex metadata account data.
//
// Layout prefix:
//   - key: u8 (4 for MetadataV1)
//   - updateAuthority: Pubkey
//   - mint: Pubkey
//   - name, symbol, uri: borsh strings (u32 length + bytes, NUL padded)
func ParseMetadataAccount(data string) (*domain.TokenMetadata, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if len(raw) < 65 {
		return nil, fmt.Errorf("metadata: %w: %d bytes", errShortAccount, len(raw))
	}
	if raw[0] != metadataV1Key {
		return nil, fmt.Errorf("metadata: unexpected account key %d", raw[0])
	}

	meta := &domain.TokenMetadata{
		UpdateAuthority: base58.Encode(raw[1:33]),
		Mint:            base58.Encode(raw[33:65]),
	}

	r := borshReader{buf: raw, off: 65}
	if meta.Name, err = r.string(maxNameLen); err != nil {
		return nil, fmt.Errorf("metadata name: %w", err)
	}
	if meta.Symbol, err = r.string(maxSymbolLen); err != nil {
		return nil, fmt.Errorf("metadata symbol: %w", err)
	}
	if meta.URI, err = r.string(maxURILen); err != nil {
		return nil, fmt.Errorf("metadata uri: %w", err)
	}
	return meta, nil
}

type borshReader struct {
	buf []byte
	off int
}

func (r *borshReader) string(limit int) (string, error) {
	if r.off+4 > len(r.buf) {
		return "", errShortAccount
	}
	n := int(binary.LittleEndian.Uint32(r.buf[r.off:]))
	r.off += 4
	if n > limit {
		return "", fmt.Errorf("length %d exceeds %d", n, limit)
	}
	if r.off+n > len(r.buf) {
		return "", errShortAccount
	}
	s := strings.TrimRight(string(r.buf[r.off:r.off+n]), "\x00")
	r.off += n
	return s, nil
}
