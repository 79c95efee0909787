package verification

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// MetaplexProgramID is the Metaplex Token Metadata program.
const MetaplexProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

const pdaMarker = "ProgramDerivedAddress"

// ErrInvalidMint is returned for an address that is not a base58 public key.
var ErrInvalidMint = errors.New("invalid mint address")

// ErrNoViableBump is returned when every bump lands on the curve.
var ErrNoViableBump = errors.New("no off-curve bump for seeds")

// DecodeAddress decodes a base58 public key into its 32 bytes.
func DecodeAddress(addr string) ([]byte, error) {
	b, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidMint, addr, err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidMint, addr, len(b))
	}
	return b, nil
}

// ValidateMint checks that mint is a well-formed public key.
func ValidateMint(mint string) error {
	_, err := DecodeAddress(mint)
	return err
}

// DeriveMetadataPDA derives the Metaplex metadata account for a mint.
// Seeds: ["metadata", metaplex_program_id, mint].
func DeriveMetadataPDA(mint string) (string, error) {
	mintBytes, err := DecodeAddress(mint)
	if err != nil {
		return "", err
	}
	program, err := base58.Decode(MetaplexProgramID)
	if err != nil {
		return "", fmt.Errorf("decode program id: %w", err)
	}

	addr, _, err := derivePDA([][]byte{[]byte("metadata"), program, mintBytes}, program)
	return addr, err
}

// derivePDA finds the first bump, counting down from 255, whose
// sha256(seeds || bump || programID || marker) is off the ed25519 curve.
func derivePDA(seeds [][]byte, programID []byte) (string, byte, error) {
	for bump := 255; bump > 0; bump-- {
		hash := pdaHash(seeds, byte(bump), programID)
		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:]), byte(bump), nil
		}
	}
	return "", 0, ErrNoViableBump
}

func pdaHash(seeds [][]byte, bump byte, programID []byte) [32]byte {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(programID)
	h.Write([]byte(pdaMarker))

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
