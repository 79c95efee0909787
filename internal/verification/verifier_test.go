package verification

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump-candidate/internal/domain"
	"pump-candidate/internal/solana"
	"pump-candidate/internal/solana/stub"
)

const (
	testMint      = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	testAuthority = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
)

func key(t *testing.T, addr string) []byte {
	t.Helper()
	b, err := DecodeAddress(addr)
	require.NoError(t, err)
	return b
}

func borshString(s string, padded int) []byte {
	body := make([]byte, padded)
	copy(body, s)
	out := binary.LittleEndian.AppendUint32(nil, uint32(padded))
	return append(out, body...)
}

func metadataAccount(t *testing.T, name, symbol, uri string) string {
	t.Helper()
	raw := []byte{metadataV1Key}
	raw = append(raw, key(t, testAuthority)...)
	raw = append(raw, key(t, testMint)...)
	raw = append(raw, borshString(name, 32)...)
	raw = append(raw, borshString(symbol, 10)...)
	raw = append(raw, borshString(uri, 200)...)
	return base64.StdEncoding.EncodeToString(raw)
}

func mintAccount(t *testing.T, supply uint64, decimals byte, withAuthority bool) string {
	t.Helper()
	raw := make([]byte, mintAccountSize)
	if withAuthority {
		binary.LittleEndian.PutUint32(raw[0:4], 1)
		copy(raw[4:36], key(t, testAuthority))
	}
	binary.LittleEndian.PutUint64(raw[36:44], supply)
	raw[44] = decimals
	raw[45] = 1
	return base64.StdEncoding.EncodeToString(raw)
}

func TestValidateMint(t *testing.T) {
	assert.NoError(t, ValidateMint(testMint))

	for _, bad := range []string{"", "0OIl", "abc", testMint + "11"} {
		err := ValidateMint(bad)
		assert.ErrorIs(t, err, ErrInvalidMint, "mint %q", bad)
	}
}

func TestDeriveMetadataPDA(t *testing.T) {
	pda, err := DeriveMetadataPDA(testMint)
	require.NoError(t, err)

	again, err := DeriveMetadataPDA(testMint)
	require.NoError(t, err)
	assert.Equal(t, pda, again)

	raw, err := base58.Decode(pda)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.False(t, isOnCurve(raw), "PDA must be off curve")

	_, err = DeriveMetadataPDA("not-a-key")
	assert.ErrorIs(t, err, ErrInvalidMint)
}

func TestDerivePDA_FirstOffCurveBump(t *testing.T) {
	program := key(t, MetaplexProgramID)
	seeds := [][]byte{[]byte("metadata"), program, key(t, testMint)}

	addr, bump, err := derivePDA(seeds, program)
	require.NoError(t, err)

	hash := pdaHash(seeds, bump, program)
	assert.Equal(t, base58.Encode(hash[:]), addr)

	// Every higher bump must have landed on the curve.
	for b := 255; b > int(bump); b-- {
		h := pdaHash(seeds, byte(b), program)
		assert.True(t, isOnCurve(h[:]), "bump %d should be on curve", b)
	}
}

func TestIsOnCurve(t *testing.T) {
	base := make([]byte, 32)
	base[0] = 1 // identity point encoding
	assert.True(t, isOnCurve(base))
	assert.False(t, isOnCurve([]byte{1, 2, 3}))
}

func TestParseMetadataAccount(t *testing.T) {
	meta, err := ParseMetadataAccount(metadataAccount(t, "Alpha", "ALP", "https://ipfs.io/ipfs/QmAlpha"))
	require.NoError(t, err)

	assert.Equal(t, "Alpha", meta.Name)
	assert.Equal(t, "ALP", meta.Symbol)
	assert.Equal(t, "https://ipfs.io/ipfs/QmAlpha", meta.URI)
	assert.Equal(t, testMint, meta.Mint)
	assert.Equal(t, testAuthority, meta.UpdateAuthority)
}

func TestParseMetadataAccount_Rejects(t *testing.T) {
	_, err := ParseMetadataAccount("!!!")
	assert.Error(t, err)

	_, err = ParseMetadataAccount(base64.StdEncoding.EncodeToString([]byte{4, 1, 2}))
	assert.ErrorIs(t, err, errShortAccount)

	raw, _ := base64.StdEncoding.DecodeString(metadataAccount(t, "A", "B", "C"))
	raw[0] = 9
	_, err = ParseMetadataAccount(base64.StdEncoding.EncodeToString(raw))
	assert.ErrorContains(t, err, "unexpected account key")

	// Truncated inside the uri string.
	raw, _ = base64.StdEncoding.DecodeString(metadataAccount(t, "A", "B", "C"))
	_, err = ParseMetadataAccount(base64.StdEncoding.EncodeToString(raw[:len(raw)-50]))
	assert.ErrorIs(t, err, errShortAccount)
}

func TestParseMintAccount(t *testing.T) {
	info, err := ParseMintAccount(mintAccount(t, 1_000_000_000_000_000, 6, false))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000_000_000), info.Supply)
	assert.Equal(t, 6, info.Decimals)
	assert.True(t, info.Initialized)
	assert.Empty(t, info.MintAuthority)
	assert.Empty(t, info.FreezeAuthority)

	info, err = ParseMintAccount(mintAccount(t, 1, 9, true))
	require.NoError(t, err)
	assert.Equal(t, testAuthority, info.MintAuthority)

	_, err = ParseMintAccount(base64.StdEncoding.EncodeToString(make([]byte, 10)))
	assert.ErrorIs(t, err, errShortAccount)
}

func TestVerifier_Verify(t *testing.T) {
	pda, err := DeriveMetadataPDA(testMint)
	require.NoError(t, err)

	blockTime := int64(1700000000)
	rpc := stub.NewRPCClient()
	rpc.Accounts[testMint] = &solana.AccountInfo{Lamports: 1461600, Owner: testAuthority, Data: mintAccount(t, 10, 6, false)}
	rpc.Accounts[pda] = &solana.AccountInfo{Lamports: 5616720, Owner: MetaplexProgramID, Data: metadataAccount(t, "Alpha", "ALP", "ipfs://QmAlpha")}
	for i := 0; i < 8; i++ {
		rpc.Signatures[testMint] = append(rpc.Signatures[testMint], solana.SignatureInfo{
			Signature: strings.Repeat("s", i+1), Slot: int64(100 + i), BlockTime: &blockTime,
		})
	}

	report, err := NewVerifier(rpc).Verify(context.Background(), testMint)
	require.NoError(t, err)

	assert.True(t, report.Verified())
	assert.Equal(t, uint64(1461600), report.MintAccount.Lamports)
	assert.Equal(t, pda, report.MetadataAccount.Address)
	require.NotNil(t, report.MintInfo)
	assert.Equal(t, 6, report.MintInfo.Decimals)
	require.NotNil(t, report.Metadata)
	assert.Equal(t, "Alpha", report.Metadata.Name)
	assert.Len(t, report.RecentSignatures, DefaultSignatureLimit)
	assert.Empty(t, report.Warnings)
	assert.Nil(t, report.URIMatch)
}

func TestVerifier_Verify_MissingAccounts(t *testing.T) {
	rpc := stub.NewRPCClient()

	report, err := NewVerifier(rpc).Verify(context.Background(), testMint)
	require.NoError(t, err)

	assert.False(t, report.Verified())
	assert.False(t, report.MintAccount.Exists)
	assert.False(t, report.MetadataAccount.Exists)
	assert.Nil(t, report.Metadata)
	assert.NotNil(t, report.RecentSignatures)
	assert.Empty(t, report.RecentSignatures)
}

func TestVerifier_Verify_UndecodableDataIsWarning(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Accounts[testMint] = &solana.AccountInfo{Lamports: 1, Data: "AAAA"}

	report, err := NewVerifier(rpc).Verify(context.Background(), testMint)
	require.NoError(t, err)

	assert.True(t, report.MintAccount.Exists)
	assert.Nil(t, report.MintInfo)
	assert.Len(t, report.Warnings, 1)
}

func TestVerifier_Verify_Errors(t *testing.T) {
	_, err := NewVerifier(stub.NewRPCClient()).Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidMint)

	rpc := stub.NewRPCClient()
	rpc.Err = errors.New("rpc down")
	_, err = NewVerifier(rpc).Verify(context.Background(), testMint)
	assert.ErrorContains(t, err, "get mint account")
	assert.Empty(t, rpc.Calls[1:])
}

func TestVerifier_VerifyCandidate_URIMatch(t *testing.T) {
	pda, err := DeriveMetadataPDA(testMint)
	require.NoError(t, err)

	rpc := stub.NewRPCClient()
	rpc.Accounts[pda] = &solana.AccountInfo{Data: metadataAccount(t, "Alpha", "ALP", "https://gw.example/ipfs/QmAlpha")}
	v := NewVerifier(rpc)

	report, err := v.VerifyCandidate(context.Background(), &domain.Candidate{Mint: testMint, URI: "ipfs://QmAlpha"})
	require.NoError(t, err)
	require.NotNil(t, report.URIMatch)
	assert.True(t, *report.URIMatch)

	report, err = v.VerifyCandidate(context.Background(), &domain.Candidate{Mint: testMint, URI: "ipfs://QmOther"})
	require.NoError(t, err)
	require.NotNil(t, report.URIMatch)
	assert.False(t, *report.URIMatch)
}
