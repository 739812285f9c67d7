package entropy

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommitVerifyRoundTrip(t *testing.T) {
	secret := []byte("swordfish")
	c := Commit(secret)
	require.True(t, VerifyReveal(secret, c))
	require.False(t, VerifyReveal([]byte("Swordfish"), c))
	require.False(t, VerifyReveal(nil, c))
}

func TestRevealedEntropyIsDomainSeparated(t *testing.T) {
	secret := []byte("swordfish")
	c := Commit(secret)
	r := Revealed(secret)
	// The contributed entropy must not equal the public commitment,
	// otherwise revealing adds nothing.
	require.NotEqual(t, c, r)
	require.Equal(t, Revealed(secret), r)
}

func TestVerifyVrf(t *testing.T) {
	pk := []byte("table-key")
	proof := []byte("proof-bytes")
	message := []byte("round-1")

	h := sha256.New()
	h.Write(pk)
	h.Write(proof)
	h.Write(message)
	var output [CommitmentSize]byte
	copy(output[:], h.Sum(nil))

	require.True(t, VerifyVrf(pk, proof, message, output))

	bad := output
	bad[0] ^= 1
	require.False(t, VerifyVrf(pk, proof, message, bad))
	require.False(t, VerifyVrf(pk, proof, []byte("round-2"), output))
	require.False(t, VerifyVrf([]byte("other-key"), proof, message, output))
}

func TestCombineRequiresEveryReveal(t *testing.T) {
	a := Revealed([]byte("a"))
	b := Revealed([]byte("b"))
	var vrf [CommitmentSize]byte
	vrf[0] = 9

	_, err := Combine(1, vrf, []*[CommitmentSize]byte{&a, nil})
	require.Error(t, err)

	out, err := Combine(1, vrf, []*[CommitmentSize]byte{&a, &b})
	require.NoError(t, err)

	// Order matters: the reveals fold in join order.
	swapped, err := Combine(1, vrf, []*[CommitmentSize]byte{&b, &a})
	require.NoError(t, err)
	require.NotEqual(t, out, swapped)

	// So does the game id.
	other, err := Combine(2, vrf, []*[CommitmentSize]byte{&a, &b})
	require.NoError(t, err)
	require.NotEqual(t, out, other)
}

func TestGameSeedVariesByInputs(t *testing.T) {
	base := GameSeed(42, 1, "alice", 1000)
	require.Equal(t, base, GameSeed(42, 1, "alice", 1000))
	require.NotEqual(t, base, GameSeed(43, 1, "alice", 1000))
	require.NotEqual(t, base, GameSeed(42, 2, "alice", 1000))
	require.NotEqual(t, base, GameSeed(42, 1, "bob", 1000))
	require.NotEqual(t, base, GameSeed(42, 1, "alice", 1001))
}

func TestSeedFromEntropyFoldsFourWords(t *testing.T) {
	var e [CommitmentSize]byte
	for i := range e {
		e[i] = byte(i * 7)
	}
	want := binary.LittleEndian.Uint64(e[0:8]) ^
		binary.LittleEndian.Uint64(e[8:16]) ^
		binary.LittleEndian.Uint64(e[16:24]) ^
		binary.LittleEndian.Uint64(e[24:32])
	require.Equal(t, want, SeedFromEntropy(e))
}

func TestFixedCommitmentLength(t *testing.T) {
	_, err := FixedCommitment(make([]byte, 31))
	require.Error(t, err)
	_, err = FixedCommitment(make([]byte, 33))
	require.Error(t, err)
	_, err = FixedCommitment(nil)
	require.Error(t, err)

	in := make([]byte, CommitmentSize)
	in[5] = 0xaa
	out, err := FixedCommitment(in)
	require.NoError(t, err)
	require.Equal(t, byte(0xaa), out[5])
}
