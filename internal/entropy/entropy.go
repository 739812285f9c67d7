// Package entropy holds the hashing protocol behind the table's shared
// seed: player hash commitments, the dealer's verifiable-random output,
// and the bank's one-shot per-game seeds. Every check here is exact;
// a value that does not reproduce bit-for-bit is rejected.
package entropy

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// CommitmentSize is the fixed length of commitments, reveals and VRF
// outputs. Inputs of any other length are rejected before hashing.
const CommitmentSize = 32

// revealSuffix domain-separates a player's table entropy from the
// commitment pre-image.
var revealSuffix = []byte(":entropy")

// Commit binds a secret: the commitment is sha256(secret).
func Commit(secret []byte) [CommitmentSize]byte {
	return sha256.Sum256(secret)
}

// VerifyReveal checks a revealed secret against its commitment.
func VerifyReveal(secret []byte, commitment [CommitmentSize]byte) bool {
	sum := sha256.Sum256(secret)
	return bytes.Equal(sum[:], commitment[:])
}

// Revealed derives the entropy contributed to the table seed from a
// verified secret.
func Revealed(secret []byte) [CommitmentSize]byte {
	salted := make([]byte, 0, len(secret)+len(revealSuffix))
	salted = append(salted, secret...)
	salted = append(salted, revealSuffix...)
	return sha256.Sum256(salted)
}

// VrfRecord is the dealer's verifiable-random submission for one table.
type VrfRecord struct {
	Provider  string               `json:"provider"`
	PublicKey []byte               `json:"publicKey"`
	Output    [CommitmentSize]byte `json:"output"`
	Proof     []byte               `json:"proof"`
	Message   []byte               `json:"message"`
}

// VerifyVrf checks that output is exactly the digest bound to
// (publicKey, proof, message).
func VerifyVrf(publicKey, proof, message []byte, output [CommitmentSize]byte) bool {
	h := sha256.New()
	h.Write(publicKey)
	h.Write(proof)
	h.Write(message)
	return bytes.Equal(h.Sum(nil), output[:])
}

// Combine folds the game id, the VRF output and every player's revealed
// entropy (in join order) into the table seed with one running hash.
// A missing reveal fails the whole combination: the table cannot
// proceed without full participation.
func Combine(gameID uint64, vrfOutput [CommitmentSize]byte, revealed []*[CommitmentSize]byte) ([CommitmentSize]byte, error) {
	var out [CommitmentSize]byte
	h := sha256.New()
	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], gameID)
	h.Write(id[:])
	h.Write(vrfOutput[:])
	for i, r := range revealed {
		if r == nil {
			return out, fmt.Errorf("player %d has not revealed", i)
		}
		h.Write(r[:])
	}
	copy(out[:], h.Sum(nil))
	return out, nil
}

// GameSeed derives the bank's one-shot seed for a single-player game.
// There is only one contributing party, so no commit-reveal round is
// needed; unpredictability comes from the bank's master seed.
func GameSeed(masterSeed uint64, gameID uint64, player string, nowUnix int64) uint64 {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], masterSeed)
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], gameID)
	h.Write(buf[:])
	h.Write([]byte(player))
	binary.LittleEndian.PutUint64(buf[:], uint64(nowUnix))
	h.Write(buf[:])
	return binary.LittleEndian.Uint64(h.Sum(nil)[:8])
}

// SeedFromEntropy folds 32 bytes of combined entropy into the engine's
// 64-bit generator state by xoring the four words together.
func SeedFromEntropy(e [CommitmentSize]byte) uint64 {
	var seed uint64
	for i := 0; i < CommitmentSize; i += 8 {
		seed ^= binary.LittleEndian.Uint64(e[i : i+8])
	}
	return seed
}

// FixedCommitment converts a wire field into a fixed-length commitment,
// rejecting wrong lengths before any hashing happens.
func FixedCommitment(b []byte) ([CommitmentSize]byte, error) {
	var out [CommitmentSize]byte
	if len(b) != CommitmentSize {
		return out, fmt.Errorf("expected %d bytes, got %d", CommitmentSize, len(b))
	}
	copy(out[:], b)
	return out, nil
}
