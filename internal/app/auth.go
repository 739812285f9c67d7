package app

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"strconv"

	"fairdeck/internal/codec"
	"fairdeck/internal/state"
)

const txAuthDomain = "fairdeck/tx/v0"

func txSignBytes(typ string, value []byte, nonce uint64, signer string) []byte {
	// signBytes = DOMAIN || 0x00 || type || 0x00 || nonce || 0x00 || signer || 0x00 || sha256(value)
	n := strconv.FormatUint(nonce, 10)
	sum := sha256.Sum256(value)
	out := make([]byte, 0, len(txAuthDomain)+1+len(typ)+1+len(n)+1+len(signer)+1+sha256.Size)
	out = append(out, []byte(txAuthDomain)...)
	out = append(out, 0)
	out = append(out, []byte(typ)...)
	out = append(out, 0)
	out = append(out, []byte(n)...)
	out = append(out, 0)
	out = append(out, []byte(signer)...)
	out = append(out, 0)
	out = append(out, sum[:]...)
	return out
}

func requireSignedEnvelope(env codec.TxEnvelope) error {
	if env.Nonce == 0 {
		return fmt.Errorf("missing tx.nonce")
	}
	if env.Signer == "" {
		return fmt.Errorf("missing tx.signer")
	}
	if len(env.Sig) == 0 {
		return fmt.Errorf("missing tx.sig")
	}
	if len(env.Sig) != ed25519.SignatureSize {
		return fmt.Errorf("invalid tx.sig length: got %d want %d", len(env.Sig), ed25519.SignatureSize)
	}
	return nil
}

// requireFreshNonce enforces strictly increasing nonces per signer and
// records the accepted one. It runs on the staged state, so a tx that
// fails after authentication does not burn its nonce.
func requireFreshNonce(st *state.State, env codec.TxEnvelope) error {
	if env.Nonce <= st.NonceMax[env.Signer] {
		return fmt.Errorf("stale tx.nonce %d for signer %q (last accepted %d)",
			env.Nonce, env.Signer, st.NonceMax[env.Signer])
	}
	st.NonceMax[env.Signer] = env.Nonce
	return nil
}

// requireRegisterAccountAuth verifies a self-signed registration: the
// envelope signature must check out against the key being registered.
func requireRegisterAccountAuth(st *state.State, env codec.TxEnvelope, msg codec.AuthRegisterAccountTx) error {
	if msg.Account == "" {
		return fmt.Errorf("missing account")
	}
	if len(msg.PubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("pubKey must be %d bytes", ed25519.PublicKeySize)
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != msg.Account {
		return fmt.Errorf("tx signer mismatch: signer=%q want=%q", env.Signer, msg.Account)
	}
	if existing, ok := st.AccountKeys[msg.Account]; ok && !bytes.Equal(existing, msg.PubKey) {
		return fmt.Errorf("account %q already registered with a different key", msg.Account)
	}
	msgBytes := txSignBytes(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(ed25519.PublicKey(msg.PubKey), msgBytes, env.Sig) {
		return fmt.Errorf("invalid signature")
	}
	return requireFreshNonce(st, env)
}

// requireAccountAuth verifies that the envelope was signed by the
// registered key of account, and that account is the actor the payload
// claims. Every operation handler that acts on behalf of a named party
// runs this before touching state.
func requireAccountAuth(st *state.State, env codec.TxEnvelope, account string) error {
	if account == "" {
		return fmt.Errorf("missing account")
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != account {
		return fmt.Errorf("tx signer mismatch: signer=%q want=%q", env.Signer, account)
	}
	pub := st.AccountKeys[account]
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("account %q missing pubKey (auth/register_account required)", account)
	}
	msgBytes := txSignBytes(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(ed25519.PublicKey(pub), msgBytes, env.Sig) {
		return fmt.Errorf("invalid signature")
	}
	return requireFreshNonce(st, env)
}
