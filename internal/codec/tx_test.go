package codec

import (
	"encoding/json"
	"testing"
)

func TestDecodeTxEnvelope(t *testing.T) {
	env, err := DecodeTxEnvelope([]byte(`{"type":"casino/play","value":{"player":"alice","bet":5}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != "casino/play" {
		t.Fatalf("type = %q", env.Type)
	}
	var msg CasinoPlayTx
	if err := json.Unmarshal(env.Value, &msg); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if msg.Player != "alice" || msg.Bet != 5 {
		t.Fatalf("value = %+v", msg)
	}
}

func TestDecodeTxEnvelopeRejectsGarbage(t *testing.T) {
	if _, err := DecodeTxEnvelope([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid json")
	}
	if _, err := DecodeTxEnvelope([]byte(`{"value":{}}`)); err == nil {
		t.Fatal("expected error for missing type")
	}
}

func TestNewMessage(t *testing.T) {
	m, err := NewMessage(MsgRequestChips, "alice-chain", "bank", RequestChipsMsg{Player: "alice", PlayerChain: "alice-chain"})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if m.Seq != 0 {
		t.Fatalf("seq assigned too early: %d", m.Seq)
	}
	if m.Type != MsgRequestChips || m.From != "alice-chain" || m.To != "bank" {
		t.Fatalf("message = %+v", m)
	}
	var payload RequestChipsMsg
	if err := json.Unmarshal(m.Value, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Player != "alice" {
		t.Fatalf("payload = %+v", payload)
	}
}
