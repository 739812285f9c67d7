package codec

import (
	"encoding/json"
	"fmt"

	"fairdeck/internal/engine"
)

// TxEnvelope is the transaction container.
//
// CometBFT transactions are opaque bytes; fairdeck uses JSON-encoded
// envelopes routed by Type. Operation txs come from the local CLI/UI
// and carry an ed25519 signature binding Type, Value, Nonce and Signer;
// msg/deliver txs come from the inter-process transport and are
// authenticated by the message's chain identity instead.
//
// Nonce must strictly increase per signer across accepted txs; a
// replayed envelope is rejected as stale.
type TxEnvelope struct {
	Type   string          `json:"type"`
	Value  json.RawMessage `json:"value"`
	Nonce  uint64          `json:"nonce,omitempty"`
	Signer string          `json:"signer,omitempty"`
	Sig    []byte          `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// Message is one inter-process message. Delivery is handled by the
// external transport, which drains the sender's outbox (reliable,
// ordered per sender/receiver pair) and submits a msg/deliver tx on
// the destination chain.
type Message struct {
	Seq   uint64          `json:"seq"`
	Type  string          `json:"type"`
	From  string          `json:"from"`
	To    string          `json:"to"`
	Value json.RawMessage `json:"value"`
}

// NewMessage builds an outbound message; Seq is assigned when the
// message is placed in the outbox.
func NewMessage(typ, from, to string, value any) (Message, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s message: %w", typ, err)
	}
	return Message{Type: typ, From: from, To: to, Value: b}, nil
}

// ---- Account registration ----

// AuthRegisterAccountTx binds an account name to an ed25519 public key.
// The envelope must be self-signed with the key being registered.
type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"`
}

// ---- Table operations (multiplayer, dealer-hosted) ----

type TableCreateTx struct {
	Dealer       string `json:"dealer"`
	MaxPlayers   uint8  `json:"maxPlayers"`
	MinBet       uint64 `json:"minBet"`
	VrfPublicKey []byte `json:"vrfPublicKey"`
	AllowMidJoin bool   `json:"allowMidJoin,omitempty"`
	RoundTimeout uint64 `json:"roundTimeoutSecs,omitempty"`
}

type TableJoinTx struct {
	Player     string `json:"player"`
	TableID    uint64 `json:"tableId"`
	Bet        uint64 `json:"bet"`
	Commitment []byte `json:"commitment"` // 32 bytes
}

type TableRevealTx struct {
	Player  string `json:"player"`
	TableID uint64 `json:"tableId"`
	Secret  []byte `json:"secret"`
}

type TableSubmitVrfTx struct {
	Dealer  string `json:"dealer"`
	TableID uint64 `json:"tableId"`
	Output  []byte `json:"output"` // 32 bytes
	Proof   []byte `json:"proof"`
	Message []byte `json:"message"`
}

type TableDealTx struct {
	Dealer  string `json:"dealer"`
	TableID uint64 `json:"tableId"`
}

type TableActTx struct {
	Player  string `json:"player"`
	TableID uint64 `json:"tableId"`
	Action  string `json:"action"` // hit|stand|double_down
}

type TableResolveTx struct {
	Dealer  string `json:"dealer"`
	TableID uint64 `json:"tableId"`
}

type TableCancelTx struct {
	Dealer  string `json:"dealer"`
	TableID uint64 `json:"tableId"`
}

// ---- Casino operations (single-player escrow path, player-side) ----

type CasinoRequestChipsTx struct {
	Player string `json:"player"`
}

type CasinoPlayTx struct {
	Player string `json:"player"`
	Bet    uint64 `json:"bet"`
}

// CasinoActTx covers casino/hit, casino/stand and casino/double_down.
type CasinoActTx struct {
	Player string `json:"player"`
}

type CasinoResetTx struct {
	Player string `json:"player"`
}

type CasinoPlayRouletteTx struct {
	Player string               `json:"player"`
	Bets   []engine.RouletteBet `json:"bets"`
}

type CasinoPlayBaccaratTx struct {
	Player  string `json:"player"`
	Amount  uint64 `json:"amount"`
	BetType string `json:"betType"` // player|banker|tie
}

// ---- Messages ----

const (
	// player -> bank
	MsgRequestChips    = "request_chips"
	MsgRequestGame     = "request_game"
	MsgReportResult    = "report_result"
	MsgRequestRoulette = "request_roulette"
	MsgRequestBaccarat = "request_baccarat"

	// bank -> player
	MsgChipsGranted    = "chips_granted"
	MsgGameReady       = "game_ready"
	MsgGameSettled     = "game_settled"
	MsgRouletteSettled = "roulette_settled"
	MsgBaccaratSettled = "baccarat_settled"
)

type RequestChipsMsg struct {
	Player      string `json:"player"`
	PlayerChain string `json:"playerChain"`
}

type RequestGameMsg struct {
	Player      string `json:"player"`
	PlayerChain string `json:"playerChain"`
	GameType    string `json:"gameType"`
	Bet         uint64 `json:"bet"`
}

type ReportResultMsg struct {
	GameID  uint64          `json:"gameId"`
	Player  string          `json:"player"`
	Actions []engine.Action `json:"actions"`
}

type RequestRouletteMsg struct {
	Player      string               `json:"player"`
	PlayerChain string               `json:"playerChain"`
	Bets        []engine.RouletteBet `json:"bets"`
}

type RequestBaccaratMsg struct {
	Player      string                 `json:"player"`
	PlayerChain string                 `json:"playerChain"`
	Amount      uint64                 `json:"amount"`
	BetType     engine.BaccaratBetKind `json:"betType"`
}

type ChipsGrantedMsg struct {
	Player string `json:"player"`
	Amount uint64 `json:"amount"`
}

type GameReadyMsg struct {
	GameID uint64 `json:"gameId"`
	Seed   uint64 `json:"seed"`
	Bet    uint64 `json:"bet"`
}

type GameSettledMsg struct {
	GameID     uint64        `json:"gameId"`
	Result     engine.Result `json:"result"`
	Payout     uint64        `json:"payout"`
	DealerHand []engine.Card `json:"dealerHand"`
}

type RouletteSettledMsg struct {
	GameID  uint64               `json:"gameId"`
	Outcome uint8                `json:"outcome"`
	Payout  uint64               `json:"payout"`
	Bets    []engine.RouletteBet `json:"bets"`
}

type BaccaratSettledMsg struct {
	GameID      uint64                 `json:"gameId"`
	Winner      engine.BaccaratBetKind `json:"winner"`
	Payout      uint64                 `json:"payout"`
	PlayerHand  []engine.Card          `json:"playerHand"`
	BankerHand  []engine.Card          `json:"bankerHand"`
	PlayerScore uint8                  `json:"playerScore"`
	BankerScore uint8                  `json:"bankerScore"`
	BetAmount   uint64                 `json:"betAmount"`
	BetType     engine.BaccaratBetKind `json:"betType"`
}
