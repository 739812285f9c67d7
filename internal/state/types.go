package state

import (
	"fairdeck/internal/engine"
	"fairdeck/internal/entropy"
)

// ---- Multiplayer table ----

type TablePhase string

const (
	PhaseLobby       TablePhase = "lobby"
	PhaseReveal      TablePhase = "reveal"
	PhaseAwaitingVrf TablePhase = "awaitingVrf"
	PhaseReadyToDeal TablePhase = "readyToDeal"
	PhasePlayerTurns TablePhase = "playerTurns"
	PhaseDealerTurn  TablePhase = "dealerTurn"
	PhaseSettled     TablePhase = "settled"
	PhaseCancelled   TablePhase = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (p TablePhase) Terminal() bool {
	return p == PhaseSettled || p == PhaseCancelled
}

type PlayerStatus string

const (
	StatusPending   PlayerStatus = "pending"
	StatusActive    PlayerStatus = "active"
	StatusBlackjack PlayerStatus = "blackjack"
	StatusStood     PlayerStatus = "stood"
	StatusBusted    PlayerStatus = "busted"
	StatusSettled   PlayerStatus = "settled"
)

type TableConfig struct {
	Dealer       string `json:"dealer"`
	MaxPlayers   uint8  `json:"maxPlayers"`
	MinBet       uint64 `json:"minBet"`
	VrfPublicKey []byte `json:"vrfPublicKey"`
	AllowMidJoin bool   `json:"allowMidJoin,omitempty"`
	RoundTimeout uint64 `json:"roundTimeoutSecs,omitempty"`
}

// RoundOutcome is a settled player's result. WinMultiplier is in
// percentage points: +150 blackjack, +100 win, 0 push, -100 loss.
type RoundOutcome struct {
	FinalValue    uint8 `json:"finalValue"`
	DealerValue   uint8 `json:"dealerValue"`
	WinMultiplier int16 `json:"winMultiplier"`
}

type PlayerEntry struct {
	Bet             uint64                        `json:"bet"`
	Commitment      [entropy.CommitmentSize]byte  `json:"commitment"`
	RevealedEntropy *[entropy.CommitmentSize]byte `json:"revealedEntropy,omitempty"`
	Hand            []engine.Card                 `json:"hand"`
	Status          PlayerStatus                  `json:"status"`
	LastAction      *engine.Action                `json:"lastAction,omitempty"`
	Result          *RoundOutcome                 `json:"result,omitempty"`
}

type GameTable struct {
	ID              uint64                        `json:"id"`
	Config          TableConfig                   `json:"config"`
	Phase           TablePhase                    `json:"phase"`
	Players         map[string]*PlayerEntry       `json:"players"`
	JoinSequence    []string                      `json:"joinSequence"`
	TurnOrder       []string                      `json:"turnOrder"`
	DealerHand      []engine.Card                 `json:"dealerHand"`
	Deck            []engine.Card                 `json:"deck"`
	CombinedEntropy *[entropy.CommitmentSize]byte `json:"combinedEntropy,omitempty"`
	Vrf             *entropy.VrfRecord            `json:"vrf,omitempty"`
	LastUpdatedAt   int64                         `json:"lastUpdatedAt"` // block height
}

// ---- Single-player escrow path ----

type GameType string

const (
	GameBlackjack GameType = "blackjack"
	GameRoulette  GameType = "roulette"
	GameBaccarat  GameType = "baccarat"
)

// PendingGame is the bank's escrow record for one outstanding round.
// It is inserted when the game request arrives and removed exactly once
// at settlement; a report with no matching entry fails closed.
type PendingGame struct {
	Player      string   `json:"player"`
	PlayerChain string   `json:"playerChain"`
	GameType    GameType `json:"gameType"`
	Bet         uint64   `json:"bet"`
	Seed        uint64   `json:"seed"`
	CreatedAt   int64    `json:"createdAt"` // unix seconds
}

type ActivePhase string

const (
	ActiveAwaitingSeed       ActivePhase = "awaitingSeed"
	ActivePlayerTurn         ActivePhase = "playerTurn"
	ActiveAwaitingSettlement ActivePhase = "awaitingSettlement"
	ActiveRoundComplete      ActivePhase = "roundComplete"
)

// Terminal reports whether the player may start a new game or reset.
func (p ActivePhase) Terminal() bool {
	return p == ActiveRoundComplete
}

// ActiveGame is the player's local round. Round carries the hands,
// deck and withheld hole card; Actions is the ordered log the bank
// replays, so it must record every decision in the order taken.
type ActiveGame struct {
	GameID   uint64                 `json:"gameId"`
	Seed     uint64                 `json:"seed"`
	Bet      uint64                 `json:"bet"`
	GameType GameType               `json:"gameType"`
	Phase    ActivePhase            `json:"phase"`
	Round    *engine.BlackjackRound `json:"round,omitempty"`
	Actions  []engine.Action        `json:"actions,omitempty"`

	// Authoritative settlement echoed by the bank.
	Result     *engine.Result `json:"result,omitempty"`
	Payout     uint64         `json:"payout,omitempty"`
	DealerHand []engine.Card  `json:"settledDealerHand,omitempty"`
}

// PendingRoulette is the player's local snapshot of an in-flight spin,
// shown before the bank's settlement arrives.
type PendingRoulette struct {
	Bets    []engine.RouletteBet `json:"bets"`
	Settled bool                 `json:"settled"`
	GameID  uint64               `json:"gameId,omitempty"`
	Outcome *uint8               `json:"outcome,omitempty"`
	Payout  uint64               `json:"payout,omitempty"`
}

// PendingBaccarat is the player's local snapshot of an in-flight coup.
// It doubles as the settlement guard: a baccarat_settled message with
// no unsettled snapshot fails closed, so a duplicated delivery cannot
// pay twice.
type PendingBaccarat struct {
	BetType engine.BaccaratBetKind  `json:"betType"`
	Amount  uint64                  `json:"amount"`
	Settled bool                    `json:"settled"`
	GameID  uint64                  `json:"gameId,omitempty"`
	Winner  *engine.BaccaratBetKind `json:"winner,omitempty"`
	Payout  uint64                  `json:"payout,omitempty"`
}

// GameRecord is one append-only history entry; never mutated after
// insertion.
type GameRecord struct {
	GameID     uint64        `json:"gameId"`
	GameType   GameType      `json:"gameType"`
	PlayerHand []engine.Card `json:"playerHand,omitempty"`
	DealerHand []engine.Card `json:"dealerHand,omitempty"`
	Bet        uint64        `json:"bet"`
	Result     string        `json:"result"`
	Payout     uint64        `json:"payout"`
	Timestamp  int64         `json:"timestamp"` // unix seconds

	RouletteBets    []engine.RouletteBet `json:"rouletteBets,omitempty"`
	RouletteOutcome *uint8               `json:"rouletteOutcome,omitempty"`
}
