package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"fairdeck/internal/codec"
)

// State is one process's full persisted state. Bank-side and
// player-side registers coexist in the same struct; the role gates
// which handlers touch which fields, never control flow inference.
type State struct {
	Height int64 `json:"height"`

	// Identity and protocol parameters, fixed at genesis.
	ChainID      string `json:"chainId"`
	BankChainID  string `json:"bankChainId"`
	Owner        string `json:"owner"`
	MasterSeed   uint64 `json:"masterSeed,omitempty"`
	FaucetAmount uint64 `json:"faucetAmount,omitempty"`

	// Bank chain registers.
	HouseBalance uint64                  `json:"houseBalance,omitempty"`
	GameCounter  uint64                  `json:"gameCounter,omitempty"`
	PendingGames map[uint64]*PendingGame `json:"pendingGames"`

	// Player chain registers.
	PlayerBalance     uint64           `json:"playerBalance,omitempty"`
	PendingChipGrants uint64           `json:"pendingChipGrants,omitempty"`
	ActiveGame        *ActiveGame      `json:"activeGame,omitempty"`
	PendingRoulette   *PendingRoulette `json:"pendingRoulette,omitempty"`
	PendingBaccarat   *PendingBaccarat `json:"pendingBaccarat,omitempty"`
	History           []GameRecord     `json:"history,omitempty"`

	// Operation tx authentication.
	AccountKeys map[string][]byte `json:"accountKeys,omitempty"` // account -> ed25519 pubkey (32 bytes)
	NonceMax    map[string]uint64 `json:"nonceMax,omitempty"`    // signer -> last accepted tx nonce

	// Multiplayer tables hosted on this process.
	NextTableID uint64                `json:"nextTableId"`
	Tables      map[uint64]*GameTable `json:"tables"`

	// Outbound message log, drained by the external transport.
	NextOutboxSeq uint64          `json:"nextOutboxSeq"`
	Outbox        []codec.Message `json:"outbox,omitempty"`
}

func NewState() *State {
	return &State{
		NextTableID:   1,
		PendingGames:  map[uint64]*PendingGame{},
		Tables:        map[uint64]*GameTable{},
		NextOutboxSeq: 1,
		AccountKeys:   map[string][]byte{},
		NonceMax:      map[string]uint64{},
	}
}

func normalize(s *State) {
	if s.PendingGames == nil {
		s.PendingGames = map[uint64]*PendingGame{}
	}
	if s.Tables == nil {
		s.Tables = map[uint64]*GameTable{}
	}
	if s.NextTableID == 0 {
		s.NextTableID = 1
	}
	if s.NextOutboxSeq == 0 {
		s.NextOutboxSeq = 1
	}
	if s.AccountKeys == nil {
		s.AccountKeys = map[string][]byte{}
	}
	if s.NonceMax == nil {
		s.NonceMax = map[string]uint64{}
	}
}

func Load(home string) (*State, error) {
	path := filepath.Join(home, "state.json")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	normalize(&st)
	return &st, nil
}

func (s *State) Save(home string) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("mkdir home: %w", err)
	}
	path := filepath.Join(home, "state.json")
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Clone returns a deep copy suitable for staged tx execution: handlers
// mutate the clone and the app commits it only when the whole
// transition succeeds, so a failed operation has no partial effect.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state clone: %w", err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode state clone: %w", err)
	}
	normalize(&out)
	return &out, nil
}

// IsBank reports whether this process is the settling authority. Bank
// identity is a comparison of configured values, never inferred.
func (s *State) IsBank() bool {
	return s.ChainID != "" && s.ChainID == s.BankChainID
}

// AllocateGameID hands out the next single-player game id. Single
// writer: only bank-side handlers call this.
func (s *State) AllocateGameID() uint64 {
	s.GameCounter++
	return s.GameCounter
}

// PushMessage appends an outbound message to the outbox with the next
// sequence number.
func (s *State) PushMessage(m codec.Message) {
	m.Seq = s.NextOutboxSeq
	s.NextOutboxSeq++
	s.Outbox = append(s.Outbox, m)
}

// PruneOutbox drops delivered messages with Seq <= upTo.
func (s *State) PruneOutbox(upTo uint64) {
	kept := s.Outbox[:0]
	for _, m := range s.Outbox {
		if m.Seq > upTo {
			kept = append(kept, m)
		}
	}
	s.Outbox = kept
}

// ---- Chip arithmetic ----
//
// All credits saturate rather than wrap; debits below zero are
// validation failures for the player balance and saturate for the
// house (the house absorbs shortfalls, it never underflows).

func SatAdd(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}

func SatSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

func (s *State) CreditPlayer(amount uint64) {
	s.PlayerBalance = SatAdd(s.PlayerBalance, amount)
}

func (s *State) DebitPlayer(amount uint64) error {
	if s.PlayerBalance < amount {
		return fmt.Errorf("insufficient balance: have=%d need=%d", s.PlayerBalance, amount)
	}
	s.PlayerBalance -= amount
	return nil
}

func (s *State) CreditHouse(amount uint64) {
	s.HouseBalance = SatAdd(s.HouseBalance, amount)
}

func (s *State) DebitHouse(amount uint64) {
	s.HouseBalance = SatSub(s.HouseBalance, amount)
}

// AppendRecord writes one history entry. History is append-only;
// entries are never mutated after insertion.
func (s *State) AppendRecord(r GameRecord) {
	s.History = append(s.History, r)
}

// AppHash hashes a normalized view of the state. encoding/json is not
// trusted for map key ordering here, so keyed maps are flattened into
// sorted slices first (same scheme as the rest of the hash chain).
func (s *State) AppHash() []byte {
	type pendingKV struct {
		ID   uint64       `json:"id"`
		Game *PendingGame `json:"game"`
	}
	type tableKV struct {
		ID    uint64     `json:"id"`
		Table *GameTable `json:"table"`
	}
	type accountKV struct {
		Account string `json:"account"`
		PubKey  []byte `json:"pubKey"`
	}
	type nonceKV struct {
		Signer string `json:"signer"`
		Nonce  uint64 `json:"nonce"`
	}

	pending := make([]pendingKV, 0, len(s.PendingGames))
	for id, g := range s.PendingGames {
		pending = append(pending, pendingKV{ID: id, Game: g})
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })

	tables := make([]tableKV, 0, len(s.Tables))
	for id, t := range s.Tables {
		tables = append(tables, tableKV{ID: id, Table: t})
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID < tables[j].ID })

	accounts := make([]accountKV, 0, len(s.AccountKeys))
	for k, v := range s.AccountKeys {
		accounts = append(accounts, accountKV{Account: k, PubKey: v})
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Account < accounts[j].Account })

	nonces := make([]nonceKV, 0, len(s.NonceMax))
	for k, v := range s.NonceMax {
		nonces = append(nonces, nonceKV{Signer: k, Nonce: v})
	}
	sort.Slice(nonces, func(i, j int) bool { return nonces[i].Signer < nonces[j].Signer })

	normalized := struct {
		Height          int64            `json:"height"`
		ChainID         string           `json:"chainId"`
		BankChainID     string           `json:"bankChainId"`
		Owner           string           `json:"owner"`
		MasterSeed      uint64           `json:"masterSeed"`
		FaucetAmount    uint64           `json:"faucetAmount"`
		HouseBalance    uint64           `json:"houseBalance"`
		GameCounter     uint64           `json:"gameCounter"`
		PendingGames      []pendingKV      `json:"pendingGames"`
		PlayerBalance     uint64           `json:"playerBalance"`
		PendingChipGrants uint64           `json:"pendingChipGrants"`
		ActiveGame        *ActiveGame      `json:"activeGame,omitempty"`
		PendingRoulette   *PendingRoulette `json:"pendingRoulette,omitempty"`
		PendingBaccarat   *PendingBaccarat `json:"pendingBaccarat,omitempty"`
		History           []GameRecord     `json:"history,omitempty"`
		NextTableID       uint64           `json:"nextTableId"`
		Tables            []tableKV        `json:"tables"`
		NextOutboxSeq     uint64           `json:"nextOutboxSeq"`
		Outbox            []codec.Message  `json:"outbox,omitempty"`
		AccountKeys       []accountKV      `json:"accountKeys,omitempty"`
		NonceMax          []nonceKV        `json:"nonceMax,omitempty"`
	}{
		Height:            s.Height,
		ChainID:           s.ChainID,
		BankChainID:       s.BankChainID,
		Owner:             s.Owner,
		MasterSeed:        s.MasterSeed,
		FaucetAmount:      s.FaucetAmount,
		HouseBalance:      s.HouseBalance,
		GameCounter:       s.GameCounter,
		PendingGames:      pending,
		PlayerBalance:     s.PlayerBalance,
		PendingChipGrants: s.PendingChipGrants,
		ActiveGame:        s.ActiveGame,
		PendingRoulette:   s.PendingRoulette,
		PendingBaccarat:   s.PendingBaccarat,
		History:           s.History,
		NextTableID:       s.NextTableID,
		Tables:            tables,
		NextOutboxSeq:     s.NextOutboxSeq,
		Outbox:            s.Outbox,
		AccountKeys:       accounts,
		NonceMax:          nonces,
	}

	b, _ := json.Marshal(normalized)
	sum := sha256.Sum256(b)
	return sum[:]
}
