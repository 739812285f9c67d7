package app

import (
	"context"
	"encoding/json"
	"testing"

	abci "github.com/cometbft/cometbft/abci/types"

	"fairdeck/internal/state"
)

func queryJSON(t *testing.T, a *testChain, path string, out any) {
	t.Helper()
	res, err := a.Query(context.Background(), &abci.QueryRequest{Path: path})
	if err != nil {
		t.Fatalf("query %s: %v", path, err)
	}
	if res.Code != 0 {
		t.Fatalf("query %s: code=%d log=%q", path, res.Code, res.Log)
	}
	if err := json.Unmarshal(res.Value, out); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}

func TestQueryBalance(t *testing.T) {
	player := newPlayerApp(t, "alice")
	var out struct {
		Owner   string `json:"owner"`
		Balance uint64 `json:"balance"`
	}
	queryJSON(t, player, "/balance", &out)
	if out.Owner != "alice" || out.Balance != 1_000 {
		t.Fatalf("balance view = %+v", out)
	}
}

// The /game view must never leak the dealer's hole card or the deck
// while the round is live.
func TestQueryGameHidesHoleCard(t *testing.T) {
	bank := newBankApp(t)
	player := newPlayerApp(t, "alice")

	mustOk(t, player.op(t, "casino/play", "alice", map[string]any{
		"player": "alice", "bet": 25,
	}))
	pump(t, player, bank)
	pump(t, bank, player)

	if player.st.ActiveGame.Phase != state.ActivePlayerTurn {
		t.Skip("dealt a natural for this seed")
	}

	var view map[string]any
	queryJSON(t, player, "/game", &view)

	up, ok := view["dealerUpCards"].([]any)
	if !ok || len(up) != 1 {
		t.Fatalf("dealer up cards = %v", view["dealerUpCards"])
	}
	if _, leaked := view["dealerHole"]; leaked {
		t.Fatal("hole card leaked")
	}
	if _, leaked := view["deck"]; leaked {
		t.Fatal("deck leaked")
	}
	hand, ok := view["playerHand"].([]any)
	if !ok || len(hand) != 2 {
		t.Fatalf("player hand = %v", view["playerHand"])
	}
}

func TestQueryHouse(t *testing.T) {
	bank := newBankApp(t)
	var out struct {
		HouseBalance uint64 `json:"houseBalance"`
	}
	queryJSON(t, bank, "/house", &out)
	if out.HouseBalance != 1_000_000 {
		t.Fatalf("house balance = %d", out.HouseBalance)
	}

	player := newPlayerApp(t, "alice")
	res, err := player.Query(context.Background(), &abci.QueryRequest{Path: "/house"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.Code == 0 {
		t.Fatal("/house must be bank-only")
	}
}
