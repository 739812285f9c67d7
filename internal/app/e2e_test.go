package app

import (
	"testing"

	"fairdeck/internal/codec"
	"fairdeck/internal/engine"
	"fairdeck/internal/entropy"
	"fairdeck/internal/state"
)

// totalChips sums value across both processes. Every settlement moves
// chips between the two books; nothing may mint or burn.
func totalChips(bank, player *testChain) uint64 {
	return bank.st.HouseBalance + player.st.PlayerBalance
}

func TestChipsFaucetRoundTrip(t *testing.T) {
	bank := newBankApp(t)
	player := newPlayerApp(t, "alice")
	before := totalChips(bank, player)

	mustOk(t, player.op(t, "casino/request_chips", "alice", map[string]any{
		"player": "alice",
	}))
	pump(t, player, bank)
	pump(t, bank, player)

	if player.st.PlayerBalance != 1_100 {
		t.Fatalf("player balance = %d", player.st.PlayerBalance)
	}
	if bank.st.HouseBalance != 999_900 {
		t.Fatalf("house balance = %d", bank.st.HouseBalance)
	}
	if got := totalChips(bank, player); got != before {
		t.Fatalf("chips not conserved: %d -> %d", before, got)
	}
}

func TestDuplicateChipGrantRejected(t *testing.T) {
	bank := newBankApp(t)
	player := newPlayerApp(t, "alice")

	mustOk(t, player.op(t, "casino/request_chips", "alice", map[string]any{
		"player": "alice",
	}))
	pump(t, player, bank)

	grant := bank.st.Outbox[0]
	pump(t, bank, player)
	if player.st.PlayerBalance != 1_100 {
		t.Fatalf("player balance = %d", player.st.PlayerBalance)
	}

	// The transport may redeliver; a second copy of the same grant must
	// not mint chips.
	mustFail(t, player.deliverTx(txBytes(t, "msg/deliver", grant), testHeight, testNow))
	if player.st.PlayerBalance != 1_100 {
		t.Fatalf("duplicate grant minted chips: balance = %d", player.st.PlayerBalance)
	}
}

func TestBlackjackEscrowRoundTrip(t *testing.T) {
	bank := newBankApp(t)
	player := newPlayerApp(t, "alice")
	before := totalChips(bank, player)

	const bet = uint64(50)
	mustOk(t, player.op(t, "casino/play", "alice", map[string]any{
		"player": "alice", "bet": bet,
	}))
	if player.st.PlayerBalance != 1_000-bet {
		t.Fatalf("stake not escrowed: balance = %d", player.st.PlayerBalance)
	}
	if player.st.ActiveGame.Phase != state.ActiveAwaitingSeed {
		t.Fatalf("phase = %s", player.st.ActiveGame.Phase)
	}

	// A second game cannot start while one is open.
	mustFail(t, player.op(t, "casino/play", "alice", map[string]any{
		"player": "alice", "bet": bet,
	}))

	pump(t, player, bank) // request_game
	if len(bank.st.PendingGames) != 1 {
		t.Fatalf("pending games = %d", len(bank.st.PendingGames))
	}
	pump(t, bank, player) // game_ready

	g := player.st.ActiveGame
	gameID := g.GameID
	seed := g.Seed
	if g.Round == nil {
		t.Fatal("round not dealt")
	}

	// Play the round: stand unless dealt a natural.
	if g.Phase == state.ActivePlayerTurn {
		mustOk(t, player.op(t, "casino/stand", "alice", map[string]any{
			"player": "alice",
		}))
	}
	g = player.st.ActiveGame
	if g.Phase != state.ActiveAwaitingSettlement {
		t.Fatalf("phase = %s", g.Phase)
	}
	actions := append([]engine.Action(nil), g.Actions...)

	pump(t, player, bank) // report_result
	if len(bank.st.PendingGames) != 0 {
		t.Fatal("pending game not consumed at settlement")
	}
	pump(t, bank, player) // game_settled

	g = player.st.ActiveGame
	if g.Phase != state.ActiveRoundComplete {
		t.Fatalf("phase = %s", g.Phase)
	}

	// The bank's verdict must equal an independent replay.
	replayed, err := engine.ReplayBlackjack(seed, bet, actions)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if g.Result == nil || *g.Result != replayed.Result {
		t.Fatalf("result = %v, replay says %s", g.Result, replayed.Result)
	}
	if g.Payout != replayed.Payout() {
		t.Fatalf("payout = %d, replay says %d", g.Payout, replayed.Payout())
	}
	if len(g.DealerHand) != len(replayed.DealerHand) {
		t.Fatalf("dealer hands differ: %v vs %v", g.DealerHand, replayed.DealerHand)
	}
	for i := range g.DealerHand {
		if g.DealerHand[i] != replayed.DealerHand[i] {
			t.Fatalf("dealer hands differ at %d", i)
		}
	}

	if got := totalChips(bank, player); got != before {
		t.Fatalf("chips not conserved: %d -> %d", before, got)
	}
	if len(player.st.History) != 1 {
		t.Fatalf("history entries = %d", len(player.st.History))
	}

	// A duplicate report finds no pending game and fails closed.
	dup := codec.Message{
		Seq:  999,
		Type: codec.MsgReportResult,
		From: "alice-chain",
		To:   "bank",
		Value: mustMarshal(t, codec.ReportResultMsg{
			GameID:  gameID,
			Player:  "alice",
			Actions: actions,
		}),
	}
	res := mustFail(t, bank.deliverTx(txBytes(t, "msg/deliver", dup), testHeight, testNow))
	if res.Log != "game not found" {
		t.Fatalf("log = %q", res.Log)
	}

	// The round stays queryable until the owner resets.
	mustOk(t, player.op(t, "casino/reset", "alice", map[string]any{
		"player": "alice",
	}))
	if player.st.ActiveGame != nil {
		t.Fatal("reset did not clear the round")
	}
}

func TestDoubleDownEscrowsExtraStake(t *testing.T) {
	bank := newBankApp(t)
	player := newPlayerApp(t, "alice")
	before := totalChips(bank, player)

	const bet = uint64(100)
	mustOk(t, player.op(t, "casino/play", "alice", map[string]any{
		"player": "alice", "bet": bet,
	}))
	pump(t, player, bank)
	pump(t, bank, player)

	if player.st.ActiveGame.Phase != state.ActivePlayerTurn {
		t.Skip("dealt a natural for this seed")
	}

	balanceBefore := player.st.PlayerBalance
	mustOk(t, player.op(t, "casino/double_down", "alice", map[string]any{
		"player": "alice",
	}))
	if player.st.PlayerBalance != balanceBefore-bet {
		t.Fatalf("extra stake not escrowed: %d -> %d", balanceBefore, player.st.PlayerBalance)
	}
	if player.st.ActiveGame.Round.Bet != 2*bet {
		t.Fatalf("round bet = %d", player.st.ActiveGame.Round.Bet)
	}

	pump(t, player, bank)
	pump(t, bank, player)

	if player.st.ActiveGame.Phase != state.ActiveRoundComplete {
		t.Fatalf("phase = %s", player.st.ActiveGame.Phase)
	}
	if got := totalChips(bank, player); got != before {
		t.Fatalf("chips not conserved: %d -> %d", before, got)
	}
}

func TestDoubleDownFailsWithoutFunds(t *testing.T) {
	bank := newBankApp(t)
	player := newPlayerApp(t, "alice")

	// Stake the whole balance; nothing is left for the double.
	mustOk(t, player.op(t, "casino/play", "alice", map[string]any{
		"player": "alice", "bet": 1_000,
	}))
	pump(t, player, bank)
	pump(t, bank, player)

	if player.st.ActiveGame.Phase != state.ActivePlayerTurn {
		t.Skip("dealt a natural for this seed")
	}

	mustFail(t, player.op(t, "casino/double_down", "alice", map[string]any{
		"player": "alice",
	}))

	// The failed double must leave no trace: no logged action, no card.
	g := player.st.ActiveGame
	if len(g.Actions) != 0 {
		t.Fatalf("actions = %v", g.Actions)
	}
	if len(g.Round.PlayerHand) != 2 {
		t.Fatalf("hand = %v", g.Round.PlayerHand)
	}

	// The round is still playable.
	mustOk(t, player.op(t, "casino/stand", "alice", map[string]any{
		"player": "alice",
	}))
}

func TestRouletteNumberBetPaysThirtySixTimes(t *testing.T) {
	bank := newBankApp(t)
	player := newPlayerApp(t, "alice")
	before := totalChips(bank, player)

	// The first bank game gets id 1; the winning pocket is a pure
	// function of (master seed, game id, player, time), all fixed here.
	seed := entropy.GameSeed(42, 1, "alice", testNow)
	winning := engine.SpinWheel(seed)

	mustOk(t, player.op(t, "casino/play_roulette", "alice", map[string]any{
		"player": "alice",
		"bets":   []engine.RouletteBet{{Kind: engine.RouletteNumber, Number: winning, Amount: 10}},
	}))
	if player.st.PlayerBalance != 990 {
		t.Fatalf("stake not escrowed: %d", player.st.PlayerBalance)
	}

	// Only one spin may be in flight.
	mustFail(t, player.op(t, "casino/play_roulette", "alice", map[string]any{
		"player": "alice",
		"bets":   []engine.RouletteBet{{Kind: engine.RouletteRed, Amount: 10}},
	}))

	pump(t, player, bank)
	pump(t, bank, player)

	if player.st.PlayerBalance != 990+360 {
		t.Fatalf("balance = %d", player.st.PlayerBalance)
	}
	pr := player.st.PendingRoulette
	if pr == nil || !pr.Settled || pr.Outcome == nil || *pr.Outcome != winning {
		t.Fatalf("pending roulette = %+v", pr)
	}
	if got := totalChips(bank, player); got != before {
		t.Fatalf("chips not conserved: %d -> %d", before, got)
	}
	if len(player.st.History) != 1 {
		t.Fatalf("history entries = %d", len(player.st.History))
	}
}

func TestBaccaratSettlesInOneTurn(t *testing.T) {
	bank := newBankApp(t)
	player := newPlayerApp(t, "alice")
	before := totalChips(bank, player)

	seed := entropy.GameSeed(42, 1, "alice", testNow)
	outcome, err := engine.PlayBaccarat(seed)
	if err != nil {
		t.Fatalf("play baccarat: %v", err)
	}
	expected := engine.SettleBaccarat(100, engine.BaccaratBanker, outcome.Winner)

	mustOk(t, player.op(t, "casino/play_baccarat", "alice", map[string]any{
		"player": "alice", "amount": 100, "betType": "banker",
	}))
	if player.st.PlayerBalance != 900 {
		t.Fatalf("stake not escrowed: %d", player.st.PlayerBalance)
	}

	// Only one coup may be in flight.
	mustFail(t, player.op(t, "casino/play_baccarat", "alice", map[string]any{
		"player": "alice", "amount": 50, "betType": "player",
	}))

	pump(t, player, bank)
	pump(t, bank, player)

	if player.st.PlayerBalance != 900+expected {
		t.Fatalf("balance = %d, expected %d", player.st.PlayerBalance, 900+expected)
	}
	if got := totalChips(bank, player); got != before {
		t.Fatalf("chips not conserved: %d -> %d", before, got)
	}
	if len(player.st.History) != 1 {
		t.Fatalf("history entries = %d", len(player.st.History))
	}
	rec := player.st.History[0]
	if rec.GameType != state.GameBaccarat || rec.Payout != expected {
		t.Fatalf("record = %+v", rec)
	}
	pb := player.st.PendingBaccarat
	if pb == nil || !pb.Settled || pb.Winner == nil || *pb.Winner != outcome.Winner {
		t.Fatalf("pending baccarat = %+v", pb)
	}
}

func TestDuplicateBaccaratSettlementRejected(t *testing.T) {
	bank := newBankApp(t)
	player := newPlayerApp(t, "alice")
	before := totalChips(bank, player)

	mustOk(t, player.op(t, "casino/play_baccarat", "alice", map[string]any{
		"player": "alice", "amount": 100, "betType": "banker",
	}))
	pump(t, player, bank)

	settled := bank.st.Outbox[0]
	pump(t, bank, player)

	balance := player.st.PlayerBalance
	mustFail(t, player.deliverTx(txBytes(t, "msg/deliver", settled), testHeight, testNow))
	if player.st.PlayerBalance != balance {
		t.Fatalf("duplicate settlement paid again: %d -> %d", balance, player.st.PlayerBalance)
	}
	if len(player.st.History) != 1 {
		t.Fatalf("history entries = %d", len(player.st.History))
	}
	if got := totalChips(bank, player); got != before {
		t.Fatalf("chips not conserved: %d -> %d", before, got)
	}

	// Reset clears the settled snapshot and a new coup may start.
	mustOk(t, player.op(t, "casino/reset", "alice", map[string]any{
		"player": "alice",
	}))
	if player.st.PendingBaccarat != nil {
		t.Fatal("reset did not clear the settled coup")
	}
	mustOk(t, player.op(t, "casino/play_baccarat", "alice", map[string]any{
		"player": "alice", "amount": 10, "betType": "tie",
	}))
}

func TestCasinoOpsRejectNonOwner(t *testing.T) {
	player := newPlayerApp(t, "alice")
	mustFail(t, player.op(t, "casino/play", "bob", map[string]any{
		"player": "bob", "bet": 10,
	}))
	mustFail(t, player.op(t, "casino/request_chips", "bob", map[string]any{
		"player": "bob",
	}))
}

func TestCasinoOpsRejectedOnBankChain(t *testing.T) {
	bank := newBankApp(t)
	mustFail(t, bank.op(t, "casino/play", "alice", map[string]any{
		"player": "alice", "bet": 10,
	}))
}

func TestResetRefusedMidRound(t *testing.T) {
	bank := newBankApp(t)
	player := newPlayerApp(t, "alice")

	mustOk(t, player.op(t, "casino/play", "alice", map[string]any{
		"player": "alice", "bet": 10,
	}))
	mustFail(t, player.op(t, "casino/reset", "alice", map[string]any{
		"player": "alice",
	}))

	pump(t, player, bank)
	pump(t, bank, player)
	mustFail(t, player.op(t, "casino/reset", "alice", map[string]any{
		"player": "alice",
	}))
}