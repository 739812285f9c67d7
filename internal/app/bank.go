package app

import (
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"fairdeck/internal/codec"
	"fairdeck/internal/engine"
	"fairdeck/internal/entropy"
	"fairdeck/internal/state"
)

// defaultMasterSeed replaces an unset master seed at genesis so the
// bank never runs on a zero seed.
const defaultMasterSeed uint64 = 0x9e3779b185ebca87

func pushMsg(st *state.State, typ, to string, v any) error {
	m, err := codec.NewMessage(typ, st.ChainID, to, v)
	if err != nil {
		return err
	}
	st.PushMessage(m)
	return nil
}

// replyChain resolves where settlement messages go: the chain named in
// the request, falling back to the message envelope's sender.
func replyChain(claimed, from string) string {
	if claimed != "" {
		return claimed
	}
	return from
}

func bankRequestChips(st *state.State, from string, msg codec.RequestChipsMsg) *abci.ExecTxResult {
	if msg.Player == "" {
		return errTx("player is required")
	}
	amount := st.FaucetAmount
	if amount > st.HouseBalance {
		amount = st.HouseBalance
	}
	if amount == 0 {
		return errTx("faucet is empty")
	}
	st.DebitHouse(amount)

	to := replyChain(msg.PlayerChain, from)
	if err := pushMsg(st, codec.MsgChipsGranted, to, codec.ChipsGrantedMsg{
		Player: msg.Player,
		Amount: amount,
	}); err != nil {
		return errTx("%v", err)
	}
	return okEvent("ChipsGranted", map[string]string{
		"player": msg.Player,
		"amount": fmt.Sprintf("%d", amount),
	})
}

// bankRequestGame opens an escrow entry for one blackjack round and
// hands the player its seed. The entry stays pending until a verified
// result report removes it.
func bankRequestGame(st *state.State, from string, msg codec.RequestGameMsg, now int64) *abci.ExecTxResult {
	if msg.Player == "" {
		return errTx("player is required")
	}
	if state.GameType(msg.GameType) != state.GameBlackjack {
		return errTx("unsupported game type %q", msg.GameType)
	}
	if msg.Bet == 0 {
		return errTx("bet must be positive")
	}

	gameID := st.AllocateGameID()
	seed := entropy.GameSeed(st.MasterSeed, gameID, msg.Player, now)
	to := replyChain(msg.PlayerChain, from)
	st.PendingGames[gameID] = &state.PendingGame{
		Player:      msg.Player,
		PlayerChain: to,
		GameType:    state.GameBlackjack,
		Bet:         msg.Bet,
		Seed:        seed,
		CreatedAt:   now,
	}

	if err := pushMsg(st, codec.MsgGameReady, to, codec.GameReadyMsg{
		GameID: gameID,
		Seed:   seed,
		Bet:    msg.Bet,
	}); err != nil {
		return errTx("%v", err)
	}
	return okEvent("GameOpened", map[string]string{
		"gameId": fmt.Sprintf("%d", gameID),
		"player": msg.Player,
		"bet":    fmt.Sprintf("%d", msg.Bet),
	})
}

// bankReportResult settles one pending blackjack round. The reported
// action log is replayed against the escrowed seed; the replayed round
// is authoritative and nothing claimed by the player is trusted.
// Removing the pending entry is the commit point, so a second report
// for the same game finds nothing and fails.
func bankReportResult(st *state.State, from string, msg codec.ReportResultMsg) *abci.ExecTxResult {
	g, ok := st.PendingGames[msg.GameID]
	if !ok {
		return errTx("game not found")
	}
	if msg.Player != g.Player || from != g.PlayerChain {
		return errTx("report identity does not match game %d", msg.GameID)
	}

	round, err := engine.ReplayBlackjack(g.Seed, g.Bet, msg.Actions)
	if err != nil {
		return errTx("replay game %d: %v", msg.GameID, err)
	}
	payout := round.Payout()

	// round.Bet carries the doubled stake after a double down; the
	// player escrowed exactly that much locally.
	st.CreditHouse(round.Bet)
	st.DebitHouse(payout)
	delete(st.PendingGames, msg.GameID)

	if err := pushMsg(st, codec.MsgGameSettled, g.PlayerChain, codec.GameSettledMsg{
		GameID:     msg.GameID,
		Result:     round.Result,
		Payout:     payout,
		DealerHand: round.DealerHand,
	}); err != nil {
		return errTx("%v", err)
	}
	return okEvent("GameSettled", map[string]string{
		"gameId": fmt.Sprintf("%d", msg.GameID),
		"result": string(round.Result),
		"payout": fmt.Sprintf("%d", payout),
	})
}

// bankRequestRoulette settles a spin in one turn: there are no player
// decisions after the wheel, so no escrow round-trip is needed.
func bankRequestRoulette(st *state.State, from string, msg codec.RequestRouletteMsg, now int64) *abci.ExecTxResult {
	if msg.Player == "" {
		return errTx("player is required")
	}
	total, err := engine.ValidateRouletteBets(msg.Bets)
	if err != nil {
		return errTx("%v", err)
	}

	gameID := st.AllocateGameID()
	seed := entropy.GameSeed(st.MasterSeed, gameID, msg.Player, now)
	winning := engine.SpinWheel(seed)
	payout := engine.RoulettePayout(msg.Bets, winning)

	st.CreditHouse(total)
	st.DebitHouse(payout)

	to := replyChain(msg.PlayerChain, from)
	if err := pushMsg(st, codec.MsgRouletteSettled, to, codec.RouletteSettledMsg{
		GameID:  gameID,
		Outcome: winning,
		Payout:  payout,
		Bets:    msg.Bets,
	}); err != nil {
		return errTx("%v", err)
	}
	return okEvent("RouletteSettled", map[string]string{
		"gameId":  fmt.Sprintf("%d", gameID),
		"outcome": fmt.Sprintf("%d", winning),
		"payout":  fmt.Sprintf("%d", payout),
	})
}

// bankRequestBaccarat settles a coup in one turn; the whole round is a
// function of the seed.
func bankRequestBaccarat(st *state.State, from string, msg codec.RequestBaccaratMsg, now int64) *abci.ExecTxResult {
	if msg.Player == "" {
		return errTx("player is required")
	}
	kind, err := engine.ParseBaccaratBetKind(string(msg.BetType))
	if err != nil {
		return errTx("%v", err)
	}
	if msg.Amount == 0 {
		return errTx("bet must be positive")
	}

	gameID := st.AllocateGameID()
	seed := entropy.GameSeed(st.MasterSeed, gameID, msg.Player, now)
	outcome, err := engine.PlayBaccarat(seed)
	if err != nil {
		return errTx("deal baccarat: %v", err)
	}
	payout := engine.SettleBaccarat(msg.Amount, kind, outcome.Winner)

	st.CreditHouse(msg.Amount)
	st.DebitHouse(payout)

	to := replyChain(msg.PlayerChain, from)
	if err := pushMsg(st, codec.MsgBaccaratSettled, to, codec.BaccaratSettledMsg{
		GameID:      gameID,
		Winner:      outcome.Winner,
		Payout:      payout,
		PlayerHand:  outcome.PlayerHand,
		BankerHand:  outcome.BankerHand,
		PlayerScore: outcome.PlayerScore,
		BankerScore: outcome.BankerScore,
		BetAmount:   msg.Amount,
		BetType:     kind,
	}); err != nil {
		return errTx("%v", err)
	}
	return okEvent("BaccaratSettled", map[string]string{
		"gameId": fmt.Sprintf("%d", gameID),
		"winner": string(outcome.Winner),
		"payout": fmt.Sprintf("%d", payout),
	})
}
