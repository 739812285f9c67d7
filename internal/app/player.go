package app

import (
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"fairdeck/internal/codec"
	"fairdeck/internal/engine"
	"fairdeck/internal/state"
)

func requireOwner(st *state.State, player string) *abci.ExecTxResult {
	if st.IsBank() {
		return errTx("casino operations run on a player chain")
	}
	if player != st.Owner {
		return errTx("player %q is not this chain's owner %q", player, st.Owner)
	}
	return nil
}

func handleRequestChips(st *state.State, msg codec.CasinoRequestChipsTx) *abci.ExecTxResult {
	if res := requireOwner(st, msg.Player); res != nil {
		return res
	}
	if err := pushMsg(st, codec.MsgRequestChips, st.BankChainID, codec.RequestChipsMsg{
		Player:      msg.Player,
		PlayerChain: st.ChainID,
	}); err != nil {
		return errTx("%v", err)
	}
	st.PendingChipGrants++
	return okEvent("ChipsRequested", map[string]string{"player": msg.Player})
}

// playerChipsGranted credits one outstanding faucet request. A grant
// with no matching request fails closed: the transport may redeliver,
// and a duplicate must not mint chips.
func playerChipsGranted(st *state.State, msg codec.ChipsGrantedMsg) *abci.ExecTxResult {
	if st.PendingChipGrants == 0 {
		return errTx("no chip request outstanding")
	}
	st.PendingChipGrants--
	st.CreditPlayer(msg.Amount)
	return okEvent("ChipsReceived", map[string]string{
		"amount":  fmt.Sprintf("%d", msg.Amount),
		"balance": fmt.Sprintf("%d", st.PlayerBalance),
	})
}

// handlePlayBlackjack escrows the stake locally and asks the bank for a
// seed. The round cannot start until game_ready arrives.
func handlePlayBlackjack(st *state.State, msg codec.CasinoPlayTx) *abci.ExecTxResult {
	if res := requireOwner(st, msg.Player); res != nil {
		return res
	}
	if st.ActiveGame != nil && !st.ActiveGame.Phase.Terminal() {
		return errTx("a game is already in progress")
	}
	if msg.Bet == 0 {
		return errTx("bet must be positive")
	}
	if err := st.DebitPlayer(msg.Bet); err != nil {
		return errTx("%v", err)
	}

	st.ActiveGame = &state.ActiveGame{
		Bet:      msg.Bet,
		GameType: state.GameBlackjack,
		Phase:    state.ActiveAwaitingSeed,
	}
	if err := pushMsg(st, codec.MsgRequestGame, st.BankChainID, codec.RequestGameMsg{
		Player:      msg.Player,
		PlayerChain: st.ChainID,
		GameType:    string(state.GameBlackjack),
		Bet:         msg.Bet,
	}); err != nil {
		return errTx("%v", err)
	}
	return okEvent("GameRequested", map[string]string{
		"bet":     fmt.Sprintf("%d", msg.Bet),
		"balance": fmt.Sprintf("%d", st.PlayerBalance),
	})
}

// playerGameReady deals the local round from the bank's seed. A natural
// resolves immediately and reports an empty action log.
func playerGameReady(st *state.State, msg codec.GameReadyMsg) *abci.ExecTxResult {
	g := st.ActiveGame
	if g == nil || g.Phase != state.ActiveAwaitingSeed {
		return errTx("no game awaiting a seed")
	}
	if msg.Bet != g.Bet {
		return errTx("seed bet %d does not match escrowed bet %d", msg.Bet, g.Bet)
	}

	round, err := engine.NewBlackjackRound(msg.Seed, msg.Bet)
	if err != nil {
		return errTx("deal: %v", err)
	}
	g.GameID = msg.GameID
	g.Seed = msg.Seed
	g.Round = round

	if round.Done {
		g.Phase = state.ActiveAwaitingSettlement
		if err := pushMsg(st, codec.MsgReportResult, st.BankChainID, codec.ReportResultMsg{
			GameID:  g.GameID,
			Player:  st.Owner,
			Actions: nil,
		}); err != nil {
			return errTx("%v", err)
		}
	} else {
		g.Phase = state.ActivePlayerTurn
	}

	return okEvent("GameDealt", map[string]string{
		"gameId":      fmt.Sprintf("%d", g.GameID),
		"playerValue": fmt.Sprintf("%d", engine.BlackjackValue(round.PlayerHand)),
		"phase":       string(g.Phase),
	})
}

// handleCasinoAct applies one decision to the local round and appends
// it to the action log the bank will replay. A double down escrows the
// additional stake before the card is drawn.
func handleCasinoAct(st *state.State, action string, msg codec.CasinoActTx) *abci.ExecTxResult {
	if res := requireOwner(st, msg.Player); res != nil {
		return res
	}
	g := st.ActiveGame
	if g == nil || g.Phase != state.ActivePlayerTurn || g.Round == nil {
		return errTx("no round in progress")
	}

	a, err := engine.ParseAction(action)
	if err != nil {
		return errTx("%v", err)
	}
	if a == engine.ActionDoubleDown {
		if err := st.DebitPlayer(g.Bet); err != nil {
			return errTx("double down: %v", err)
		}
	}

	g.Actions = append(g.Actions, a)
	if err := g.Round.Apply(a); err != nil {
		return errTx("%v", err)
	}

	if g.Round.Done {
		g.Phase = state.ActiveAwaitingSettlement
		if err := pushMsg(st, codec.MsgReportResult, st.BankChainID, codec.ReportResultMsg{
			GameID:  g.GameID,
			Player:  st.Owner,
			Actions: g.Actions,
		}); err != nil {
			return errTx("%v", err)
		}
	}

	return okEvent("GameActed", map[string]string{
		"action":      string(a),
		"playerValue": fmt.Sprintf("%d", engine.BlackjackValue(g.Round.PlayerHand)),
		"done":        fmt.Sprintf("%t", g.Round.Done),
	})
}

// playerGameSettled credits the bank's authoritative payout and closes
// the round into history.
func playerGameSettled(st *state.State, msg codec.GameSettledMsg, now int64) *abci.ExecTxResult {
	g := st.ActiveGame
	if g == nil || g.Phase != state.ActiveAwaitingSettlement {
		return errTx("no game awaiting settlement")
	}
	if g.GameID != msg.GameID {
		return errTx("settlement for game %d, active game is %d", msg.GameID, g.GameID)
	}

	st.CreditPlayer(msg.Payout)
	result := msg.Result
	g.Result = &result
	g.Payout = msg.Payout
	g.DealerHand = msg.DealerHand
	g.Phase = state.ActiveRoundComplete

	finalBet := g.Bet
	var playerHand []engine.Card
	if g.Round != nil {
		finalBet = g.Round.Bet
		playerHand = g.Round.PlayerHand
	}
	st.AppendRecord(state.GameRecord{
		GameID:     msg.GameID,
		GameType:   state.GameBlackjack,
		PlayerHand: playerHand,
		DealerHand: msg.DealerHand,
		Bet:        finalBet,
		Result:     string(msg.Result),
		Payout:     msg.Payout,
		Timestamp:  now,
	})

	return okEvent("GameClosed", map[string]string{
		"gameId":  fmt.Sprintf("%d", msg.GameID),
		"result":  string(msg.Result),
		"payout":  fmt.Sprintf("%d", msg.Payout),
		"balance": fmt.Sprintf("%d", st.PlayerBalance),
	})
}

func handleCasinoReset(st *state.State, msg codec.CasinoResetTx) *abci.ExecTxResult {
	if res := requireOwner(st, msg.Player); res != nil {
		return res
	}
	if st.ActiveGame != nil && !st.ActiveGame.Phase.Terminal() {
		return errTx("cannot reset a game in progress")
	}
	st.ActiveGame = nil
	if st.PendingRoulette != nil && st.PendingRoulette.Settled {
		st.PendingRoulette = nil
	}
	if st.PendingBaccarat != nil && st.PendingBaccarat.Settled {
		st.PendingBaccarat = nil
	}
	return okEvent("GameReset", map[string]string{"player": msg.Player})
}

func handlePlayRoulette(st *state.State, msg codec.CasinoPlayRouletteTx) *abci.ExecTxResult {
	if res := requireOwner(st, msg.Player); res != nil {
		return res
	}
	if st.PendingRoulette != nil && !st.PendingRoulette.Settled {
		return errTx("a spin is already in flight")
	}
	total, err := engine.ValidateRouletteBets(msg.Bets)
	if err != nil {
		return errTx("%v", err)
	}
	if err := st.DebitPlayer(total); err != nil {
		return errTx("%v", err)
	}

	st.PendingRoulette = &state.PendingRoulette{Bets: msg.Bets}
	if err := pushMsg(st, codec.MsgRequestRoulette, st.BankChainID, codec.RequestRouletteMsg{
		Player:      msg.Player,
		PlayerChain: st.ChainID,
		Bets:        msg.Bets,
	}); err != nil {
		return errTx("%v", err)
	}
	return okEvent("RouletteRequested", map[string]string{
		"stake":   fmt.Sprintf("%d", total),
		"balance": fmt.Sprintf("%d", st.PlayerBalance),
	})
}

func playerRouletteSettled(st *state.State, msg codec.RouletteSettledMsg, now int64) *abci.ExecTxResult {
	pr := st.PendingRoulette
	if pr == nil || pr.Settled {
		return errTx("no spin awaiting settlement")
	}

	st.CreditPlayer(msg.Payout)
	outcome := msg.Outcome
	pr.Settled = true
	pr.GameID = msg.GameID
	pr.Outcome = &outcome
	pr.Payout = msg.Payout

	var stake uint64
	for _, b := range pr.Bets {
		stake = state.SatAdd(stake, b.Amount)
	}
	st.AppendRecord(state.GameRecord{
		GameID:          msg.GameID,
		GameType:        state.GameRoulette,
		Bet:             stake,
		Result:          fmt.Sprintf("pocket_%d", outcome),
		Payout:          msg.Payout,
		Timestamp:       now,
		RouletteBets:    pr.Bets,
		RouletteOutcome: &outcome,
	})

	return okEvent("RouletteClosed", map[string]string{
		"gameId":  fmt.Sprintf("%d", msg.GameID),
		"outcome": fmt.Sprintf("%d", outcome),
		"payout":  fmt.Sprintf("%d", msg.Payout),
		"balance": fmt.Sprintf("%d", st.PlayerBalance),
	})
}

func handlePlayBaccarat(st *state.State, msg codec.CasinoPlayBaccaratTx) *abci.ExecTxResult {
	if res := requireOwner(st, msg.Player); res != nil {
		return res
	}
	if st.PendingBaccarat != nil && !st.PendingBaccarat.Settled {
		return errTx("a coup is already in flight")
	}
	kind, err := engine.ParseBaccaratBetKind(msg.BetType)
	if err != nil {
		return errTx("%v", err)
	}
	if msg.Amount == 0 {
		return errTx("bet must be positive")
	}
	if err := st.DebitPlayer(msg.Amount); err != nil {
		return errTx("%v", err)
	}

	st.PendingBaccarat = &state.PendingBaccarat{BetType: kind, Amount: msg.Amount}
	if err := pushMsg(st, codec.MsgRequestBaccarat, st.BankChainID, codec.RequestBaccaratMsg{
		Player:      msg.Player,
		PlayerChain: st.ChainID,
		Amount:      msg.Amount,
		BetType:     kind,
	}); err != nil {
		return errTx("%v", err)
	}
	return okEvent("BaccaratRequested", map[string]string{
		"amount":  fmt.Sprintf("%d", msg.Amount),
		"betType": string(kind),
		"balance": fmt.Sprintf("%d", st.PlayerBalance),
	})
}

func playerBaccaratSettled(st *state.State, msg codec.BaccaratSettledMsg, now int64) *abci.ExecTxResult {
	pb := st.PendingBaccarat
	if pb == nil || pb.Settled {
		return errTx("no coup awaiting settlement")
	}

	st.CreditPlayer(msg.Payout)
	winner := msg.Winner
	pb.Settled = true
	pb.GameID = msg.GameID
	pb.Winner = &winner
	pb.Payout = msg.Payout

	st.AppendRecord(state.GameRecord{
		GameID:     msg.GameID,
		GameType:   state.GameBaccarat,
		PlayerHand: msg.PlayerHand,
		DealerHand: msg.BankerHand,
		Bet:        msg.BetAmount,
		Result:     fmt.Sprintf("winner_%s", msg.Winner),
		Payout:     msg.Payout,
		Timestamp:  now,
	})
	return okEvent("BaccaratClosed", map[string]string{
		"gameId":  fmt.Sprintf("%d", msg.GameID),
		"winner":  string(msg.Winner),
		"payout":  fmt.Sprintf("%d", msg.Payout),
		"balance": fmt.Sprintf("%d", st.PlayerBalance),
	})
}

// activeGameView is the query projection of the local round with the
// dealer's hole card and the remaining deck withheld.
func activeGameView(g *state.ActiveGame) map[string]any {
	view := map[string]any{
		"gameId":   g.GameID,
		"gameType": g.GameType,
		"phase":    g.Phase,
		"bet":      g.Bet,
	}
	if g.Round != nil {
		view["playerHand"] = cardStrings(g.Round.PlayerHand)
		view["playerValue"] = engine.BlackjackValue(g.Round.PlayerHand)
		view["dealerUpCards"] = cardStrings(g.Round.DealerHand)
		view["currentBet"] = g.Round.Bet
	}
	if len(g.Actions) > 0 {
		view["actions"] = g.Actions
	}
	if g.Result != nil {
		view["result"] = *g.Result
		view["payout"] = g.Payout
		view["dealerHand"] = cardStrings(g.DealerHand)
	}
	return view
}

func cardStrings(cards []engine.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
