package app

import (
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"fairdeck/internal/codec"
	"fairdeck/internal/engine"
	"fairdeck/internal/entropy"
	"fairdeck/internal/state"
)

const tableDeckCount = 1

func handleTableCreate(st *state.State, msg codec.TableCreateTx) *abci.ExecTxResult {
	if msg.Dealer == "" {
		return errTx("dealer is required")
	}
	if msg.MaxPlayers == 0 {
		return errTx("maxPlayers must be at least 1")
	}
	if msg.MinBet == 0 {
		return errTx("minBet must be positive")
	}
	if len(msg.VrfPublicKey) == 0 {
		return errTx("vrfPublicKey is required")
	}

	id := st.NextTableID
	st.NextTableID++
	st.Tables[id] = &state.GameTable{
		ID: id,
		Config: state.TableConfig{
			Dealer:       msg.Dealer,
			MaxPlayers:   msg.MaxPlayers,
			MinBet:       msg.MinBet,
			VrfPublicKey: msg.VrfPublicKey,
			AllowMidJoin: msg.AllowMidJoin,
			RoundTimeout: msg.RoundTimeout,
		},
		Phase:         state.PhaseLobby,
		Players:       map[string]*state.PlayerEntry{},
		LastUpdatedAt: st.Height,
	}

	return okEvent("TableCreated", map[string]string{
		"tableId":    fmt.Sprintf("%d", id),
		"dealer":     msg.Dealer,
		"maxPlayers": fmt.Sprintf("%d", msg.MaxPlayers),
		"minBet":     fmt.Sprintf("%d", msg.MinBet),
	})
}

func handleTableJoin(st *state.State, msg codec.TableJoinTx) *abci.ExecTxResult {
	t, ok := st.Tables[msg.TableID]
	if !ok {
		return errTx("table %d not found", msg.TableID)
	}
	switch t.Phase {
	case state.PhaseLobby:
	case state.PhaseReveal:
		if !t.Config.AllowMidJoin {
			return errTx("table %d is no longer accepting players", msg.TableID)
		}
	default:
		return errTx("table %d is no longer accepting players", msg.TableID)
	}
	if msg.Player == "" {
		return errTx("player is required")
	}
	if msg.Player == t.Config.Dealer {
		return errTx("dealer cannot join as a player")
	}
	if _, dup := t.Players[msg.Player]; dup {
		return errTx("player %s already joined table %d", msg.Player, msg.TableID)
	}
	if uint8(len(t.Players)) >= t.Config.MaxPlayers {
		return errTx("table %d is full", msg.TableID)
	}
	if msg.Bet < t.Config.MinBet {
		return errTx("bet %d below table minimum %d", msg.Bet, t.Config.MinBet)
	}
	commitment, err := entropy.FixedCommitment(msg.Commitment)
	if err != nil {
		return errTx("bad commitment: %v", err)
	}

	t.Players[msg.Player] = &state.PlayerEntry{
		Bet:        msg.Bet,
		Commitment: commitment,
		Status:     state.StatusPending,
	}
	t.JoinSequence = append(t.JoinSequence, msg.Player)
	t.LastUpdatedAt = st.Height

	if uint8(len(t.Players)) == t.Config.MaxPlayers {
		t.Phase = state.PhaseReveal
	}

	return okEvent("TableJoined", map[string]string{
		"tableId": fmt.Sprintf("%d", msg.TableID),
		"player":  msg.Player,
		"bet":     fmt.Sprintf("%d", msg.Bet),
		"phase":   string(t.Phase),
	})
}

func handleTableReveal(st *state.State, msg codec.TableRevealTx) *abci.ExecTxResult {
	t, ok := st.Tables[msg.TableID]
	if !ok {
		return errTx("table %d not found", msg.TableID)
	}
	if t.Phase != state.PhaseReveal {
		return errTx("table %d is not in the reveal phase", msg.TableID)
	}
	entry, ok := t.Players[msg.Player]
	if !ok {
		return errTx("player %s is not seated at table %d", msg.Player, msg.TableID)
	}
	if entry.RevealedEntropy != nil {
		return errTx("player %s already revealed", msg.Player)
	}
	if !entropy.VerifyReveal(msg.Secret, entry.Commitment) {
		return errTx("revealed secret does not match commitment")
	}

	revealed := entropy.Revealed(msg.Secret)
	entry.RevealedEntropy = &revealed
	t.LastUpdatedAt = st.Height

	if allRevealed(t) {
		t.Phase = state.PhaseAwaitingVrf
	}

	return okEvent("TableRevealed", map[string]string{
		"tableId": fmt.Sprintf("%d", msg.TableID),
		"player":  msg.Player,
		"phase":   string(t.Phase),
	})
}

func allRevealed(t *state.GameTable) bool {
	for _, p := range t.Players {
		if p.RevealedEntropy == nil {
			return false
		}
	}
	return len(t.Players) > 0
}

func handleTableSubmitVrf(st *state.State, msg codec.TableSubmitVrfTx) *abci.ExecTxResult {
	t, ok := st.Tables[msg.TableID]
	if !ok {
		return errTx("table %d not found", msg.TableID)
	}
	if t.Phase != state.PhaseAwaitingVrf {
		return errTx("table %d is not awaiting randomness", msg.TableID)
	}
	if msg.Dealer != t.Config.Dealer {
		return errTx("only the dealer may submit randomness")
	}
	output, err := entropy.FixedCommitment(msg.Output)
	if err != nil {
		return errTx("bad vrf output: %v", err)
	}
	if !entropy.VerifyVrf(t.Config.VrfPublicKey, msg.Proof, msg.Message, output) {
		return errTx("vrf proof does not verify")
	}

	revealed := make([]*[entropy.CommitmentSize]byte, 0, len(t.JoinSequence))
	for _, name := range t.JoinSequence {
		revealed = append(revealed, t.Players[name].RevealedEntropy)
	}
	combined, err := entropy.Combine(t.ID, output, revealed)
	if err != nil {
		return errTx("combine entropy: %v", err)
	}

	t.CombinedEntropy = &combined
	t.Vrf = &entropy.VrfRecord{
		Provider:  msg.Dealer,
		PublicKey: t.Config.VrfPublicKey,
		Output:    output,
		Proof:     msg.Proof,
		Message:   msg.Message,
	}
	t.Phase = state.PhaseReadyToDeal
	t.LastUpdatedAt = st.Height

	return okEvent("TableEntropyFinalized", map[string]string{
		"tableId": fmt.Sprintf("%d", msg.TableID),
		"phase":   string(t.Phase),
	})
}

func handleTableDeal(st *state.State, msg codec.TableDealTx) *abci.ExecTxResult {
	t, ok := st.Tables[msg.TableID]
	if !ok {
		return errTx("table %d not found", msg.TableID)
	}
	if t.Phase != state.PhaseReadyToDeal {
		return errTx("table %d is not ready to deal", msg.TableID)
	}
	if msg.Dealer != t.Config.Dealer {
		return errTx("only the dealer may deal")
	}
	if t.CombinedEntropy == nil {
		return errTx("table %d has no combined entropy", msg.TableID)
	}

	seed := entropy.SeedFromEntropy(*t.CombinedEntropy)
	t.Deck = engine.ShuffledDeck(tableDeckCount, seed)

	// Two cards per player in join order, then two to the dealer.
	for _, name := range t.JoinSequence {
		entry := t.Players[name]
		for i := 0; i < 2; i++ {
			c, err := engine.Draw(&t.Deck)
			if err != nil {
				return errTx("deal: %v", err)
			}
			entry.Hand = append(entry.Hand, c)
		}
	}
	for i := 0; i < 2; i++ {
		c, err := engine.Draw(&t.Deck)
		if err != nil {
			return errTx("deal: %v", err)
		}
		t.DealerHand = append(t.DealerHand, c)
	}

	t.TurnOrder = t.TurnOrder[:0]
	for _, name := range t.JoinSequence {
		entry := t.Players[name]
		if engine.BlackjackValue(entry.Hand) == 21 {
			entry.Status = state.StatusBlackjack
			continue
		}
		entry.Status = state.StatusActive
		t.TurnOrder = append(t.TurnOrder, name)
	}

	if len(t.TurnOrder) == 0 {
		t.Phase = state.PhaseDealerTurn
	} else {
		t.Phase = state.PhasePlayerTurns
	}
	t.LastUpdatedAt = st.Height

	return okEvent("TableDealt", map[string]string{
		"tableId": fmt.Sprintf("%d", msg.TableID),
		"phase":   string(t.Phase),
	})
}

func handleTableAct(st *state.State, msg codec.TableActTx) *abci.ExecTxResult {
	t, ok := st.Tables[msg.TableID]
	if !ok {
		return errTx("table %d not found", msg.TableID)
	}
	if t.Phase != state.PhasePlayerTurns {
		return errTx("table %d is not taking player actions", msg.TableID)
	}
	if len(t.TurnOrder) == 0 || t.TurnOrder[0] != msg.Player {
		return errTx("it is not %s's turn", msg.Player)
	}
	action, err := engine.ParseAction(msg.Action)
	if err != nil {
		return errTx("%v", err)
	}
	entry := t.Players[msg.Player]
	if entry == nil || entry.Status != state.StatusActive {
		return errTx("player %s cannot act", msg.Player)
	}

	turnOver := false
	switch action {
	case engine.ActionHit:
		c, err := engine.Draw(&t.Deck)
		if err != nil {
			return errTx("hit: %v", err)
		}
		entry.Hand = append(entry.Hand, c)
		if engine.BlackjackValue(entry.Hand) > 21 {
			entry.Status = state.StatusBusted
			turnOver = true
		}
	case engine.ActionStand:
		entry.Status = state.StatusStood
		turnOver = true
	case engine.ActionDoubleDown:
		if len(entry.Hand) != 2 {
			return errTx("double down is only allowed on the first two cards")
		}
		c, err := engine.Draw(&t.Deck)
		if err != nil {
			return errTx("double down: %v", err)
		}
		entry.Bet = state.SatAdd(entry.Bet, entry.Bet)
		entry.Hand = append(entry.Hand, c)
		if engine.BlackjackValue(entry.Hand) > 21 {
			entry.Status = state.StatusBusted
		} else {
			entry.Status = state.StatusStood
		}
		turnOver = true
	}
	entry.LastAction = &action

	if turnOver {
		t.TurnOrder = t.TurnOrder[1:]
	}
	if len(t.TurnOrder) == 0 {
		t.Phase = state.PhaseDealerTurn
	}
	t.LastUpdatedAt = st.Height

	return okEvent("TableActed", map[string]string{
		"tableId": fmt.Sprintf("%d", msg.TableID),
		"player":  msg.Player,
		"action":  string(action),
		"value":   fmt.Sprintf("%d", engine.BlackjackValue(entry.Hand)),
		"phase":   string(t.Phase),
	})
}

func handleTableResolve(st *state.State, msg codec.TableResolveTx) *abci.ExecTxResult {
	t, ok := st.Tables[msg.TableID]
	if !ok {
		return errTx("table %d not found", msg.TableID)
	}
	if t.Phase != state.PhaseDealerTurn {
		return errTx("table %d is not in the dealer turn", msg.TableID)
	}
	if msg.Dealer != t.Config.Dealer {
		return errTx("only the dealer may resolve")
	}

	for engine.DealerShouldDraw(engine.BlackjackValue(t.DealerHand)) {
		c, err := engine.Draw(&t.Deck)
		if err != nil {
			return errTx("dealer draw: %v", err)
		}
		t.DealerHand = append(t.DealerHand, c)
	}
	dealerValue := engine.BlackjackValue(t.DealerHand)

	for _, name := range t.JoinSequence {
		entry := t.Players[name]
		pv := engine.BlackjackValue(entry.Hand)
		entry.Result = &state.RoundOutcome{
			FinalValue:    pv,
			DealerValue:   dealerValue,
			WinMultiplier: tableMultiplier(entry.Status, pv, dealerValue),
		}
		entry.Status = state.StatusSettled
	}

	t.Phase = state.PhaseSettled
	t.LastUpdatedAt = st.Height

	return okEvent("TableSettled", map[string]string{
		"tableId":     fmt.Sprintf("%d", msg.TableID),
		"dealerValue": fmt.Sprintf("%d", dealerValue),
	})
}

// tableMultiplier is the settlement grid in percentage points:
// +150 natural, +100 win, 0 push, -100 loss.
func tableMultiplier(status state.PlayerStatus, playerValue, dealerValue uint8) int16 {
	if status == state.StatusBusted {
		return -100
	}
	if status == state.StatusBlackjack {
		return 150
	}
	switch {
	case dealerValue > 21:
		return 100
	case playerValue > dealerValue:
		return 100
	case playerValue < dealerValue:
		return -100
	default:
		return 0
	}
}

func handleTableCancel(st *state.State, msg codec.TableCancelTx) *abci.ExecTxResult {
	t, ok := st.Tables[msg.TableID]
	if !ok {
		return errTx("table %d not found", msg.TableID)
	}
	if msg.Dealer != t.Config.Dealer {
		return errTx("only the dealer may cancel")
	}
	if t.Phase.Terminal() {
		return errTx("table %d is already %s", msg.TableID, t.Phase)
	}

	t.Phase = state.PhaseCancelled
	t.LastUpdatedAt = st.Height

	return okEvent("TableCancelled", map[string]string{
		"tableId": fmt.Sprintf("%d", msg.TableID),
	})
}
