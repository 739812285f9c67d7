package engine

import "fmt"

const (
	blackjackTarget      = 21
	dealerStandThreshold = 17
	blackjackDeckCount   = 1
)

// Action is one player decision in a blackjack round. The ordered log
// of actions is what the bank replays to verify a reported result.
type Action string

const (
	ActionHit        Action = "hit"
	ActionStand      Action = "stand"
	ActionDoubleDown Action = "double_down"
)

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionHit, ActionStand, ActionDoubleDown:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Result is the closed set of blackjack round outcomes.
type Result string

const (
	ResultPlayerBlackjack Result = "player_blackjack"
	ResultPlayerWin       Result = "player_win"
	ResultDealerWin       Result = "dealer_win"
	ResultPlayerBust      Result = "player_bust"
	ResultDealerBust      Result = "dealer_bust"
	ResultPush            Result = "push"
)

// BlackjackPayout is the total credited back for a result: 5:2 on a
// natural, 2:1 on a win, the stake on a push, nothing on a loss.
func BlackjackPayout(result Result, bet uint64) uint64 {
	switch result {
	case ResultPlayerBlackjack:
		return satMul(bet, 5) / 2
	case ResultPlayerWin, ResultDealerBust:
		return satMul(bet, 2)
	case ResultPush:
		return bet
	default:
		return 0
	}
}

// BlackjackRound runs one single-player round. The player process plays
// it incrementally; the bank reconstructs an identical round from the
// same seed via ReplayBlackjack.
type BlackjackRound struct {
	Bet        uint64 `json:"bet"`
	PlayerHand []Card `json:"playerHand"`
	DealerHand []Card `json:"dealerHand"` // up card first; hole appended on reveal
	DealerHole *Card  `json:"dealerHole,omitempty"`
	Deck       []Card `json:"deck"`
	Done       bool   `json:"done"`
	Result     Result `json:"result,omitempty"`
}

// NewBlackjackRound shuffles a fresh deck from seed and deals two cards
// to the player, then the dealer's up card and hole card. A natural 21
// resolves immediately.
func NewBlackjackRound(seed uint64, bet uint64) (*BlackjackRound, error) {
	deck := ShuffledDeck(blackjackDeckCount, seed)
	r := &BlackjackRound{Bet: bet, Deck: deck}

	var err error
	var p1, p2, up, hole Card
	if p1, err = Draw(&r.Deck); err != nil {
		return nil, err
	}
	if p2, err = Draw(&r.Deck); err != nil {
		return nil, err
	}
	if up, err = Draw(&r.Deck); err != nil {
		return nil, err
	}
	if hole, err = Draw(&r.Deck); err != nil {
		return nil, err
	}
	r.PlayerHand = []Card{p1, p2}
	r.DealerHand = []Card{up}
	r.DealerHole = &hole

	if BlackjackValue(r.PlayerHand) == blackjackTarget {
		r.revealHole()
		if BlackjackValue(r.DealerHand) == blackjackTarget {
			r.finish(ResultPush)
		} else {
			r.finish(ResultPlayerBlackjack)
		}
	}
	return r, nil
}

// Hit draws one card for the player and ends the round on a bust.
func (r *BlackjackRound) Hit() error {
	if r.Done {
		return fmt.Errorf("round already finished")
	}
	c, err := Draw(&r.Deck)
	if err != nil {
		return err
	}
	r.PlayerHand = append(r.PlayerHand, c)
	if BlackjackValue(r.PlayerHand) > blackjackTarget {
		r.revealHole()
		r.finish(ResultPlayerBust)
	}
	return nil
}

// Stand reveals the hole card, plays out the dealer and settles.
func (r *BlackjackRound) Stand() error {
	if r.Done {
		return fmt.Errorf("round already finished")
	}
	return r.resolveDealer()
}

// DoubleDown doubles the bet, draws exactly one card and then stands.
// Only legal on the initial two-card hand.
func (r *BlackjackRound) DoubleDown() error {
	if r.Done {
		return fmt.Errorf("round already finished")
	}
	if len(r.PlayerHand) != 2 {
		return fmt.Errorf("double down allowed only on initial hand")
	}
	r.Bet = satMul(r.Bet, 2)
	c, err := Draw(&r.Deck)
	if err != nil {
		return err
	}
	r.PlayerHand = append(r.PlayerHand, c)
	if BlackjackValue(r.PlayerHand) > blackjackTarget {
		r.revealHole()
		r.finish(ResultPlayerBust)
		return nil
	}
	return r.resolveDealer()
}

// Apply routes one logged action onto the round.
func (r *BlackjackRound) Apply(a Action) error {
	switch a {
	case ActionHit:
		return r.Hit()
	case ActionStand:
		return r.Stand()
	case ActionDoubleDown:
		return r.DoubleDown()
	}
	return fmt.Errorf("unknown action %q", a)
}

// Payout is the total credited back for the finished round.
func (r *BlackjackRound) Payout() uint64 {
	if !r.Done {
		return 0
	}
	return BlackjackPayout(r.Result, r.Bet)
}

func (r *BlackjackRound) revealHole() {
	if r.DealerHole != nil {
		r.DealerHand = append(r.DealerHand, *r.DealerHole)
		r.DealerHole = nil
	}
}

// DealerShouldDraw is the dealer rule: draw strictly below 17. Applied
// in a loop since every draw changes the total.
func DealerShouldDraw(value uint8) bool {
	return value < dealerStandThreshold
}

func (r *BlackjackRound) resolveDealer() error {
	r.revealHole()
	for DealerShouldDraw(BlackjackValue(r.DealerHand)) {
		c, err := Draw(&r.Deck)
		if err != nil {
			return err
		}
		r.DealerHand = append(r.DealerHand, c)
	}

	playerValue := BlackjackValue(r.PlayerHand)
	dealerValue := BlackjackValue(r.DealerHand)
	switch {
	case dealerValue > blackjackTarget:
		r.finish(ResultDealerBust)
	case playerValue > dealerValue:
		r.finish(ResultPlayerWin)
	case dealerValue > playerValue:
		r.finish(ResultDealerWin)
	default:
		r.finish(ResultPush)
	}
	return nil
}

func (r *BlackjackRound) finish(result Result) {
	r.Result = result
	r.Done = true
}

// ReplayBlackjack re-executes a reported action log against the same
// seed and bet. The claimed result is never consulted: illegal or
// incomplete logs fail, and the replayed round is authoritative.
func ReplayBlackjack(seed uint64, bet uint64, actions []Action) (*BlackjackRound, error) {
	r, err := NewBlackjackRound(seed, bet)
	if err != nil {
		return nil, err
	}
	for i, a := range actions {
		if r.Done {
			return nil, fmt.Errorf("action %d (%s) after round finished", i, a)
		}
		if err := r.Apply(a); err != nil {
			return nil, fmt.Errorf("replay action %d (%s): %w", i, a, err)
		}
	}
	if !r.Done {
		return nil, fmt.Errorf("action log does not finish the round")
	}
	return r, nil
}

func satMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > ^uint64(0)/b {
		return ^uint64(0)
	}
	return a * b
}
