package engine

import "fmt"

const (
	baccaratDeckCount = 6
	baccaratNatural   = 8

	// 5.00% banker commission in basis points.
	bankerCommissionBP = 500
	tiePayoutMult      = 8
)

// BaccaratBetKind names the side a baccarat wager backs.
type BaccaratBetKind string

const (
	BaccaratPlayer BaccaratBetKind = "player"
	BaccaratBanker BaccaratBetKind = "banker"
	BaccaratTie    BaccaratBetKind = "tie"
)

func ParseBaccaratBetKind(s string) (BaccaratBetKind, error) {
	switch BaccaratBetKind(s) {
	case BaccaratPlayer, BaccaratBanker, BaccaratTie:
		return BaccaratBetKind(s), nil
	}
	return "", fmt.Errorf("unknown baccarat bet kind %q", s)
}

// BaccaratOutcome is the fully resolved round.
type BaccaratOutcome struct {
	Winner          BaccaratBetKind `json:"winner"`
	PlayerHand      []Card          `json:"playerHand"`
	BankerHand      []Card          `json:"bankerHand"`
	PlayerScore     uint8           `json:"playerScore"`
	BankerScore     uint8           `json:"bankerScore"`
	Natural         bool            `json:"natural"`
	BankerDrewThird bool            `json:"bankerDrewThird"`
}

// PlayerShouldDraw is the player rule: draw on 0..5, stand on 6..7.
func PlayerShouldDraw(value uint8) bool {
	return value <= 5
}

// BankerShouldDraw applies the fixed baccarat tableau. playerThird is
// the point value of the player's third card, absent when the player
// stood pat.
func BankerShouldDraw(bankerValue uint8, playerThird *uint8) bool {
	if bankerValue >= 7 {
		return false
	}
	if playerThird == nil {
		return bankerValue <= 5
	}
	v := *playerThird
	switch bankerValue {
	case 0, 1, 2:
		return true
	case 3:
		return v != 8
	case 4:
		return v >= 2 && v <= 7
	case 5:
		return v >= 4 && v <= 7
	case 6:
		return v == 6 || v == 7
	}
	return false
}

// PlayBaccarat deals one round from a six-deck shoe shuffled with seed.
// There are no decisions to log: the entire round is a function of the
// seed, which is what lets the bank settle it in a single message turn.
func PlayBaccarat(seed uint64) (*BaccaratOutcome, error) {
	deck := ShuffledDeck(baccaratDeckCount, seed)

	drawTo := func(hand *[]Card) error {
		c, err := Draw(&deck)
		if err != nil {
			return err
		}
		*hand = append(*hand, c)
		return nil
	}

	var playerHand, bankerHand []Card
	for i := 0; i < 2; i++ {
		if err := drawTo(&playerHand); err != nil {
			return nil, err
		}
	}
	for i := 0; i < 2; i++ {
		if err := drawTo(&bankerHand); err != nil {
			return nil, err
		}
	}

	playerValue := BaccaratValue(playerHand)
	bankerValue := BaccaratValue(bankerHand)
	natural := playerValue >= baccaratNatural || bankerValue >= baccaratNatural

	var playerThird *uint8
	bankerDrew := false
	if !natural {
		if PlayerShouldDraw(playerValue) {
			if err := drawTo(&playerHand); err != nil {
				return nil, err
			}
			third := baccaratPoint(playerHand[2])
			playerThird = &third
			playerValue = BaccaratValue(playerHand)
		}
		if BankerShouldDraw(bankerValue, playerThird) {
			if err := drawTo(&bankerHand); err != nil {
				return nil, err
			}
			bankerDrew = true
			bankerValue = BaccaratValue(bankerHand)
		}
	}

	winner := BaccaratTie
	if playerValue > bankerValue {
		winner = BaccaratPlayer
	} else if bankerValue > playerValue {
		winner = BaccaratBanker
	}

	return &BaccaratOutcome{
		Winner:          winner,
		PlayerHand:      playerHand,
		BankerHand:      bankerHand,
		PlayerScore:     playerValue,
		BankerScore:     bankerValue,
		Natural:         natural,
		BankerDrewThird: bankerDrew,
	}, nil
}

// SettleBaccarat is the total credited back for a wager: even money on
// the player side, even money less commission on the banker side, 8:1
// on a tie. Player/banker wagers push when the round ties.
func SettleBaccarat(bet uint64, kind, winner BaccaratBetKind) uint64 {
	switch {
	case kind == BaccaratPlayer && winner == BaccaratPlayer:
		return satMul(bet, 2)
	case kind == BaccaratBanker && winner == BaccaratBanker:
		commission := satMul(bet, bankerCommissionBP) / 10_000
		return satAdd(bet, bet-commission)
	case kind == BaccaratTie && winner == BaccaratTie:
		return satAdd(bet, satMul(bet, tiePayoutMult))
	case winner == BaccaratTie:
		// Push: stake back.
		return bet
	default:
		return 0
	}
}
