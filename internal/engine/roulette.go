package engine

import "fmt"

// Single-zero wheel: pockets 0..36.
const roulettePockets = 37

var rouletteBlack = [...]uint8{2, 4, 6, 8, 10, 11, 13, 15, 17, 20, 22, 24, 26, 28, 29, 31, 33, 35}

// RouletteBetKind is the closed set of supported wagers.
type RouletteBetKind string

const (
	RouletteNumber RouletteBetKind = "number"
	RouletteRed    RouletteBetKind = "red"
	RouletteBlack  RouletteBetKind = "black"
	RouletteEven   RouletteBetKind = "even"
	RouletteOdd    RouletteBetKind = "odd"
	RouletteLow    RouletteBetKind = "low"
	RouletteHigh   RouletteBetKind = "high"
)

// RouletteBet is one wager. Number is consulted only for number bets.
type RouletteBet struct {
	Kind   RouletteBetKind `json:"kind"`
	Number uint8           `json:"number,omitempty"`
	Amount uint64          `json:"amount"`
}

// SpinWheel derives the winning pocket from the seed.
func SpinWheel(seed uint64) uint8 {
	return uint8(NewRng(seed).Next() % roulettePockets)
}

// IsBlackNumber reports whether a non-zero pocket is black.
func IsBlackNumber(n uint8) bool {
	for _, b := range rouletteBlack {
		if b == n {
			return true
		}
	}
	return false
}

// ValidateRouletteBets checks the bet slip and returns the total stake.
func ValidateRouletteBets(bets []RouletteBet) (uint64, error) {
	var total uint64
	for _, b := range bets {
		switch b.Kind {
		case RouletteNumber:
			if b.Number >= roulettePockets {
				return 0, fmt.Errorf("number bet out of range: %d", b.Number)
			}
		case RouletteRed, RouletteBlack, RouletteEven, RouletteOdd, RouletteLow, RouletteHigh:
		default:
			return 0, fmt.Errorf("unknown roulette bet kind %q", b.Kind)
		}
		if b.Amount == 0 {
			return 0, fmt.Errorf("zero-amount roulette bet")
		}
		total = satAdd(total, b.Amount)
	}
	if total == 0 {
		return 0, fmt.Errorf("empty bet slip")
	}
	return total, nil
}

func rouletteBetWins(b RouletteBet, winning uint8) bool {
	black := IsBlackNumber(winning)
	switch b.Kind {
	case RouletteNumber:
		return b.Number == winning
	case RouletteRed:
		return winning != 0 && !black
	case RouletteBlack:
		return black
	case RouletteEven:
		return winning != 0 && winning%2 == 0
	case RouletteOdd:
		return winning != 0 && winning%2 == 1
	case RouletteLow:
		return winning >= 1 && winning <= 18
	case RouletteHigh:
		return winning >= 19 && winning <= 36
	}
	return false
}

// RoulettePayout totals the amount credited back for a slip: a number
// hit returns 36x the stake (35:1 plus the stake itself), every other
// winning bet returns 2x.
func RoulettePayout(bets []RouletteBet, winning uint8) uint64 {
	var total uint64
	for _, b := range bets {
		if !rouletteBetWins(b, winning) {
			continue
		}
		mult := uint64(2)
		if b.Kind == RouletteNumber {
			mult = 36
		}
		total = satAdd(total, satMul(b.Amount, mult))
	}
	return total
}

func satAdd(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}
