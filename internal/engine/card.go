package engine

// Card is an immutable rank/suit pair. Rank 0 is the ace, 9..12 are
// ten through king; suits are clubs, diamonds, hearts, spades.
type Card struct {
	Rank uint8 `json:"rank"` // 0..12
	Suit uint8 `json:"suit"` // 0..3
}

// CardFromIndex maps 0..51 onto a card, suit-major.
func CardFromIndex(i uint8) Card {
	return Card{Rank: i % 13, Suit: i / 13}
}

func (c Card) String() string {
	var rch byte
	switch c.Rank {
	case 0:
		rch = 'A'
	case 9:
		rch = 'T'
	case 10:
		rch = 'J'
	case 11:
		rch = 'Q'
	case 12:
		rch = 'K'
	default:
		rch = byte('1' + c.Rank) // ranks 1..8 are the pips 2..9
	}
	var sch byte
	switch c.Suit {
	case 0:
		sch = 'c'
	case 1:
		sch = 'd'
	case 2:
		sch = 'h'
	case 3:
		sch = 's'
	default:
		sch = '?'
	}
	return string([]byte{rch, sch})
}

// blackjackValue is the hard value of a single card with aces high.
func blackjackValue(c Card) uint8 {
	switch {
	case c.Rank == 0:
		return 11
	case c.Rank >= 9:
		return 10
	default:
		return c.Rank + 1
	}
}

// baccaratPoint is the baccarat point value: ace 1, pips at face, tens
// and court cards 0.
func baccaratPoint(c Card) uint8 {
	switch {
	case c.Rank == 0:
		return 1
	case c.Rank >= 9:
		return 0
	default:
		return c.Rank + 1
	}
}

// BlackjackValue sums a hand with aces counted as 11, then softens one
// ace at a time while the total is over 21.
func BlackjackValue(cards []Card) uint8 {
	var total uint8
	aces := 0
	for _, c := range cards {
		total = satAdd8(total, blackjackValue(c))
		if c.Rank == 0 {
			aces++
		}
	}
	for total > blackjackTarget && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// BaccaratValue is the hand's point sum modulo 10.
func BaccaratValue(cards []Card) uint8 {
	var sum uint16
	for _, c := range cards {
		sum += uint16(baccaratPoint(c))
	}
	return uint8(sum % 10)
}

func satAdd8(a, b uint8) uint8 {
	if a > 255-b {
		return 255
	}
	return a + b
}
