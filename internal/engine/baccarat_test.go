package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlayerDrawRule(t *testing.T) {
	for v := uint8(0); v <= 5; v++ {
		require.True(t, PlayerShouldDraw(v), "value %d", v)
	}
	require.False(t, PlayerShouldDraw(6))
	require.False(t, PlayerShouldDraw(7))
}

func TestBankerTableau(t *testing.T) {
	third := func(v uint8) *uint8 { return &v }

	// Banker 0..2 always draws.
	for bv := uint8(0); bv <= 2; bv++ {
		for pt := uint8(0); pt <= 9; pt++ {
			require.True(t, BankerShouldDraw(bv, third(pt)), "banker %d third %d", bv, pt)
		}
	}

	// Banker 3 draws unless the player's third card is an 8.
	for pt := uint8(0); pt <= 9; pt++ {
		want := pt != 8
		require.Equal(t, want, BankerShouldDraw(3, third(pt)), "third %d", pt)
	}

	// Banker 4 draws on 2-7.
	for pt := uint8(0); pt <= 9; pt++ {
		want := pt >= 2 && pt <= 7
		require.Equal(t, want, BankerShouldDraw(4, third(pt)), "third %d", pt)
	}

	// Banker 5 draws on 4-7.
	for pt := uint8(0); pt <= 9; pt++ {
		want := pt >= 4 && pt <= 7
		require.Equal(t, want, BankerShouldDraw(5, third(pt)), "third %d", pt)
	}

	// Banker 6 draws on 6-7.
	for pt := uint8(0); pt <= 9; pt++ {
		want := pt == 6 || pt == 7
		require.Equal(t, want, BankerShouldDraw(6, third(pt)), "third %d", pt)
	}

	// Banker 7+ stands.
	require.False(t, BankerShouldDraw(7, third(6)))
	require.False(t, BankerShouldDraw(8, nil))

	// Player stood pat: banker draws on 0-5.
	for bv := uint8(0); bv <= 5; bv++ {
		require.True(t, BankerShouldDraw(bv, nil), "banker %d", bv)
	}
	require.False(t, BankerShouldDraw(6, nil))
}

func TestPlayBaccaratIsDeterministic(t *testing.T) {
	a, err := PlayBaccarat(777)
	require.NoError(t, err)
	b, err := PlayBaccarat(777)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestPlayBaccaratHandShapes(t *testing.T) {
	for seed := uint64(1); seed <= 100; seed++ {
		out, err := PlayBaccarat(seed)
		require.NoError(t, err)

		require.GreaterOrEqual(t, len(out.PlayerHand), 2)
		require.LessOrEqual(t, len(out.PlayerHand), 3)
		require.GreaterOrEqual(t, len(out.BankerHand), 2)
		require.LessOrEqual(t, len(out.BankerHand), 3)

		require.Equal(t, BaccaratValue(out.PlayerHand), out.PlayerScore)
		require.Equal(t, BaccaratValue(out.BankerHand), out.BankerScore)

		switch {
		case out.PlayerScore > out.BankerScore:
			require.Equal(t, BaccaratPlayer, out.Winner)
		case out.BankerScore > out.PlayerScore:
			require.Equal(t, BaccaratBanker, out.Winner)
		default:
			require.Equal(t, BaccaratTie, out.Winner)
		}

		if out.Natural {
			require.Len(t, out.PlayerHand, 2)
			require.Len(t, out.BankerHand, 2)
		}
	}
}

func TestSettleBaccarat(t *testing.T) {
	// Even money on the player side.
	require.Equal(t, uint64(200), SettleBaccarat(100, BaccaratPlayer, BaccaratPlayer))
	// Banker win pays even money less 5% commission: 100 -> 195.
	require.Equal(t, uint64(195), SettleBaccarat(100, BaccaratBanker, BaccaratBanker))
	// Tie pays 8:1 plus the stake.
	require.Equal(t, uint64(900), SettleBaccarat(100, BaccaratTie, BaccaratTie))
	// Player/banker wagers push on a tie.
	require.Equal(t, uint64(100), SettleBaccarat(100, BaccaratPlayer, BaccaratTie))
	require.Equal(t, uint64(100), SettleBaccarat(100, BaccaratBanker, BaccaratTie))
	// Losses.
	require.Equal(t, uint64(0), SettleBaccarat(100, BaccaratPlayer, BaccaratBanker))
	require.Equal(t, uint64(0), SettleBaccarat(100, BaccaratBanker, BaccaratPlayer))
	require.Equal(t, uint64(0), SettleBaccarat(100, BaccaratTie, BaccaratPlayer))
}

func TestParseBaccaratBetKind(t *testing.T) {
	for _, s := range []string{"player", "banker", "tie"} {
		k, err := ParseBaccaratBetKind(s)
		require.NoError(t, err)
		require.Equal(t, BaccaratBetKind(s), k)
	}
	_, err := ParseBaccaratBetKind("dragon")
	require.Error(t, err)
}
