package engine

// rngSeedFallback replaces a zero seed: the xorshift stream has an
// all-zero fixed point, and replay on both sides must agree on the
// substitute.
const rngSeedFallback uint64 = 0x9e3779b185ebca87

// Rng is the protocol's xorshift stream. Bank-side replay and
// player-side execution must produce bit-identical draws, so the update
// below is fixed and must not be altered.
type Rng struct {
	state uint64
}

func NewRng(seed uint64) *Rng {
	if seed == 0 {
		seed = rngSeedFallback
	}
	return &Rng{state: seed}
}

// Next advances the stream and returns the new state.
func (r *Rng) Next() uint64 {
	x := r.state
	x ^= x << 7
	x ^= x >> 9
	x ^= x << 8
	r.state = x
	return x
}
