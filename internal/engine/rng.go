package engine

import "math/rand"

// Rng is the randomness source consumed by the resolvers. Keeping it an
// explicit argument (instead of calling the global generator inline)
// lets tests pin every luck roll and loyalty drop.
type Rng interface {
	Float64() float64
	Intn(n int) int
}

type systemRng struct{}

func (systemRng) Float64() float64 { return rand.Float64() }
func (systemRng) Intn(n int) int   { return rand.Intn(n) }

// System is the production randomness source backed by math/rand.
var System Rng = systemRng{}
