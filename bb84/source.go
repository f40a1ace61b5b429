package bb84

import (
	"math/rand"

	"github.com/alan-christopher/qkdsim/bb84/bitmap"
)

// Generate draws n uniformly random bits and n independent, uniformly random
// bases from r. A non-positive n yields empty sequences.
func Generate(r *rand.Rand, n int) (bits, bases bitmap.Dense) {
	bits = bitmap.Random(r, n)
	bases = bitmap.Random(r, n)
	return bits, bases
}

// Bases draws n uniformly random measurement bases from r.
func Bases(r *rand.Rand, n int) bitmap.Dense {
	return bitmap.Random(r, n)
}
