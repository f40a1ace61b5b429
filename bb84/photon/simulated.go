package photon

import (
	"fmt"
	"math/rand"

	"github.com/alan-christopher/qkdsim/bb84/bitmap"
	qerrors "github.com/alan-christopher/qkdsim/internal/errors"
)

// A SimulatedChannel carries qubits from a sender to a receiver, optionally
// through an eavesdropper. It is not safe for concurrent use; give each
// goroutine its own channel and random source.
type SimulatedChannel struct {
	// Noise is the independent per-qubit probability that the channel flips
	// the bit the receiver measures, regardless of bases. Must lie in [0, 1].
	Noise float64

	rand *rand.Rand
}

// NewSimulatedChannel returns a channel drawing all of its randomness from r.
func NewSimulatedChannel(r *rand.Rand) *SimulatedChannel {
	return &SimulatedChannel{rand: r}
}

// Transmit sends the qubits described by bits and sendBases to a receiver
// measuring in recvBases, and returns the bits the receiver observes.
//
// When eve is non-nil, each qubit is independently intercepted with
// probability eve.InterceptRate. An intercepted qubit is measured in a
// uniformly random basis and re-prepared in that basis, so any later basis
// mismatch, whether against the sender or against eve, yields a fair coin.
func (c *SimulatedChannel) Transmit(bits, sendBases, recvBases bitmap.Dense, eve *Attacker) (bitmap.Dense, Stats, error) {
	n := bits.Size()
	if sendBases.Size() != n || recvBases.Size() != n {
		return bitmap.Empty(), Stats{}, qerrors.Mismatch("bit/send basis/receive basis", n, sendBases.Size(), recvBases.Size())
	}
	if err := eve.validate(); err != nil {
		return bitmap.Empty(), Stats{}, err
	}
	if c.Noise < 0 || c.Noise > 1 {
		return bitmap.Empty(), Stats{}, fmt.Errorf("%w: channel noise %v outside [0, 1]", qerrors.ErrInvalidInput, c.Noise)
	}

	stats := Stats{Sent: n}
	curBits, curBases := bits, sendBases
	if eve != nil {
		curBits, curBases = c.intercept(bits, sendBases, eve, &stats)
	}

	flips := bitmap.Random(c.rand, n)
	flips = bitmap.And(flips, bitmap.XOr(curBases, recvBases))
	if c.Noise > 0 {
		noise := c.noiseMask(n)
		stats.NoiseFlips = bitmap.CountOnes(noise)
		flips = bitmap.XOr(flips, noise)
	}
	return bitmap.XOr(curBits, flips), stats, nil
}

// intercept runs eve's measure-and-resend attack, returning the bits and bases
// of the qubits as they leave her.
func (c *SimulatedChannel) intercept(bits, bases bitmap.Dense, eve *Attacker, s *Stats) (outBits, outBases bitmap.Dense) {
	n := bits.Size()
	outBits = bitmap.NewDense(nil, n)
	outBases = bitmap.NewDense(nil, n)
	for i := 0; i < n; i++ {
		bit, basis := bits.Get(i), bases.Get(i)
		if c.rand.Float64() < eve.InterceptRate {
			s.Intercepted++
			eveBasis := c.rand.Intn(2) == 1
			if eveBasis != basis {
				s.Disturbed++
				bit = c.rand.Intn(2) == 1
			}
			basis = eveBasis
		}
		outBits.Set(i, bit)
		outBases.Set(i, basis)
	}
	return outBits, outBases
}

func (c *SimulatedChannel) noiseMask(n int) bitmap.Dense {
	m := bitmap.NewDense(nil, n)
	for i := 0; i < n; i++ {
		if c.rand.Float64() < c.Noise {
			m.Set(i, true)
		}
	}
	return m
}
