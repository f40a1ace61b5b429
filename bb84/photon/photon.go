// Package photon models the quantum channel between a BB84 sender and
// receiver, including an optional intercept-resend eavesdropper.
//
// Qubits are simulated classically as (bit, basis) pairs. A basis of false is
// the rectilinear basis and true the diagonal one. Measuring in the basis a
// qubit was prepared in recovers its bit; measuring in the other basis yields
// a fair coin flip.
package photon

import (
	"fmt"

	qerrors "github.com/alan-christopher/qkdsim/internal/errors"
)

// An Attacker performs an intercept-resend attack on a fraction of the qubits
// passing through a channel.
type Attacker struct {
	// ID names the attacker. Coordinated attackers carry a combined label.
	ID string

	// InterceptRate is the independent per-qubit probability that the
	// attacker measures and re-prepares a qubit. Must lie in [0, 1].
	InterceptRate float64
}

// Stats packages together counters observed while transmitting a batch of
// qubits.
type Stats struct {
	Sent        int
	Intercepted int
	// Disturbed counts intercepted qubits the attacker measured in the wrong
	// basis, i.e. those re-prepared in a basis other than the sender's.
	Disturbed int
	NoiseFlips int
}

func (a *Attacker) validate() error {
	if a == nil {
		return nil
	}
	if a.InterceptRate < 0 || a.InterceptRate > 1 {
		return fmt.Errorf("%w: intercept rate %v outside [0, 1]", qerrors.ErrInvalidInput, a.InterceptRate)
	}
	return nil
}
