// Package bb84 simulates BB84 quantum key distribution over a single
// sender-to-receiver link: qubit preparation, transmission through an
// optionally eavesdropped channel, basis sifting, and QBER estimation with a
// security decision.
package bb84

import (
	"math/rand"

	"github.com/alan-christopher/qkdsim/bb84/bitmap"
	"github.com/alan-christopher/qkdsim/bb84/photon"
	qerrors "github.com/alan-christopher/qkdsim/internal/errors"
)

var (
	DefaultThreshold      = 0.11
	DefaultSampleFraction = 0.2
)

var (
	// ErrInvalidInput is returned for unusable parameters, e.g. a
	// non-positive qubit count.
	ErrInvalidInput = qerrors.ErrInvalidInput

	// ErrInputMismatch is returned when sequences that must align position
	// by position differ in length. It matches ErrInvalidInput.
	ErrInputMismatch = qerrors.ErrInputMismatch
)

// Stats packages together a collection of potentially interesting metrics
// pertaining to a single link session.
type Stats struct {
	Qubits      int `json:"qubits"`
	Intercepted int `json:"intercepted"`
	Disturbed   int `json:"disturbed"`
	NoiseFlips  int `json:"noise_flips"`
	Sifted      int `json:"sifted"`
	// BasisMatchRate is the fraction of qubits that survived sifting.
	BasisMatchRate float64 `json:"basis_match_rate"`
}

// A LinkOpts packages together the arguments necessary to run a single link
// session. Zero-valued optional fields take the package defaults.
type LinkOpts struct {
	// Receiver names the receiving party. Optional.
	Receiver string

	// Qubits specifies the number of qubits to exchange. Must be positive.
	Qubits int

	// Rand provides every random draw of the session: sender bits and bases,
	// receiver bases, eavesdropper choices, sampling, and compression seeds.
	// Must be non-nil.
	Rand *rand.Rand

	// Attacker, if non-nil, intercepts the link.
	Attacker *photon.Attacker

	// Noise is the channel's intrinsic bit flip probability.
	Noise float64

	// SampleFraction and Threshold configure error estimation, see
	// AssessOpts.
	SampleFraction float64
	Threshold      float64

	// Compress, if set, compresses the residual key of a secure link into
	// LinkResult.SecretKey.
	Compress bool
}

// A LinkResult is the outcome of a single link session.
type LinkResult struct {
	Receiver      string  `json:"receiver"`
	Attacker      string  `json:"attacker,omitempty"`
	InterceptRate float64 `json:"intercept_rate"`

	// SenderKey and ReceiverKey are the sifted keys of each party.
	SenderKey   bitmap.Dense `json:"sender_key"`
	ReceiverKey bitmap.Dense `json:"receiver_key"`

	Assessment Assessment `json:"assessment"`

	// KeyLength is the length of the sifted key.
	KeyLength int `json:"key_length"`

	// SecretKey is the compressed residual key, populated only when
	// compression was requested and the link is secure.
	SecretKey bitmap.Dense `json:"secret_key"`

	Stats Stats `json:"stats"`

	// Error carries a diagnostic when the session failed. Failed sessions
	// are never secure.
	Error string `json:"error,omitempty"`
}

// QBER is shorthand for r.Assessment.QBER.
func (r LinkResult) QBER() float64 {
	return r.Assessment.QBER
}

// Secure is shorthand for r.Assessment.Secure.
func (r LinkResult) Secure() bool {
	return r.Assessment.Secure
}
