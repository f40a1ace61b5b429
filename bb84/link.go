package bb84

import (
	"errors"
	"fmt"

	"github.com/alan-christopher/qkdsim/bb84/photon"
)

// RunLink performs one BB84 session between a sender and a single receiver:
// the sender prepares random qubits, the receiver measures them in random
// bases after they cross a possibly eavesdropped channel, both sides sift,
// and a sample of the sifted key is compared to decide whether the link is
// secure.
//
// Runs with identical options produce different keys but statistically
// identical error rates.
func RunLink(opts LinkOpts) (res LinkResult, err error) {
	if opts.Qubits <= 0 {
		return LinkResult{}, fmt.Errorf("%w: qubit count must be positive, got %d", ErrInvalidInput, opts.Qubits)
	}
	if opts.Rand == nil {
		return LinkResult{}, errors.New("must provide Rand")
	}
	assessOpts, err := AssessOpts{
		SampleFraction: opts.SampleFraction,
		Threshold:      opts.Threshold,
	}.withDefaults()
	if err != nil {
		return LinkResult{}, err
	}
	res = LinkResult{Receiver: opts.Receiver}
	if opts.Attacker != nil {
		res.Attacker = opts.Attacker.ID
		res.InterceptRate = opts.Attacker.InterceptRate
	}

	bits, sendBases := Generate(opts.Rand, opts.Qubits)
	recvBases := Bases(opts.Rand, opts.Qubits)
	channel := photon.NewSimulatedChannel(opts.Rand)
	channel.Noise = opts.Noise
	recvBits, cStats, err := channel.Transmit(bits, sendBases, recvBases, opts.Attacker)
	if err != nil {
		return LinkResult{}, fmt.Errorf("transmitting qubits: %w", err)
	}
	sifted, err := Sift(bits, sendBases, recvBases, recvBits)
	if err != nil {
		return LinkResult{}, fmt.Errorf("sifting: %w", err)
	}
	assessment, err := Assess(opts.Rand, sifted.Sender, sifted.Receiver, assessOpts)
	if err != nil {
		return LinkResult{}, fmt.Errorf("estimating QBER: %w", err)
	}

	res.SenderKey = sifted.Sender
	res.ReceiverKey = sifted.Receiver
	res.Assessment = assessment
	res.KeyLength = sifted.Size()
	res.Stats = Stats{
		Qubits:         opts.Qubits,
		Intercepted:    cStats.Intercepted,
		Disturbed:      cStats.Disturbed,
		NoiseFlips:     cStats.NoiseFlips,
		Sifted:         sifted.Size(),
		BasisMatchRate: float64(sifted.Size()) / float64(opts.Qubits),
	}
	if opts.Compress && assessment.Secure {
		res.SecretKey, err = Compress(opts.Rand, assessment.FinalKey, assessment.QBER)
		if err != nil {
			return LinkResult{}, fmt.Errorf("compressing key: %w", err)
		}
	}
	return res, nil
}
