package bb84

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/alan-christopher/qkdsim/bb84/bitmap"
	qerrors "github.com/alan-christopher/qkdsim/internal/errors"
)

// AssessOpts configures error estimation. Zero fields take the package
// defaults.
type AssessOpts struct {
	// SampleFraction specifies the proportion of sifted bits publicly
	// compared to estimate the QBER. Must lie in (0, 1]. Higher fractions
	// tighten the estimate at the cost of key length.
	SampleFraction float64

	// Threshold is the highest QBER still considered secure.
	Threshold float64
}

func (o AssessOpts) withDefaults() (AssessOpts, error) {
	if o.SampleFraction == 0 {
		o.SampleFraction = DefaultSampleFraction
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.SampleFraction < 0 || o.SampleFraction > 1 || math.IsNaN(o.SampleFraction) {
		return o, fmt.Errorf("%w: sample fraction %v outside (0, 1]", ErrInvalidInput, o.SampleFraction)
	}
	if o.Threshold < 0 || o.Threshold > 1 || math.IsNaN(o.Threshold) {
		return o, fmt.Errorf("%w: threshold %v outside [0, 1]", ErrInvalidInput, o.Threshold)
	}
	return o, nil
}

// An Assessment is the outcome of comparing a random sample of a sifted key.
type Assessment struct {
	SampleSize int     `json:"sample_size"`
	Mismatches int     `json:"mismatches"`
	QBER       float64 `json:"qber"`
	Secure     bool    `json:"secure"`
	Threshold  float64 `json:"threshold"`

	// SampleIndices are the sifted positions that were publicly compared.
	SampleIndices []int `json:"sample_indices"`

	// FinalKey and ReceiverFinalKey are the sifted keys with the sampled
	// positions removed. They were never revealed, and agree wherever the
	// channel introduced no errors.
	FinalKey         bitmap.Dense `json:"final_key"`
	ReceiverFinalKey bitmap.Dense `json:"receiver_final_key"`
}

// Assess estimates the QBER of a sifted key pair by comparing
// max(1, round(SampleFraction*len)) positions drawn uniformly without
// replacement from r.
//
// An empty sifted key yields an insecure assessment with a QBER of 1: with
// nothing to compare, nothing can be trusted.
func Assess(r *rand.Rand, sender, receiver bitmap.Dense, opts AssessOpts) (Assessment, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return Assessment{}, err
	}
	n := sender.Size()
	if receiver.Size() != n {
		return Assessment{}, qerrors.Mismatch("sifted key", n, receiver.Size())
	}
	if n == 0 {
		return emptyAssessment(opts.Threshold), nil
	}
	k := int(math.Round(opts.SampleFraction * float64(n)))
	k = min(max(1, k), n)
	idx := r.Perm(n)[:k]
	sort.Ints(idx)
	return AssessSample(sender, receiver, idx, opts.Threshold)
}

// AssessSample computes the assessment for a fixed sample. It is
// deterministic: identical inputs always yield the identical assessment.
func AssessSample(sender, receiver bitmap.Dense, idx []int, threshold float64) (Assessment, error) {
	n := sender.Size()
	if receiver.Size() != n {
		return Assessment{}, qerrors.Mismatch("sifted key", n, receiver.Size())
	}
	seen := make(map[int]bool, len(idx))
	for _, i := range idx {
		if i < 0 || i >= n {
			return Assessment{}, fmt.Errorf("%w: sample index %d outside sifted key of len %d", ErrInvalidInput, i, n)
		}
		if seen[i] {
			return Assessment{}, fmt.Errorf("%w: sample index %d repeated", ErrInvalidInput, i)
		}
		seen[i] = true
	}
	if len(idx) == 0 {
		return emptyAssessment(threshold), nil
	}

	mismatches := bitmap.CountOnes(bitmap.XOr(bitmap.Pick(sender, idx), bitmap.Pick(receiver, idx)))
	qber := float64(mismatches) / float64(len(idx))
	keep := bitmap.Not(bitmap.Mask(n, idx))
	return Assessment{
		SampleSize:       len(idx),
		Mismatches:       mismatches,
		QBER:             qber,
		Secure:           qber <= threshold,
		Threshold:        threshold,
		SampleIndices:    append([]int(nil), idx...),
		FinalKey:         bitmap.Select(sender, keep),
		ReceiverFinalKey: bitmap.Select(receiver, keep),
	}, nil
}

func emptyAssessment(threshold float64) Assessment {
	return Assessment{
		QBER:          1,
		Secure:        false,
		Threshold:     threshold,
		SampleIndices: []int{},
	}
}
