package bb84

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/alan-christopher/qkdsim/bb84/bitmap"
)

// A toeplitz represents a matrix whose diagonals are all constant. It operates
// in F_2, i.e. all of its scalars are 0 or 1.
type toeplitz struct {
	// The diagonal constants for this toeplitz matrix, starting from the bottom
	// left and ending with the top right.
	diags bitmap.Dense

	m int
	n int
}

// TODO: surely there are ways to take advantage of the structure of a toeplitz
//   matrix to achieve vector mul in better than O(mn) time.
// Mul computes the matrix product Av between the toeplitz matrix t and the
// provided vector.
func (t toeplitz) Mul(vec bitmap.Dense) (bitmap.Dense, error) {
	if t.diags.Size() < t.m+t.n-1 {
		return bitmap.Dense{}, fmt.Errorf("improper toeplitz construction, has %d diagonals, needs %d", t.diags.Size(), t.m+t.n-1)
	}
	if t.n != vec.Size() {
		return bitmap.Dense{}, fmt.Errorf("multiplying %dx%d matrix into %d-dim vector", t.m, t.n, vec.Size())
	}

	r := bitmap.Dense{}
	for off := t.m - 1; off >= 0; off-- {
		row, err := bitmap.Slice(t.diags, off, off+t.n)
		if err != nil {
			return bitmap.Empty(), err
		}
		r.AppendBit(bitmap.Parity(bitmap.And(row, vec)))
	}
	return r, nil
}

// CompressedLength returns the length a residual key of n bits is compressed
// to after an observed error rate of qber: every observed error is assumed to
// have leaked two bits to the eavesdropper.
func CompressedLength(n int, qber float64) int {
	m := n - int(math.Ceil(2*qber*float64(n)))
	return max(0, m)
}

// Compress hashes key down to CompressedLength(key.Size(), qber) bits with a
// random toeplitz matrix whose diagonals are drawn from r. This is a
// demonstration of privacy amplification, not a proven extractor.
func Compress(r *rand.Rand, key bitmap.Dense, qber float64) (bitmap.Dense, error) {
	n := key.Size()
	m := CompressedLength(n, qber)
	if m == 0 {
		return bitmap.Empty(), nil
	}
	t := toeplitz{
		diags: bitmap.Random(r, m+n-1),
		m:     m,
		n:     n,
	}
	return t.Mul(key)
}

// MAC computes an authentication tag for msg as in Wegman-Carter: msg is
// hashed by the toeplitz matrix with diagonals diags, then masked with the
// one-time pad. The tag has len(pad) bytes, and diags must hold at least
// 8*(len(pad)+len(msg))-1 bits. Neither diags nor pad may be reused. See
// also, https://arxiv.org/abs/1603.08387.
func MAC(diags bitmap.Dense, pad, msg []byte) ([]byte, error) {
	m, n := len(pad)*8, len(msg)*8
	if m == 0 {
		return nil, fmt.Errorf("%w: empty one-time pad", ErrInvalidInput)
	}
	if diags.Size() < m+n-1 {
		return nil, fmt.Errorf("%w: hash key has %d bits, need %d", ErrInvalidInput, diags.Size(), m+n-1)
	}
	t := toeplitz{diags: diags, m: m, n: n}
	hash, err := t.Mul(bitmap.NewDense(msg, -1))
	if err != nil {
		return nil, err
	}
	return bitmap.XOr(hash, bitmap.NewDense(pad, -1)).Data(), nil
}
