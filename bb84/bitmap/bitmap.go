// Package bitmap provides densely-packed bit sequences, used throughout the
// simulator for qubit values, measurement bases, and keys.
package bitmap

import (
	"fmt"
	"math/bits"
	"math/rand"
)

// TODO: this could be more efficient on many architectures if we used larger
//   blocks than 8-bit bytes.
const byteSize = 8

// Select selects a subset of bits from data, according to which bits are set in
// mask.
func Select(data, mask Dense) Dense {
	var d Dense
	for i := 0; i < data.Size(); i++ {
		if !mask.Get(i) {
			continue
		}
		d.AppendBit(data.Get(i))
	}
	return d
}

// Pick returns the bits of data at the given positions, in the order given.
// Positions outside of data read as the implicit trailing value.
func Pick(data Dense, idx []int) Dense {
	var d Dense
	for _, i := range idx {
		d.AppendBit(data.Get(i))
	}
	return d
}

// Mask returns a bitmap of length n with exactly the bits at idx set.
func Mask(n int, idx []int) Dense {
	d := NewDense(nil, n)
	for _, i := range idx {
		d.Set(i, true)
	}
	return d
}

// Empty returns an empty, dense bitmap.
func Empty() Dense {
	return Dense{}
}

// Random returns a bitmap of n independent, uniformly distributed bits drawn
// from r. A non-positive n yields an empty bitmap.
func Random(r *rand.Rand, n int) Dense {
	if n <= 0 {
		return Empty()
	}
	buf := make([]byte, BytesFor(n))
	r.Read(buf)
	if off := n % byteSize; off != 0 {
		buf[len(buf)-1] &= 0xFF >> (byteSize - off)
	}
	return NewDense(buf, n)
}

// FromString converts a string of '1's and '0's to a dense bitmap. Spaces are
// ignored.
func FromString(s string) (Dense, error) {
	d := Dense{}
	for _, c := range s {
		switch c {
		case '1':
			d.AppendBit(true)
		case '0':
			d.AppendBit(false)
		case ' ':
			continue
		default:
			return Dense{}, fmt.Errorf("invalid bitmap string rep: %s", s)
		}
	}
	return d, nil
}

// FromInts converts a slice of 0s and 1s to a dense bitmap.
func FromInts(vals []int) (Dense, error) {
	d := Dense{}
	for i, v := range vals {
		switch v {
		case 0:
			d.AppendBit(false)
		case 1:
			d.AppendBit(true)
		default:
			return Dense{}, fmt.Errorf("invalid bit value %d at position %d", v, i)
		}
	}
	return d, nil
}

// Parity returns the overall parity of d, with true corresponding to 1 and
// false to 0.
func Parity(d Dense) bool {
	var sum byte
	for _, b := range d.bits {
		sum ^= b
	}
	return bits.OnesCount8(sum)%2 == 1
}

// CountOnes returns the total number of bits set in d.
func CountOnes(d Dense) int {
	var sum int
	for _, b := range d.bits {
		sum += bits.OnesCount8(b)
	}
	return sum
}

// Equal returns true iff a and b have the same length and contain the same
// bits.
func Equal(a, b Dense) bool {
	if a.Size() != b.Size() {
		return false
	}
	for i := 0; i < a.Size(); i++ {
		if a.Get(i) != b.Get(i) {
			return false
		}
	}
	return true
}

// BytesFor returns the number of bytes necessary to hold the provided number of
// bits.
func BytesFor(bits int) int {
	return (bits + 8 - 1) / 8
}
