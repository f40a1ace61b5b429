package bitmap

import (
	"encoding/json"
	"math/rand"
	"strings"
)

// A Dense is a bitmap where every bit is explicitly represented.
type Dense struct {
	bits []byte
	len  int

	negated bool
}

// NewDense returns a new dense bitmap whose contents are a view of data, and
// whose length is bitLen. If bitLen is longer than data, then trailing zeros
// are added. If bitLen is negative, then it is inferred from data.
func NewDense(data []byte, bitLen int) Dense {
	if bitLen < 0 {
		bitLen = len(data) * byteSize
	}
	r := Dense{
		bits: data,
		len:  bitLen,
	}
	r.allocSpace()
	return r
}

// Get returns the i-th bit in this bitmap.
func (d Dense) Get(i int) bool {
	if i < 0 || i >= d.len {
		return d.negated
	}
	j, pos := i/byteSize, i%byteSize
	if j >= len(d.bits) {
		return d.negated
	}
	block := d.bits[j]
	return 0 < block&(1<<pos)
}

// Set sets the i-th bit in this bitmap to v. Setting past the end is a no-op.
func (d *Dense) Set(i int, v bool) {
	if i < 0 || i >= d.len {
		return
	}
	if d.Get(i) != v {
		d.Flip(i)
	}
}

// Size returns the number of bits in this bitmap, excluding implicit trailing
// zeros.
func (d Dense) Size() int {
	return d.len
}

// SizeBytes returns the number of bytes in this bitmap, excluding implicit
// trailing zeros.
func (d Dense) SizeBytes() int {
	return BytesFor(d.len)
}

// Data returns a view of the bytes underlying this bitmap. Modifying the
// returned slice modifies this bitmap.
func (d Dense) Data() []byte {
	return d.bits
}

// Ints returns the bits of d as a slice of 0s and 1s.
func (d Dense) Ints() []int {
	r := make([]int, 0, d.len)
	for i := 0; i < d.len; i++ {
		if d.Get(i) {
			r = append(r, 1)
		} else {
			r = append(r, 0)
		}
	}
	return r
}

// String renders d as a string of '0's and '1's.
func (d Dense) String() string {
	var sb strings.Builder
	sb.Grow(d.len)
	for i := 0; i < d.len; i++ {
		if d.Get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// MarshalJSON encodes d as an array of 0s and 1s.
func (d Dense) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Ints())
}

// UnmarshalJSON decodes an array of 0s and 1s into d.
func (d *Dense) UnmarshalJSON(b []byte) error {
	var vals []int
	if err := json.Unmarshal(b, &vals); err != nil {
		return err
	}
	r, err := FromInts(vals)
	if err != nil {
		return err
	}
	*d = r
	return nil
}

// Shuffle randomly permutes the contents of d, using r as a source of
// randomness.
func (d *Dense) Shuffle(r *rand.Rand) {
	r.Shuffle(d.len, d.swap)
}

func (d *Dense) swap(i, j int) {
	a, b := d.Get(i), d.Get(j)
	if a == b {
		return
	}
	d.Flip(i)
	d.Flip(j)
}

// Flip inverts the i-th bit of d.
func (d *Dense) Flip(i int) {
	j, pos := i/byteSize, i%byteSize
	d.bits[j] ^= 1 << pos
}

func (d *Dense) allocSpace() {
	var defVal byte
	if d.negated {
		defVal = 0xFF
	}
	for len(d.bits) < d.SizeBytes() {
		d.bits = append(d.bits, defVal)
	}
}

// AppendBit adds a single bit to the end of d.
func (d *Dense) AppendBit(bit bool) {
	i, pos := d.len/byteSize, d.len%byteSize
	d.len += 1
	if pos == 0 && len(d.bits) <= i {
		d.bits = append(d.bits, 0)
	}
	if bit {
		d.bits[i] |= 1 << pos
	} else {
		d.bits[i] &= ^(1 << pos)
	}
}

// Append adds the contents of d2 to the end of d.
func (d *Dense) Append(d2 Dense) {
	for i := 0; i < d2.Size(); i++ {
		d.AppendBit(d2.Get(i))
	}
	d.fixLastByte()
}

func (d *Dense) fixLastByte() {
	if !d.negated {
		return
	}
	j, off := d.len/byteSize, d.len%byteSize
	if off == 0 {
		return
	}
	d.bits[j] |= 0xFF << off
}
