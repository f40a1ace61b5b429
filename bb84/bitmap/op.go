package bitmap

import "fmt"

// byteAt returns the j-th byte of d, falling back to the implicit trailing
// value past the end of the backing slice.
func (d Dense) byteAt(j int) byte {
	if j < len(d.bits) {
		return d.bits[j]
	}
	if d.negated {
		return 0xFF
	}
	return 0
}

// And returns the bitwise AND of two bitmaps.
func And(a, b Dense) Dense {
	short, long := a, b
	if b.len < a.len {
		short, long = b, a
	}
	rLen := short.len
	if short.negated {
		rLen = long.len
	}
	r := Dense{
		bits:    make([]byte, 0, BytesFor(rLen)),
		len:     rLen,
		negated: a.negated && b.negated,
	}
	for j := 0; j < BytesFor(rLen); j++ {
		r.bits = append(r.bits, a.byteAt(j)&b.byteAt(j))
	}
	return r
}

// XOr returns the bitwise XOR of two bitmaps.
func XOr(a, b Dense) Dense {
	rLen := max(a.len, b.len)
	r := Dense{
		bits:    make([]byte, 0, BytesFor(rLen)),
		len:     rLen,
		negated: a.negated != b.negated,
	}
	for j := 0; j < BytesFor(rLen); j++ {
		r.bits = append(r.bits, a.byteAt(j)^b.byteAt(j))
	}
	return r
}

// XNor returns the bitwise XNOR of two bitmaps.
func XNor(a, b Dense) Dense {
	rLen := max(a.len, b.len)
	r := Dense{
		bits:    make([]byte, 0, BytesFor(rLen)),
		len:     rLen,
		negated: a.negated == b.negated,
	}
	for j := 0; j < BytesFor(rLen); j++ {
		r.bits = append(r.bits, ^(a.byteAt(j) ^ b.byteAt(j)))
	}
	return r
}

// Not returns the bitwise negation of a bitmap.
func Not(d Dense) Dense {
	r := Dense{
		bits:    make([]byte, 0, BytesFor(d.len)),
		len:     d.len,
		negated: !d.negated,
	}
	for j := 0; j < BytesFor(d.len); j++ {
		r.bits = append(r.bits, ^d.byteAt(j))
	}
	return r
}

// Slice returns a copy of the bits [start, end) of d.
func Slice(d Dense, start, end int) (Dense, error) {
	if start < 0 {
		return Dense{}, fmt.Errorf("slicing bitmap with negative start: %d", start)
	}
	if end < start {
		return Dense{}, fmt.Errorf("slicing bitmap to negative length: %d", end-start)
	}
	if end > d.len {
		return Dense{}, fmt.Errorf("slicing bitmap of len %d up to %d", d.len, end)
	}

	r := Dense{bits: make([]byte, 0, BytesFor(end-start))}
	for i := start; i < end; i++ {
		r.AppendBit(d.Get(i))
	}
	return r, nil
}
