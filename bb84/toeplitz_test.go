package bb84

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/alan-christopher/qkdsim/bb84/bitmap"
)

func TestToeplitzMul(t *testing.T) {
	tcs := []struct {
		mat  toeplitz
		vec  bitmap.Dense
		eout bitmap.Dense
	}{
		{
			// (0 1 0)
			// (0 0 1)
			// (1 0 0)
			mat: toeplitz{
				diags: bitmap.NewDense([]byte{0b01001}, 5),
				m:     3,
				n:     3,
			},
			// (0 1 1)^T
			vec: bitmap.NewDense([]byte{0b110}, 3),
			// (1 1 0)^T
			eout: bitmap.NewDense([]byte{0b011}, 3),
		}, {
			// (0 0)
			// (1 0)
			// (0 1)
			// (1 0)
			mat: toeplitz{
				diags: bitmap.NewDense([]byte{0b00101}, 5),
				m:     4,
				n:     2,
			},
			// (1 0)^T
			vec: bitmap.NewDense([]byte{0b01}, 2),
			// (0 1 0 1)^T
			eout: bitmap.NewDense([]byte{0b1010}, 4),
		}, {
			// (1 1 1 0)
			// (0 1 1 1)
			mat: toeplitz{
				diags: bitmap.NewDense([]byte{0b01110}, 5),
				m:     2,
				n:     4,
			},
			// (0 1 0 1)^T
			vec: bitmap.NewDense([]byte{0b01}, 4),
			// (1 0)^T
			eout: bitmap.NewDense([]byte{0b01}, 2),
		},
	}

	for _, tc := range tcs {
		t.Run(fmt.Sprintf("%dx%d", tc.mat.m, tc.mat.n), func(t *testing.T) {
			out, err := tc.mat.Mul(tc.vec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Size() != tc.eout.Size() {
				t.Errorf("got bitmap of len %d, want %d", out.Size(), tc.eout.Size())
			}
			outArr := out.Data()
			eoutArr := tc.eout.Data()
			if !bytes.Equal(outArr, eoutArr) {
				t.Errorf("T*v == %v, want %v", outArr, eoutArr)
			}
		})
	}
}

func TestToeplitzShape(t *testing.T) {
	tcs := []struct {
		name string
		mat  toeplitz
		vec  bitmap.Dense
		eErr bool
	}{
		{
			name: "mismatched dims",
			mat: toeplitz{
				diags: bitmap.NewDense(nil, 5),
				m:     3,
				n:     3,
			},
			vec:  bitmap.NewDense(nil, 2),
			eErr: true,
		}, {
			name: "insufficient diags",
			mat: toeplitz{
				diags: bitmap.NewDense(nil, 2),
				m:     3,
				n:     3,
			},
			vec:  bitmap.NewDense(nil, 3),
			eErr: true,
		}, {
			name: "extra diags",
			mat: toeplitz{
				diags: bitmap.NewDense(nil, 1024),
				m:     3,
				n:     3,
			},
			vec:  bitmap.NewDense(nil, 3),
			eErr: false,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.mat.Mul(tc.vec)
			if !tc.eErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tc.eErr && err == nil {
				t.Errorf("expected error: got nil")
			}
		})
	}
}

func BenchmarkToeplitzMul(b *testing.B) {
	m := 40
	n := 655360
	bd := make([]byte, (m+n)/8+1)
	rand.Read(bd)
	t := toeplitz{
		diags: bitmap.NewDense(bd, m+n),
		m:     m,
		n:     n,
	}
	bx := make([]byte, n/8+1)
	rand.Read(bx)
	x := bitmap.NewDense(bx, n)
	b.ResetTimer()
	if _, err := t.Mul(x); err != nil {
		b.Errorf("multiplying: %v", err)
	}
}

func TestCompressedLength(t *testing.T) {
	tcs := []struct {
		n    int
		qber float64
		eout int
	}{
		{100, 0, 100},
		{100, 0.05, 90},
		{100, 0.11, 78},
		{10, 0.5, 0},
		{0, 0, 0},
	}
	for _, tc := range tcs {
		if got := CompressedLength(tc.n, tc.qber); got != tc.eout {
			t.Errorf("CompressedLength(%d, %v) == %d, want %d", tc.n, tc.qber, got, tc.eout)
		}
	}
}

func TestCompress(t *testing.T) {
	key := bitmap.Random(rand.New(rand.NewSource(3)), 200)
	a, err := Compress(rand.New(rand.NewSource(42)), key, 0.05)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if a.Size() != 180 {
		t.Errorf("Compress() has len %d, want 180", a.Size())
	}
	b, err := Compress(rand.New(rand.NewSource(42)), key, 0.05)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !bitmap.Equal(a, b) {
		t.Errorf("Compress() with identical seeds disagrees: %v != %v", a, b)
	}
	empty, err := Compress(rand.New(rand.NewSource(42)), key, 0.6)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if empty.Size() != 0 {
		t.Errorf("Compress() at QBER 0.6 has len %d, want 0", empty.Size())
	}
}

func TestMAC(t *testing.T) {
	r := rand.New(rand.NewSource(23))
	msg := []byte("sifted key length 512")
	pad := make([]byte, 8)
	r.Read(pad)
	diags := bitmap.Random(r, 8*(len(pad)+len(msg)))

	tag, err := MAC(diags, pad, msg)
	if err != nil {
		t.Fatalf("MAC: %v", err)
	}
	if len(tag) != len(pad) {
		t.Errorf("tag has %d bytes, want %d", len(tag), len(pad))
	}
	again, _ := MAC(diags, pad, msg)
	if !bytes.Equal(tag, again) {
		t.Errorf("MAC is not deterministic: %v != %v", tag, again)
	}
	tampered := append([]byte(nil), msg...)
	tampered[3] ^= 0x10
	if other, _ := MAC(diags, pad, tampered); bytes.Equal(tag, other) {
		t.Errorf("tampered message has the same tag %v", tag)
	}

	if _, err := MAC(diags, nil, msg); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("MAC() with empty pad error = %v, want %v", err, ErrInvalidInput)
	}
	if _, err := MAC(bitmap.Random(r, 10), pad, msg); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("MAC() with short key error = %v, want %v", err, ErrInvalidInput)
	}
}
