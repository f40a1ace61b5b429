package bb84

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/alan-christopher/qkdsim/bb84/bitmap"
)

func mustDense(t *testing.T, s string) bitmap.Dense {
	d, err := bitmap.FromString(s)
	if err != nil {
		t.Fatalf("bugged test setup: %v", err)
	}
	return d
}

func TestSift(t *testing.T) {
	tcs := []struct {
		name                                     string
		sendBits, sendBases, recvBases, recvBits bitmap.Dense
		eIndices                                 []int
		eSender, eReceiver                       bitmap.Dense
	}{
		{
			name:      "all match",
			sendBits:  mustDense(t, "1010"),
			sendBases: mustDense(t, "0110"),
			recvBases: mustDense(t, "0110"),
			recvBits:  mustDense(t, "1011"),
			eIndices:  []int{0, 1, 2, 3},
			eSender:   mustDense(t, "1010"),
			eReceiver: mustDense(t, "1011"),
		}, {
			name:      "some match",
			sendBits:  mustDense(t, "1100 1"),
			sendBases: mustDense(t, "0101 1"),
			recvBases: mustDense(t, "0011 1"),
			recvBits:  mustDense(t, "1010 0"),
			eIndices:  []int{0, 3, 4},
			eSender:   mustDense(t, "101"),
			eReceiver: mustDense(t, "100"),
		}, {
			name:      "none match",
			sendBits:  mustDense(t, "11"),
			sendBases: mustDense(t, "01"),
			recvBases: mustDense(t, "10"),
			recvBits:  mustDense(t, "00"),
			eIndices:  []int{},
			eSender:   mustDense(t, ""),
			eReceiver: mustDense(t, ""),
		}, {
			name:      "empty",
			eIndices:  []int{},
			eSender:   bitmap.Empty(),
			eReceiver: bitmap.Empty(),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Sift(tc.sendBits, tc.sendBases, tc.recvBases, tc.recvBits)
			if err != nil {
				t.Fatalf("Sift: %v", err)
			}
			if !reflect.DeepEqual(s.Indices, tc.eIndices) {
				t.Errorf("Indices == %v, want %v", s.Indices, tc.eIndices)
			}
			if !bitmap.Equal(s.Sender, tc.eSender) {
				t.Errorf("Sender == %v, want %v", s.Sender, tc.eSender)
			}
			if !bitmap.Equal(s.Receiver, tc.eReceiver) {
				t.Errorf("Receiver == %v, want %v", s.Receiver, tc.eReceiver)
			}
		})
	}
}

func TestSiftKeepsExactlyMatchingBases(t *testing.T) {
	r := rand.New(rand.NewSource(2024))
	for trial := 0; trial < 50; trial++ {
		n := r.Intn(300)
		bits, sendBases := Generate(r, n)
		recvBases := Bases(r, n)
		recvBits := bitmap.Random(r, n)
		s, err := Sift(bits, sendBases, recvBases, recvBits)
		if err != nil {
			t.Fatalf("Sift: %v", err)
		}
		matching := 0
		for i := 0; i < n; i++ {
			if sendBases.Get(i) == recvBases.Get(i) {
				matching++
			}
		}
		if s.Size() != matching {
			t.Fatalf("trial %d: kept %d positions, want %d", trial, s.Size(), matching)
		}
		for k, i := range s.Indices {
			if sendBases.Get(i) != recvBases.Get(i) {
				t.Fatalf("trial %d: kept index %d with mismatched bases", trial, i)
			}
			if s.Sender.Get(k) != bits.Get(i) || s.Receiver.Get(k) != recvBits.Get(i) {
				t.Fatalf("trial %d: sifted bit %d does not come from index %d", trial, k, i)
			}
		}
	}
}

func TestSiftLengthMismatch(t *testing.T) {
	tcs := []struct {
		name                                     string
		sendBits, sendBases, recvBases, recvBits string
	}{
		{"short send bases", "1010", "011", "0110", "1010"},
		{"short receive bases", "1010", "0110", "01", "1010"},
		{"long receive bits", "1010", "0110", "0110", "10101"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Sift(mustDense(t, tc.sendBits), mustDense(t, tc.sendBases),
				mustDense(t, tc.recvBases), mustDense(t, tc.recvBits))
			if !errors.Is(err, ErrInputMismatch) {
				t.Errorf("Sift() error = %v, want ErrInputMismatch", err)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Sift() error = %v, want it to match ErrInvalidInput", err)
			}
		})
	}
}
