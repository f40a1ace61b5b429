package bb84

import (
	"github.com/alan-christopher/qkdsim/bb84/bitmap"
	qerrors "github.com/alan-christopher/qkdsim/internal/errors"
)

// Sifted holds the sender's and receiver's keys after discarding positions
// measured in different bases.
type Sifted struct {
	// Indices are the positions, in the original sequences, that were kept.
	Indices  []int
	Sender   bitmap.Dense
	Receiver bitmap.Dense
}

// Size returns the length of the sifted key.
func (s Sifted) Size() int {
	return len(s.Indices)
}

// Sift keeps the positions where sendBases and recvBases agree, preserving
// order. All four sequences must have the same length; Sift never truncates.
func Sift(sendBits, sendBases, recvBases, recvBits bitmap.Dense) (Sifted, error) {
	n := sendBits.Size()
	if sendBases.Size() != n || recvBases.Size() != n || recvBits.Size() != n {
		return Sifted{}, qerrors.Mismatch("sifting",
			n, sendBases.Size(), recvBases.Size(), recvBits.Size())
	}
	siftMask := bitmap.XNor(sendBases, recvBases)
	s := Sifted{
		Indices:  make([]int, 0, n/2),
		Sender:   bitmap.Select(sendBits, siftMask),
		Receiver: bitmap.Select(recvBits, siftMask),
	}
	for i := 0; i < n; i++ {
		if siftMask.Get(i) {
			s.Indices = append(s.Indices, i)
		}
	}
	return s, nil
}
