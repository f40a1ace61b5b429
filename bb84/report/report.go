// Package report writes simulation records as length-prefixed protocol
// buffer frames or as JSON.
//
// A frame is trivial: int32 little-endian length | proto | mac. The mac is
// present only on authenticated streams; see Auth.
package report

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alan-christopher/qkdsim/bb84"
	"github.com/alan-christopher/qkdsim/bb84/bitmap"
)

// MaxFrameSize bounds the proto length a Reader accepts.
const MaxFrameSize = 64 << 20

var DefaultTagBytes = 8

// ErrBadMAC is returned by a Reader when a frame fails authentication.
var ErrBadMAC = errors.New("report: invalid mac")

// Auth authenticates frames with Wegman-Carter MACs, see bb84.MAC. Every
// frame consumes fresh hash key and pad bytes from Secret, so a Writer and
// Reader stay in step only when they read identical secret streams and see
// the same frames in the same order.
type Auth struct {
	Secret io.Reader
	// TagBytes is the tag length. Zero means DefaultTagBytes.
	TagBytes int
}

func (a *Auth) mac(msg []byte) ([]byte, error) {
	tagBytes := a.TagBytes
	if tagBytes <= 0 {
		tagBytes = DefaultTagBytes
	}
	nDiags := 8*(tagBytes+len(msg)) - 1
	key := make([]byte, bitmap.BytesFor(nDiags))
	if _, err := io.ReadFull(a.Secret, key); err != nil {
		return nil, fmt.Errorf("reading hash key: %w", err)
	}
	pad := make([]byte, tagBytes)
	if _, err := io.ReadFull(a.Secret, pad); err != nil {
		return nil, fmt.Errorf("reading one-time pad: %w", err)
	}
	return bb84.MAC(bitmap.NewDense(key, nDiags), pad, msg)
}

// A Writer writes framed protocol buffers.
type Writer struct {
	w    io.Writer
	auth *Auth
}

// NewWriter returns a Writer to w. If auth is non-nil every frame carries a
// mac.
func NewWriter(w io.Writer, auth *Auth) *Writer {
	return &Writer{w: w, auth: auth}
}

// WriteMessage writes m as a single frame.
func (w *Writer) WriteMessage(m proto.Message) error {
	marshalled, err := proto.Marshal(m)
	if err != nil {
		return err
	}
	if err := binary.Write(w.w, binary.LittleEndian, int32(len(marshalled))); err != nil {
		return err
	}
	if _, err := w.w.Write(marshalled); err != nil {
		return err
	}
	if w.auth == nil {
		return nil
	}
	mac, err := w.auth.mac(marshalled)
	if err != nil {
		return err
	}
	_, err = w.w.Write(mac)
	return err
}

// Write writes v, which must marshal to a JSON object, as a
// structpb.Struct frame.
func (w *Writer) Write(v any) error {
	s, err := ToStruct(v)
	if err != nil {
		return err
	}
	return w.WriteMessage(s)
}

// ToStruct converts v to a structpb.Struct through its JSON form.
func ToStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("record is not a JSON object: %w", err)
	}
	return structpb.NewStruct(m)
}

// A Reader reads frames written by a Writer.
type Reader struct {
	r    io.Reader
	auth *Auth
}

// NewReader returns a Reader from r. auth must match the Writer's.
func NewReader(r io.Reader, auth *Auth) *Reader {
	return &Reader{r: r, auth: auth}
}

// ReadMessage reads the next frame into m. It returns io.EOF if the stream
// ends cleanly before the frame.
func (r *Reader) ReadMessage(m proto.Message) error {
	var mLen int32
	if err := binary.Read(r.r, binary.LittleEndian, &mLen); err != nil {
		return err
	}
	if mLen < 0 || mLen > MaxFrameSize {
		return fmt.Errorf("invalid frame length %d", mLen)
	}
	marshalled := make([]byte, mLen)
	if _, err := io.ReadFull(r.r, marshalled); err != nil {
		return fmt.Errorf("reading frame: %w", unexpected(err))
	}
	if r.auth != nil {
		emac, err := r.auth.mac(marshalled)
		if err != nil {
			return err
		}
		mac := make([]byte, len(emac))
		if _, err := io.ReadFull(r.r, mac); err != nil {
			return fmt.Errorf("reading mac: %w", unexpected(err))
		}
		if !bytes.Equal(mac, emac) {
			return fmt.Errorf("%w: got %x, expected %x", ErrBadMAC, mac, emac)
		}
	}
	return proto.Unmarshal(marshalled, m)
}

// Read reads the next frame as a structpb.Struct.
func (r *Reader) Read() (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if err := r.ReadMessage(s); err != nil {
		return nil, err
	}
	return s, nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// JSON writes v to w as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
