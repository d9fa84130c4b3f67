package sphinx

import "bytes"

// Padding byte values, matching original_source/crypto/sphinx/src/packet.rs:
// the buffer is zero-filled, a single 0xaa tag marks where the padding
// ends and the real message begins.
const (
	paddingByte = 0x00
	paddingTag  = 0xaa
)

// PaddedPayload is a fixed PayloadLen+1 byte buffer: zero padding, a
// single tag byte, then the message. It is the unit every PRP layer in
// this package operates on.
type PaddedPayload struct {
	data []byte
}

// NewPaddedPayload pads msg into a Params.PayloadLen+1 byte buffer. It
// fails if msg does not fit alongside the mandatory tag byte.
func NewPaddedPayload(p Params, msg []byte) (*PaddedPayload, error) {
	size := p.PayloadLen + 1
	if len(msg) >= size {
		return nil, ErrPadding
	}
	buf := make([]byte, size)
	tagPos := size - len(msg) - 1
	buf[tagPos] = paddingTag
	copy(buf[tagPos+1:], msg)
	return &PaddedPayload{data: buf}, nil
}

// FromPadded wraps an already-padded buffer without validating its
// contents beyond length: the tag byte is not scanned for here.
// Open question resolved per spec.md §9: this laziness is deliberate —
// a buffer fresh off the wire has not been through a PRP layer for this
// hop's key yet, so a tag scan at this boundary would reject perfectly
// valid intermediate state. Call IntoUnpadded once the final PRP layer
// has been applied; that is where a malformed buffer surfaces as
// ErrPadding.
func FromPadded(p Params, buf []byte) (*PaddedPayload, error) {
	if len(buf) != p.PayloadLen+1 {
		return nil, ErrPadding
	}
	return &PaddedPayload{data: buf}, nil
}

// Bytes returns the raw padded buffer.
func (pp *PaddedPayload) Bytes() []byte {
	return pp.data
}

// IntoUnpadded scans for the padding tag and returns the message that
// follows it. This is the boundary where a buffer that never decrypted
// to valid padding (wrong key, tampered payload, or a genuine decoding
// failure) is finally rejected.
func (pp *PaddedPayload) IntoUnpadded() ([]byte, error) {
	idx := bytes.IndexByte(pp.data, paddingTag)
	if idx < 0 {
		return nil, ErrPadding
	}
	for _, b := range pp.data[:idx] {
		if b != paddingByte {
			return nil, ErrPadding
		}
	}
	out := make([]byte, len(pp.data)-idx-1)
	copy(out, pp.data[idx+1:])
	return out, nil
}
