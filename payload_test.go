package sphinx

import (
	"bytes"
	"errors"
	"testing"
)

func TestPaddedPayloadRoundTrip(t *testing.T) {
	p := testParams()
	cases := [][]byte{
		nil,
		[]byte("a"),
		bytes.Repeat([]byte("x"), p.PayloadLen-1),
	}
	for _, msg := range cases {
		pp, err := NewPaddedPayload(p, msg)
		if err != nil {
			t.Fatalf("NewPaddedPayload(%d bytes): %v", len(msg), err)
		}
		if len(pp.Bytes()) != p.PayloadLen+1 {
			t.Fatalf("padded length = %d, want %d", len(pp.Bytes()), p.PayloadLen+1)
		}
		got, err := pp.IntoUnpadded()
		if err != nil {
			t.Fatalf("IntoUnpadded: %v", err)
		}
		if !bytes.Equal(got, msg) {
			t.Fatalf("IntoUnpadded = %q, want %q", got, msg)
		}
	}
}

func TestPaddedPayloadTooLong(t *testing.T) {
	p := testParams()
	_, err := NewPaddedPayload(p, bytes.Repeat([]byte("x"), p.PayloadLen+1))
	if !errors.Is(err, ErrPadding) {
		t.Fatalf("err = %v, want ErrPadding", err)
	}
}

func TestFromPaddedWrongLength(t *testing.T) {
	p := testParams()
	_, err := FromPadded(p, make([]byte, p.PayloadLen))
	if !errors.Is(err, ErrPadding) {
		t.Fatalf("err = %v, want ErrPadding", err)
	}
}

func TestFromPaddedDoesNotValidateTag(t *testing.T) {
	p := testParams()
	buf := make([]byte, p.PayloadLen+1)
	buf[0] = 0x42 // not the padding tag, but FromPadded must accept it
	if _, err := FromPadded(p, buf); err != nil {
		t.Fatalf("FromPadded: %v", err)
	}
}

func TestIntoUnpaddedRejectsMissingTag(t *testing.T) {
	p := testParams()
	buf := make([]byte, p.PayloadLen+1)
	pp, err := FromPadded(p, buf)
	if err != nil {
		t.Fatalf("FromPadded: %v", err)
	}
	if _, err := pp.IntoUnpadded(); !errors.Is(err, ErrPadding) {
		t.Fatalf("err = %v, want ErrPadding", err)
	}
}
