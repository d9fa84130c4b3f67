package sphinx

import (
	"bytes"
	"testing"
)

func TestFeistelPRPRoundTrip(t *testing.T) {
	key := randomBytes(t, 32)
	iv := randomBytes(t, prpIVLen)

	for _, n := range []int{2, 3, 4, 16, 31, 32, 65, 96, 257} {
		prp, err := newFeistelPRP(key, iv)
		if err != nil {
			t.Fatalf("newFeistelPRP: %v", err)
		}
		block := randomBytes(t, n)
		orig := append([]byte{}, block...)

		prp.Forward(block)
		if bytes.Equal(block, orig) {
			t.Fatalf("len %d: Forward left block unchanged", n)
		}

		prp.Inverse(block)
		if !bytes.Equal(block, orig) {
			t.Fatalf("len %d: Inverse(Forward(x)) != x", n)
		}
	}
}

func TestFeistelPRPDifferentKeysDiffer(t *testing.T) {
	iv := randomBytes(t, prpIVLen)
	block := randomBytes(t, 64)

	a, err := newFeistelPRP(randomBytes(t, 32), iv)
	if err != nil {
		t.Fatalf("newFeistelPRP: %v", err)
	}
	b, err := newFeistelPRP(randomBytes(t, 32), iv)
	if err != nil {
		t.Fatalf("newFeistelPRP: %v", err)
	}

	ba := append([]byte{}, block...)
	bb := append([]byte{}, block...)
	a.Forward(ba)
	b.Forward(bb)
	if bytes.Equal(ba, bb) {
		t.Fatalf("distinct keys produced the same ciphertext")
	}
}

func TestFeistelSplitClampsHalfWidth(t *testing.T) {
	cases := []int{2, 3, 4, 65, 96, 300}
	for _, n := range cases {
		block := make([]byte, n)
		l, r := feistelSplit(block)
		if len(l)+len(r) != n {
			t.Fatalf("len %d: split halves sum to %d", n, len(l)+len(r))
		}
		if len(l) == 0 || len(r) == 0 {
			t.Fatalf("len %d: empty half", n)
		}
		if len(l) > 32 {
			t.Fatalf("len %d: left half %d exceeds 32-byte clamp", n, len(l))
		}
	}
}
