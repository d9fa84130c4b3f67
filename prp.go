package sphinx

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// feistelPRP is a four-round unbalanced Feistel network turning the
// keyed block cipher round-function idiom in
// other_examples/..._iprf_prp.go.go (round keys derived via
// sha256(masterKey || round), one AES round per Feistel round) into a
// permutation over the *entire* padded payload rather than a fixed
// 16-byte block, which is what the payload PRP in spec.md §4.3/§4.5
// needs: a keyed, invertible transform covering the whole buffer so a
// relay cannot distinguish a forwarded payload from random bytes.
//
// Each round expands one half of the block with HKDF, keyed on the
// round key and salted with the other half, and XORs it in; this is the
// same shape as the AES round function it replaces, generalized to
// arbitrary half-widths so it applies uniformly to the small and large
// P this module is configured with.
type feistelPRP struct {
	roundKeys [4][]byte
}

const feistelRounds = 4

func newFeistelPRP(key, iv []byte) (PRP, error) {
	master := append(append([]byte{}, key...), iv...)
	var rk [4][]byte
	for i := 0; i < feistelRounds; i++ {
		h := sha256.New()
		h.Write(master)
		h.Write([]byte{byte(i)})
		rk[i] = h.Sum(nil)
	}
	return &feistelPRP{roundKeys: rk}, nil
}

// split divides a block into a left half bounded at 32 bytes (the width
// of the sha256-based round function) and a right half carrying the
// remainder, so the construction degrades gracefully for small payloads
// instead of assuming a block always exceeds 64 bytes.
func feistelSplit(block []byte) (l, r []byte) {
	n := len(block) / 3
	if n > 32 {
		n = 32
	}
	if n < 1 {
		n = 1
	}
	if n >= len(block) {
		n = len(block) - 1
	}
	return block[:n], block[n:]
}

func feistelRound(key, seed []byte, n int) []byte {
	r := hkdf.New(sha256.New, key, seed, []byte("sphinx-feistel-round"))
	out := make([]byte, n)
	io.ReadFull(r, out)
	return out
}

func (f *feistelPRP) Forward(block []byte) {
	l, r := feistelSplit(block)
	xorInPlace(r, feistelRound(f.roundKeys[0], l, len(r)))
	xorInPlace(l, feistelRound(f.roundKeys[1], r, len(l)))
	xorInPlace(r, feistelRound(f.roundKeys[2], l, len(r)))
	xorInPlace(l, feistelRound(f.roundKeys[3], r, len(l)))
}

func (f *feistelPRP) Inverse(block []byte) {
	l, r := feistelSplit(block)
	xorInPlace(l, feistelRound(f.roundKeys[3], r, len(l)))
	xorInPlace(r, feistelRound(f.roundKeys[2], l, len(r)))
	xorInPlace(l, feistelRound(f.roundKeys[1], r, len(l)))
	xorInPlace(r, feistelRound(f.roundKeys[0], l, len(r)))
}
