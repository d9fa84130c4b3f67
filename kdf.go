package sphinx

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key derivation. The teacher derives every per-hop key with a single
// raw HMAC-SHA256 call parameterized by a short label
// (generateKey(label, secret) using "rho"/"mu"/"um"/"pad"). This module
// generalizes that one label-separated derivation into HKDF-Expand over
// a shared secret, so every label below draws independent output from
// the same extracted key without the label collisions a raw HMAC scheme
// risks once further labels (packet_tag, blinding, reply_prp_init) are
// added.

const (
	prgIVLen = 12 // chacha20.NewUnauthenticatedCipher nonce width
	prpIVLen = 16
)

func expand(secret []byte, label string, n int) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, nil, []byte(label))
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// sharedSecret folds a raw Diffie-Hellman element into the 32-byte
// secret every other derivation in this file is keyed on, mirroring the
// teacher's sha256.Sum256(ecdhkey.SerializeCompressed()) step.
func sharedSecret(dh []byte) []byte {
	s := sha256.Sum256(dh)
	return s[:]
}

// prgInit derives the key and IV for the PRG that masks a routing
// header at this hop.
func prgInit(secret []byte) (key, iv []byte, err error) {
	key, err = expand(secret, "sphinx-prg-key", 32)
	if err != nil {
		return nil, nil, err
	}
	iv, err = expand(secret, "sphinx-prg-iv", prgIVLen)
	if err != nil {
		return nil, nil, err
	}
	return key, iv, nil
}

// prpInit derives the key and IV for the wide-block PRP applied to the
// payload at this hop.
func prpInit(secret []byte) (key, iv []byte, err error) {
	key, err = expand(secret, "sphinx-prp-key", 32)
	if err != nil {
		return nil, nil, err
	}
	iv, err = expand(secret, "sphinx-prp-iv", prpIVLen)
	if err != nil {
		return nil, nil, err
	}
	return key, iv, nil
}

// prgPadInit derives the key/IV that seeds a fresh header's beta array
// with pseudorandom bytes before any record is shifted in, matching the
// teacher's distinct "pad" label (kept separate from "rho" so the
// initial seed is never the same keystream as hop 0's own mask).
func prgPadInit(secret []byte) (key, iv []byte, err error) {
	key, err = expand(secret, "sphinx-prg-pad-key", 32)
	if err != nil {
		return nil, nil, err
	}
	iv, err = expand(secret, "sphinx-prg-pad-iv", prgIVLen)
	if err != nil {
		return nil, nil, err
	}
	return key, iv, nil
}

// prgTrailerInit derives an independent key/IV for masking the receiver
// data trailer. Kept separate from prgInit's beta keystream so the
// trailer's encryption never shares keystream bytes with the
// beta/filler arithmetic in header.go, which assumes beta's keystream
// offsets line up exactly with the teacher's single fixed-width buffer.
func prgTrailerInit(secret []byte) (key, iv []byte, err error) {
	key, err = expand(secret, "sphinx-prg-trailer-key", 32)
	if err != nil {
		return nil, nil, err
	}
	iv, err = expand(secret, "sphinx-prg-trailer-iv", prgIVLen)
	if err != nil {
		return nil, nil, err
	}
	return key, iv, nil
}

// macKey derives the key for the routing header MAC at this hop.
func macKey(secret []byte) ([]byte, error) {
	return expand(secret, "sphinx-mac-key", 32)
}

// packetTag derives a per-hop, per-packet identifier used for replay
// detection outside this package.
func packetTag(secret []byte, tagLen int) ([]byte, error) {
	return expand(secret, "sphinx-packet-tag", tagLen)
}

// blinding derives the scalar that, after processing hop pubKey, the
// sender folds into its accumulated private scalar and the relay
// multiplies into the alpha it received, binding the
// result to both the shared secret and the alpha value that hop
// actually observed.
func blinding(group Group, secret, alpha, pubKey []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, nil, append(append([]byte("sphinx-blind"), alpha...), pubKey...))
	raw := make([]byte, group.ScalarSize())
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, err
	}
	return group.DeriveScalar(raw)
}

// replyPRPInit derives the key and IV for the sender's extra PRP pass
// applied when redeeming a SURB, binding the pass to the sender-chosen
// receiver tag so a reply can only be unwound by whoever created the
// matching SURB.
func replyPRPInit(senderKey, receiverData []byte) (key, iv []byte, err error) {
	r := hkdf.New(sha256.New, senderKey, nil, append([]byte("sphinx-reply-prp"), receiverData...))
	buf := make([]byte, 32+prpIVLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, nil, err
	}
	return buf[:32], buf[32:], nil
}
