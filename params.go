package sphinx

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/chacha20"
)

// Params fixes the sizes that make every MetaPacket on a deployment the
// same number of bytes regardless of path length or message content.
type Params struct {
	// PayloadLen is P, the maximum plaintext message length. The padded
	// payload carried on the wire is PayloadLen+1 bytes.
	PayloadLen int
	// MaxHops bounds how many relays a path (or SURB) may contain.
	MaxHops int
	// KeyIDLen is the width of the short key identifier a KeyIDMapper
	// resolves to a relay's public key.
	KeyIDLen int
	// RelayerDataLen is the width of the opaque per-hop relayer data
	// slot carried in every non-final routing record.
	RelayerDataLen int
	// ReceiverDataLen is the width of the opaque receiver data slot
	// carried once, for the final hop.
	ReceiverDataLen int
	// TagLen is the width of both the per-hop routing MAC and the
	// per-hop packet/replay tag.
	TagLen int
}

// RecordSize is the width of one routing-header record: key id, flag
// byte, path-position byte, relayer data and the MAC-of-remainder tag.
func RecordSize(p Params) int {
	return p.KeyIDLen + 2 + p.RelayerDataLen + p.TagLen
}

// BetaLen is the width of the fixed-size routing record array.
func BetaLen(p Params) int {
	return p.MaxHops * RecordSize(p)
}

// HeaderLen is the total width of a routing header: the record array,
// the current MAC (gamma) and the receiver data trailer.
func HeaderLen(p Params) int {
	return BetaLen(p) + p.TagLen + p.ReceiverDataLen
}

// PacketLen is the total width of a MetaPacket on the wire.
func PacketLen(suite *Suite) int {
	return suite.Group.ElementSize() + HeaderLen(suite.Params) + suite.Params.PayloadLen + 1
}

// Group abstracts the algebraic group backing the blinded Diffie-Hellman
// key exchange. Scalars and elements are opaque, fixed-width byte
// strings; spec.md leaves the choice of group to an external
// collaborator, so nothing elsewhere in this package assumes secp256k1.
type Group interface {
	ScalarSize() int
	ElementSize() int
	RandomScalar() ([]byte, error)
	ScalarBaseMult(scalar []byte) ([]byte, error)
	ScalarMult(scalar, element []byte) ([]byte, error)
	MultiplyScalars(a, b []byte) ([]byte, error)
	// DeriveScalar reduces arbitrary key material into a valid scalar.
	DeriveScalar(material []byte) ([]byte, error)
	ValidateElement(element []byte) error
}

// PRG is a keyed pseudorandom keystream generator used to mask routing
// headers.
type PRG interface {
	XORKeyStream(dst, src []byte)
}

// PRGFactory builds a PRG from key material produced by prgInit.
type PRGFactory func(key, iv []byte) (PRG, error)

// PRP is a keyed pseudorandom permutation applied to the full padded
// payload at every hop.
type PRP interface {
	Forward(block []byte)
	Inverse(block []byte)
}

// PRPFactory builds a PRP from key material produced by prpInit or
// replyPRPInit.
type PRPFactory func(key, iv []byte) (PRP, error)

// MAC authenticates routing header state.
type MAC interface {
	Tag(data []byte) []byte
	Verify(data, tag []byte) bool
}

// MACFactory builds a MAC from key material produced by macKey.
type MACFactory func(key []byte) MAC

// Suite bundles the parameters and swappable primitives that every
// operation in this package needs.
type Suite struct {
	Params Params
	Group  Group
	NewPRG PRGFactory
	NewPRP PRPFactory
	NewMAC MACFactory
}

// DefaultSuite returns the concrete primitive bundle this module ships:
// secp256k1 group arithmetic, a chacha20 PRG, a Feistel wide-block PRP
// and an HMAC-SHA256 MAC, matching the teacher's own primitive choices
// plus the payload PRP this engine adds.
func DefaultSuite(p Params) *Suite {
	return &Suite{
		Params: p,
		Group:  Secp256k1Group{},
		NewPRG: newChaCha20PRG,
		NewPRP: newFeistelPRP,
		NewMAC: newHMACSHA256MAC,
	}
}

// Secp256k1Group implements Group over the secp256k1 curve, the same
// group the teacher onion construction uses for its blinded-DH walk.
type Secp256k1Group struct{}

func (Secp256k1Group) ScalarSize() int  { return 32 }
func (Secp256k1Group) ElementSize() int { return 33 }

func (Secp256k1Group) RandomScalar() ([]byte, error) {
	for {
		buf := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return nil, err
		}
		var s secp256k1.ModNScalar
		overflow := s.SetByteSlice(buf)
		if !overflow && !s.IsZero() {
			return buf, nil
		}
	}
}

func (Secp256k1Group) ScalarBaseMult(scalar []byte) ([]byte, error) {
	priv := secp256k1.PrivKeyFromBytes(scalar)
	return priv.PubKey().SerializeCompressed(), nil
}

func (Secp256k1Group) ScalarMult(scalar, element []byte) ([]byte, error) {
	pub, err := secp256k1.ParsePubKey(element)
	if err != nil {
		return nil, err
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(scalar); overflow {
		return nil, ErrPacketConstruction
	}
	var result, point secp256k1.JacobianPoint
	pub.AsJacobian(&point)
	secp256k1.ScalarMultNonConst(&s, &point, &result)
	result.ToAffine()
	out := secp256k1.NewPublicKey(&result.X, &result.Y)
	return out.SerializeCompressed(), nil
}

func (Secp256k1Group) MultiplyScalars(a, b []byte) ([]byte, error) {
	var sa, sb secp256k1.ModNScalar
	if overflow := sa.SetByteSlice(a); overflow {
		return nil, ErrPacketConstruction
	}
	if overflow := sb.SetByteSlice(b); overflow {
		return nil, ErrPacketConstruction
	}
	sa.Mul(&sb)
	out := sa.Bytes()
	return out[:], nil
}

func (Secp256k1Group) DeriveScalar(material []byte) ([]byte, error) {
	var s secp256k1.ModNScalar
	s.SetByteSlice(material)
	out := s.Bytes()
	return out[:], nil
}

func (Secp256k1Group) ValidateElement(element []byte) error {
	_, err := secp256k1.ParsePubKey(element)
	return err
}

// chaCha20PRG wraps x/crypto/chacha20, the teacher's own keystream
// primitive, behind the PRG interface.
type chaCha20PRG struct {
	cipher *chacha20.Cipher
}

func newChaCha20PRG(key, iv []byte) (PRG, error) {
	c, err := chacha20.NewUnauthenticatedCipher(key, iv)
	if err != nil {
		return nil, err
	}
	return &chaCha20PRG{cipher: c}, nil
}

func (p *chaCha20PRG) XORKeyStream(dst, src []byte) {
	p.cipher.XORKeyStream(dst, src)
}

// hmacSHA256MAC implements MAC with stdlib HMAC-SHA256, the teacher's
// own header-authentication primitive. No ecosystem MAC library appears
// anywhere in the retrieval corpus.
type hmacSHA256MAC struct {
	key []byte
}

func newHMACSHA256MAC(key []byte) MAC {
	return &hmacSHA256MAC{key: key}
}

func (m *hmacSHA256MAC) Tag(data []byte) []byte {
	h := hmac.New(sha256.New, m.key)
	h.Write(data)
	return h.Sum(nil)
}

func (m *hmacSHA256MAC) Verify(data, tag []byte) bool {
	return hmac.Equal(m.Tag(data), tag)
}

func xorInPlace(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}
