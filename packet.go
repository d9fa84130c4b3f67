package sphinx

import (
	"bufio"
	"encoding/binary"
	"io"
)

// KeyIDMapper is the two-way lookup a deployment supplies: a short key
// id travels inside routing records in place of a full public key, and
// a relay needs to go both ways — its own public key to an id when a
// packet is being built for it, and an id back to a public key when
// relaying to the next hop. Grounded on
// original_source/crypto/sphinx/src/packet.rs's KeyIdMapper trait.
type KeyIDMapper interface {
	MapKeyToID(pub []byte) (id []byte, ok bool)
	MapIDToKey(id []byte) (pub []byte, ok bool)
}

// KeyIDMap is a concrete, in-memory KeyIDMapper.
type KeyIDMap struct {
	byID  map[string][]byte
	byKey map[string][]byte
}

// NewKeyIDMap builds a KeyIDMap from parallel id/pubkey slices.
func NewKeyIDMap(ids, pubKeys [][]byte) *KeyIDMap {
	m := &KeyIDMap{byID: make(map[string][]byte), byKey: make(map[string][]byte)}
	for i := range ids {
		m.byID[string(ids[i])] = pubKeys[i]
		m.byKey[string(pubKeys[i])] = ids[i]
	}
	return m
}

func (m *KeyIDMap) MapKeyToID(pub []byte) ([]byte, bool) {
	id, ok := m.byKey[string(pub)]
	return id, ok
}

func (m *KeyIDMap) MapIDToKey(id []byte) ([]byte, bool) {
	pub, ok := m.byID[string(id)]
	return pub, ok
}

// ForwardPathRouting builds a forward-delivery packet to a sequence of
// hops ending at a final recipient.
type ForwardPathRouting struct {
	SharedKeys   *SharedKeys
	PathPubKeys  [][]byte
	RelayerData  [][]byte // len(PathPubKeys)-1
	ReceiverData []byte
	NoAck        bool
}

// SurbRouting builds a reply packet riding an already-issued SURB.
type SurbRouting struct {
	Surb    *SURB
	Payload bool // unused placeholder kept for symmetry; reserved
}

// Routing selects between a forward path and a SURB at PartialPacket
// construction time, standing in for the Rust MetaPacketRouting enum
// (ForwardPath | Surb) Go has no sum type to express directly.
type Routing struct {
	ForwardPath *ForwardPathRouting
	Surb        *SurbRouting
}

type prpSeed struct {
	key, iv []byte
}

// PartialPacket holds everything needed to assemble a MetaPacket except
// the payload: the alpha value, the completed routing header, and the
// ordered PRP seeds that must be applied, innermost first, once the
// payload is known. Grounded on
// original_source/crypto/sphinx/src/packet.rs's PartialPacket.
type PartialPacket struct {
	suite    *Suite
	alpha    []byte
	header   []byte
	prpSeeds []prpSeed // stored innermost (final hop) first
}

// NewPartialPacket builds the alpha/header/PRP-seed state for routing,
// either a forward path or a SURB.
func NewPartialPacket(suite *Suite, routing Routing, mapper KeyIDMapper) (*PartialPacket, error) {
	switch {
	case routing.ForwardPath != nil:
		return newForwardPartialPacket(suite, routing.ForwardPath, mapper)
	case routing.Surb != nil:
		return newSurbPartialPacket(suite, routing.Surb)
	default:
		return nil, ErrPacketConstruction
	}
}

func newForwardPartialPacket(suite *Suite, fp *ForwardPathRouting, mapper KeyIDMapper) (*PartialPacket, error) {
	n := len(fp.SharedKeys.Secrets)
	if n != len(fp.PathPubKeys) {
		return nil, ErrPacketConstruction
	}
	ids := make([][]byte, n)
	for i, pub := range fp.PathPubKeys {
		id, ok := mapper.MapKeyToID(pub)
		if !ok {
			return nil, ErrPacketConstruction
		}
		ids[i] = id
	}

	header, err := buildHeader(suite, fp.SharedKeys.Secrets, ids, fp.RelayerData, fp.ReceiverData, false, fp.NoAck)
	if err != nil {
		return nil, err
	}

	seeds := make([]prpSeed, 0, n)
	for i := n - 1; i >= 0; i-- {
		key, iv, err := prpInit(fp.SharedKeys.Secrets[i])
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, prpSeed{key, iv})
	}

	return &PartialPacket{suite: suite, alpha: fp.SharedKeys.Alpha, header: header, prpSeeds: seeds}, nil
}

func newSurbPartialPacket(suite *Suite, sr *SurbRouting) (*PartialPacket, error) {
	key, iv, err := replyPRPInit(sr.Surb.SenderKey, sr.Surb.Pseudonym)
	if err != nil {
		return nil, err
	}
	return &PartialPacket{
		suite:    suite,
		alpha:    sr.Surb.Alpha,
		header:   sr.Surb.Header,
		prpSeeds: []prpSeed{{key, iv}},
	}, nil
}

// IntoMetaPacket binds a padded payload to this PartialPacket's routing
// state, applying every stored PRP seed in order (innermost first, the
// order they were accumulated in during construction) before
// concatenating alpha, header and payload into the wire packet.
func (pp *PartialPacket) IntoMetaPacket(payload *PaddedPayload) (*MetaPacket, error) {
	buf := append([]byte{}, payload.Bytes()...)
	for _, seed := range pp.prpSeeds {
		prp, err := pp.suite.NewPRP(seed.key, seed.iv)
		if err != nil {
			return nil, err
		}
		prp.Forward(buf)
	}

	data := make([]byte, 0, PacketLen(pp.suite))
	data = append(data, pp.alpha...)
	data = append(data, pp.header...)
	data = append(data, buf...)
	return &MetaPacket{suite: pp.suite, data: data}, nil
}

// Serialize writes alpha, header, and the PRP seed count and seeds, in
// the order they will be applied, to w.
func (pp *PartialPacket) Serialize(w io.Writer) error {
	if _, err := w.Write(pp.alpha); err != nil {
		return err
	}
	if _, err := w.Write(pp.header); err != nil {
		return err
	}
	var countBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(countBuf[:], uint64(len(pp.prpSeeds)))
	if _, err := w.Write(countBuf[:n]); err != nil {
		return err
	}
	for _, seed := range pp.prpSeeds {
		if _, err := w.Write(seed.key); err != nil {
			return err
		}
		if _, err := w.Write(seed.iv); err != nil {
			return err
		}
	}
	return nil
}

// DeserializePartialPacket reads back what Serialize wrote.
func DeserializePartialPacket(suite *Suite, r io.Reader) (*PartialPacket, error) {
	br := bufio.NewReader(r)
	alpha := make([]byte, suite.Group.ElementSize())
	if _, err := io.ReadFull(br, alpha); err != nil {
		return nil, err
	}
	header := make([]byte, HeaderLen(suite.Params))
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, err
	}
	count, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, err
	}
	seeds := make([]prpSeed, count)
	for i := range seeds {
		key := make([]byte, 32)
		if _, err := io.ReadFull(br, key); err != nil {
			return nil, err
		}
		iv := make([]byte, prpIVLen)
		if _, err := io.ReadFull(br, iv); err != nil {
			return nil, err
		}
		seeds[i] = prpSeed{key, iv}
	}
	return &PartialPacket{suite: suite, alpha: alpha, header: header, prpSeeds: seeds}, nil
}

// MetaPacket is a complete, fixed-size wire packet: alpha, routing
// header, and padded payload concatenated together.
type MetaPacket struct {
	suite *Suite
	data  []byte
}

// Bytes returns the packet's wire representation.
func (mp *MetaPacket) Bytes() []byte { return mp.data }

// ParseMetaPacket validates the length of data and wraps it.
func ParseMetaPacket(suite *Suite, data []byte) (*MetaPacket, error) {
	if len(data) != PacketLen(suite) {
		return nil, ErrPacketDecoding
	}
	return &MetaPacket{suite: suite, data: append([]byte{}, data...)}, nil
}

func (mp *MetaPacket) alphaSlice() []byte {
	return mp.data[:mp.suite.Group.ElementSize()]
}

func (mp *MetaPacket) headerSlice() []byte {
	start := mp.suite.Group.ElementSize()
	return mp.data[start : start+HeaderLen(mp.suite.Params)]
}

func (mp *MetaPacket) payloadSlice() []byte {
	start := mp.suite.Group.ElementSize() + HeaderLen(mp.suite.Params)
	return mp.data[start:]
}

// ReplyOpenerLookup resolves the receiver data embedded in a reply
// packet's final record back to the ReplyOpener the original SURB
// creator retained.
type ReplyOpenerLookup func(receiverData []byte) (*ReplyOpener, bool)

// RelayedPacket is the result of peeling one layer off a MetaPacket
// whose next hop is another relay.
type RelayedPacket struct {
	NextPacket    *MetaPacket
	NextNodeKey   []byte
	PathPos       byte
	RelayerData   []byte
	DerivedSecret []byte
	PacketTag     []byte
}

// FinalPacket is the result of peeling the last layer off a MetaPacket
// addressed to this hop.
type FinalPacket struct {
	Plaintext     *PaddedPayload
	ReceiverData  []byte
	DerivedSecret []byte
	PacketTag     []byte
	NoAck         bool
}

// ForwardedMetaPacket tags the two possible outcomes of IntoForwarded,
// standing in for a Rust enum. Exactly one field is non-nil.
type ForwardedMetaPacket struct {
	Relayed *RelayedPacket
	Final   *FinalPacket
}

// IntoForwarded peels one onion layer off mp using this hop's private
// key: it recomputes the shared secret via forwardTransform, verifies
// and peels the routing header, and inverts one PRP layer of the
// payload. If the header marks this hop final and the packet is a SURB
// reply, lookup is consulted to finish unwinding the payload with the
// original SURB creator's retained secrets.
func (mp *MetaPacket) IntoForwarded(priv []byte, mapper KeyIDMapper, lookup ReplyOpenerLookup) (*ForwardedMetaPacket, error) {
	suite := mp.suite
	secret, alphaNext, err := forwardTransform(suite, mp.alphaSlice(), priv)
	if err != nil {
		return nil, ErrPacketDecoding
	}
	defer zeroize(secret)

	fh, err := forwardHeader(suite, secret, mp.headerSlice())
	if err != nil {
		log.Warningf("sphinx: dropping packet: %v", err)
		return nil, err
	}

	payload := append([]byte{}, mp.payloadSlice()...)
	prpKey, prpIV, err := prpInit(secret)
	if err != nil {
		return nil, err
	}
	prp, err := suite.NewPRP(prpKey, prpIV)
	if err != nil {
		return nil, err
	}
	prp.Inverse(payload)

	tag, err := packetTag(secret, suite.Params.TagLen)
	if err != nil {
		return nil, err
	}

	if fh.final {
		if fh.isReply {
			opener, ok := lookup(fh.receiverData)
			if !ok {
				log.Warningf("sphinx: dropping packet: no reply opener: %v", ErrPacketDecoding)
				return nil, ErrPacketDecoding
			}
			for i := len(opener.SharedSecrets) - 1; i >= 0; i-- {
				k, iv, err := prpInit(opener.SharedSecrets[i])
				if err != nil {
					return nil, err
				}
				p, err := suite.NewPRP(k, iv)
				if err != nil {
					return nil, err
				}
				p.Forward(payload)
			}
			rk, riv, err := replyPRPInit(opener.SenderKey, fh.receiverData)
			if err != nil {
				return nil, err
			}
			rp, err := suite.NewPRP(rk, riv)
			if err != nil {
				return nil, err
			}
			rp.Inverse(payload)
		}
		pp, err := FromPadded(suite.Params, payload)
		if err != nil {
			return nil, err
		}
		log.Debug("sphinx: packet resolved at final hop")
		return &ForwardedMetaPacket{Final: &FinalPacket{
			Plaintext:     pp,
			ReceiverData:  fh.receiverData,
			DerivedSecret: append([]byte{}, secret...),
			PacketTag:     tag,
			NoAck:         fh.noAck,
		}}, nil
	}

	nextPub, ok := mapper.MapIDToKey(fh.nextKeyID)
	if !ok {
		log.Warningf("sphinx: dropping packet: unknown next-hop key id: %v", ErrPacketDecoding)
		return nil, ErrPacketDecoding
	}

	nextData := make([]byte, 0, PacketLen(suite))
	nextData = append(nextData, alphaNext...)
	nextData = append(nextData, fh.outgoing...)
	nextData = append(nextData, payload...)

	log.Debug("sphinx: packet relayed to next hop")
	return &ForwardedMetaPacket{Relayed: &RelayedPacket{
		NextPacket:    &MetaPacket{suite: suite, data: nextData},
		NextNodeKey:   nextPub,
		PathPos:       fh.pathPos,
		RelayerData:   fh.relayerData,
		DerivedSecret: append([]byte{}, secret...),
		PacketTag:     tag,
	}}, nil
}
