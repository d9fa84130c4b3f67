package sphinx

import "crypto/hmac"

// Flag bits carried, MAC-authenticated, in every routing record.
const (
	flagFinal = 1 << 0
	flagReply = 1 << 1
	flagNoAck = 1 << 2
)

// recordOffsets returns the byte ranges of one RecordSize(p)-wide
// routing record: key id, flag byte, path-position byte, relayer data,
// mac-of-remainder tag.
func recordOffsets(p Params) (keyID, flag, pathPos, relayer, tag [2]int) {
	o := 0
	keyID = [2]int{o, o + p.KeyIDLen}
	o += p.KeyIDLen
	flag = [2]int{o, o + 1}
	o++
	pathPos = [2]int{o, o + 1}
	o++
	relayer = [2]int{o, o + p.RelayerDataLen}
	o += p.RelayerDataLen
	tag = [2]int{o, o + p.TagLen}
	return
}

// buildHeader assembles a routing header for a path of len(secrets)
// hops, generalizing the teacher's ConstructOnion: the same
// shift-record-in-from-the-front / XOR-with-this-hop's-keystream /
// overlay-filler-once loop, run backwards from the final hop to the
// first, but sized from Params instead of a fixed 1300-byte buffer, and
// with the header's current MAC (gamma) carried as a field alongside
// beta rather than folded into the first record.
//
// keyIDs[i] is the short identifier of the i-th hop on the path.
// relayerData must have one entry per non-final hop (len(secrets)-1).
func buildHeader(suite *Suite, secrets [][]byte, keyIDs [][]byte, relayerData [][]byte, receiverData []byte, isReply, noAck bool) ([]byte, error) {
	p := suite.Params
	n := len(secrets)
	if n == 0 || n > p.MaxHops {
		return nil, ErrPacketConstruction
	}
	if len(keyIDs) != n || len(relayerData) != n-1 {
		return nil, ErrPacketConstruction
	}
	if len(receiverData) != p.ReceiverDataLen {
		return nil, ErrPacketConstruction
	}

	rs := RecordSize(p)
	betaLen := BetaLen(p)
	kr, fr, pr, rr, tr := recordOffsets(p)

	padKey, padIV, err := prgPadInit(secrets[0])
	if err != nil {
		return nil, err
	}
	beta := make([]byte, betaLen)
	padPRG, err := suite.NewPRG(padKey, padIV)
	if err != nil {
		return nil, err
	}
	padPRG.XORKeyStream(beta, beta)

	filler, err := computeFiller(suite, secrets, rs, betaLen)
	if err != nil {
		return nil, err
	}

	trailer := make([]byte, p.ReceiverDataLen)
	nextMac := make([]byte, p.TagLen)
	var gamma []byte

	for i := n - 1; i >= 0; i-- {
		muKey, err := macKey(secrets[i])
		if err != nil {
			return nil, err
		}
		rhoKey, rhoIV, err := prgInit(secrets[i])
		if err != nil {
			return nil, err
		}

		record := make([]byte, rs)
		record[pr[0]] = byte(i)
		if i == n-1 {
			flag := byte(flagFinal)
			if isReply {
				flag |= flagReply
			}
			if noAck {
				flag |= flagNoAck
			}
			record[fr[0]] = flag
			copy(trailer, receiverData)
		} else {
			copy(record[kr[0]:kr[1]], keyIDs[i+1])
			copy(record[rr[0]:rr[1]], relayerData[i])
		}
		copy(record[tr[0]:tr[1]], nextMac)

		copy(beta[rs:], beta[:betaLen-rs])
		copy(beta[:rs], record)

		ks := make([]byte, betaLen)
		prg, err := suite.NewPRG(rhoKey, rhoIV)
		if err != nil {
			return nil, err
		}
		prg.XORKeyStream(ks, ks)
		xorInPlace(beta, ks)

		trailerKey, trailerIV, err := prgTrailerInit(secrets[i])
		if err != nil {
			return nil, err
		}
		trailerPRG, err := suite.NewPRG(trailerKey, trailerIV)
		if err != nil {
			return nil, err
		}
		trailerKS := make([]byte, p.ReceiverDataLen)
		trailerPRG.XORKeyStream(trailerKS, trailerKS)
		xorInPlace(trailer, trailerKS)

		if i == n-1 {
			copy(beta[betaLen-len(filler):], filler)
		}

		mac := suite.NewMAC(muKey)
		nextMac = mac.Tag(append(append([]byte{}, beta...), trailer...))[:p.TagLen]
		if i == 0 {
			gamma = nextMac
		}
	}

	header := make([]byte, 0, HeaderLen(p))
	header = append(header, beta...)
	header = append(header, gamma...)
	header = append(header, trailer...)
	return header, nil
}

// computeFiller generalizes the teacher's generateFiller: at the
// innermost hop, the header buffer must already look exactly like it
// would after real relays 0..n-2 had each shifted and XORed their own
// record into it, so a later relay (peeling its own layer) can never
// tell from the newly-revealed tail bytes how many hops remain.
func computeFiller(suite *Suite, secrets [][]byte, rs, betaLen int) ([]byte, error) {
	n := len(secrets)
	fillerLen := (n - 1) * rs
	filler := make([]byte, fillerLen)
	for i := 0; i < n-1; i++ {
		consumed := i * rs
		start := betaLen - consumed
		end := betaLen + rs

		rhoKey, rhoIV, err := prgInit(secrets[i])
		if err != nil {
			return nil, err
		}
		prg, err := suite.NewPRG(rhoKey, rhoIV)
		if err != nil {
			return nil, err
		}
		ks := make([]byte, end)
		prg.XORKeyStream(ks, ks)
		segment := ks[start:end]
		xorInPlace(filler[:len(segment)], segment)
	}
	return filler, nil
}

// forwardedHeader is the result of peeling one hop's layer off a
// routing header.
type forwardedHeader struct {
	final        bool
	isReply      bool
	noAck        bool
	nextKeyID    []byte
	pathPos      byte
	relayerData  []byte
	receiverData []byte
	outgoing     []byte
}

// forwardHeader verifies and peels one layer off header, using the
// shared secret this hop derived via forwardTransform. It returns
// ErrHeaderForward if the embedded MAC does not match.
func forwardHeader(suite *Suite, secret, header []byte) (*forwardedHeader, error) {
	p := suite.Params
	betaLen := BetaLen(p)
	rs := RecordSize(p)
	kr, fr, pr, rr, tr := recordOffsets(p)

	if len(header) != HeaderLen(p) {
		return nil, ErrHeaderForward
	}
	beta := append([]byte{}, header[:betaLen]...)
	gamma := header[betaLen : betaLen+p.TagLen]
	trailer := append([]byte{}, header[betaLen+p.TagLen:]...)

	muKey, err := macKey(secret)
	if err != nil {
		return nil, err
	}
	mac := suite.NewMAC(muKey)
	expected := append(append([]byte{}, beta...), trailer...)
	if !hmac.Equal(mac.Tag(expected)[:p.TagLen], gamma) {
		return nil, ErrHeaderForward
	}

	rhoKey, rhoIV, err := prgInit(secret)
	if err != nil {
		return nil, err
	}
	prg, err := suite.NewPRG(rhoKey, rhoIV)
	if err != nil {
		return nil, err
	}
	ks := make([]byte, betaLen+rs)
	prg.XORKeyStream(ks, ks)

	xorInPlace(beta, ks[:betaLen])
	fillerTail := ks[betaLen:]

	trailerKey, trailerIV, err := prgTrailerInit(secret)
	if err != nil {
		return nil, err
	}
	trailerPRG, err := suite.NewPRG(trailerKey, trailerIV)
	if err != nil {
		return nil, err
	}
	trailerKS := make([]byte, p.ReceiverDataLen)
	trailerPRG.XORKeyStream(trailerKS, trailerKS)
	xorInPlace(trailer, trailerKS)

	record := beta[:rs]
	flag := record[fr[0]]
	fh := &forwardedHeader{
		final:   flag&flagFinal != 0,
		isReply: flag&flagReply != 0,
		noAck:   flag&flagNoAck != 0,
		pathPos: record[pr[0]],
	}

	newBeta := make([]byte, betaLen)
	copy(newBeta, beta[rs:])
	copy(newBeta[betaLen-rs:], fillerTail)

	if fh.final {
		fh.receiverData = trailer
		return fh, nil
	}

	fh.nextKeyID = append([]byte{}, record[kr[0]:kr[1]]...)
	fh.relayerData = append([]byte{}, record[rr[0]:rr[1]]...)

	nextGamma := append([]byte{}, record[tr[0]:tr[1]]...)
	out := make([]byte, 0, HeaderLen(p))
	out = append(out, newBeta...)
	out = append(out, nextGamma...)
	out = append(out, trailer...)
	fh.outgoing = out
	return fh, nil
}
