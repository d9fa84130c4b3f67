package sphinx

import (
	"crypto/rand"
	"io"
)

const senderKeyLen = 32

// SURB (Single-Use Reply Block) lets whoever holds it build exactly one
// reply packet back to the SURB's creator without learning the
// creator's identity or position on the path. Fields mirror spec.md
// §4.7: alpha and header are the same routing state a forward packet
// carries; sender_key binds the one extra PRP pass only the creator can
// invert; Pseudonym is the opaque tag embedded as this SURB's final
// routing record's receiver data, used both to look up the matching
// ReplyOpener and, via replyPRPInit, to bind the reply cryptographically
// to this specific SURB.
type SURB struct {
	Alpha     []byte
	Header    []byte
	SenderKey []byte
	Pseudonym []byte
}

// ReplyOpener is retained privately by whoever calls CreateSURB. It
// holds what's needed to finish unwinding a reply once it arrives:
// every shared secret the SURB's path will apply (in path order), and
// the sender key.
type ReplyOpener struct {
	SharedSecrets [][]byte
	SenderKey     []byte
}

// CreateSURB builds a reply-routing header along the given shared-key
// path, exactly like a forward header except the final record carries
// pseudonym as receiver data and is flagged is_reply. It returns the
// publishable SURB and the ReplyOpener its creator must keep to redeem
// a matching reply later.
func CreateSURB(suite *Suite, sk *SharedKeys, keyIDs [][]byte, relayerData [][]byte, pseudonym []byte) (*SURB, *ReplyOpener, error) {
	header, err := buildHeader(suite, sk.Secrets, keyIDs, relayerData, pseudonym, true, false)
	if err != nil {
		return nil, nil, err
	}

	senderKey := make([]byte, senderKeyLen)
	if _, err := io.ReadFull(rand.Reader, senderKey); err != nil {
		return nil, nil, err
	}

	surb := &SURB{
		Alpha:     sk.Alpha,
		Header:    header,
		SenderKey: senderKey,
		Pseudonym: pseudonym,
	}
	opener := &ReplyOpener{
		SharedSecrets: append([][]byte{}, sk.Secrets...),
		SenderKey:     senderKey,
	}
	return surb, opener, nil
}
