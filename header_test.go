package sphinx

import (
	"bytes"
	"errors"
	"testing"
)

func buildTestHeader(t *testing.T, suite *Suite, nodes []testNode, noAck bool) (*SharedKeys, []byte, []byte) {
	t.Helper()
	p := suite.Params
	n := len(nodes)

	pubs := make([][]byte, n)
	for i, nd := range nodes {
		pubs[i] = nd.pub
	}
	sk, err := BuildSharedKeys(suite, pubs)
	if err != nil {
		t.Fatalf("BuildSharedKeys: %v", err)
	}

	keyIDs := make([][]byte, n)
	for i, nd := range nodes {
		keyIDs[i] = nd.id
	}
	relayerData := make([][]byte, n-1)
	for i := range relayerData {
		relayerData[i] = randomBytes(t, p.RelayerDataLen)
	}
	receiverData := randomBytes(t, p.ReceiverDataLen)

	header, err := buildHeader(suite, sk.Secrets, keyIDs, relayerData, receiverData, false, noAck)
	if err != nil {
		t.Fatalf("buildHeader: %v", err)
	}
	if len(header) != HeaderLen(p) {
		t.Fatalf("header length = %d, want %d", len(header), HeaderLen(p))
	}
	return sk, header, receiverData
}

func TestHeaderSingleHop(t *testing.T) {
	suite := testSuite()
	nodes := makeTestNodes(t, 1)
	sk, header, receiverData := buildTestHeader(t, suite, nodes, false)

	fh, err := forwardHeader(suite, sk.Secrets[0], header)
	if err != nil {
		t.Fatalf("forwardHeader: %v", err)
	}
	if !fh.final {
		t.Fatalf("expected final hop")
	}
	if !bytes.Equal(fh.receiverData, receiverData) {
		t.Fatalf("receiverData = %x, want %x", fh.receiverData, receiverData)
	}
}

func TestHeaderMultiHop(t *testing.T) {
	suite := testSuite()
	nodes := makeTestNodes(t, 4)
	sk, header, receiverData := buildTestHeader(t, suite, nodes, false)

	alpha := sk.Alpha
	cur := header
	for i, nd := range nodes {
		secret, alphaNext, err := forwardTransform(suite, alpha, nd.priv.Serialize())
		if err != nil {
			t.Fatalf("hop %d: forwardTransform: %v", i, err)
		}
		if !bytes.Equal(secret, sk.Secrets[i]) {
			t.Fatalf("hop %d: secret mismatch", i)
		}

		fh, err := forwardHeader(suite, secret, cur)
		if err != nil {
			t.Fatalf("hop %d: forwardHeader: %v", i, err)
		}
		if int(fh.pathPos) != i {
			t.Fatalf("hop %d: pathPos = %d, want %d", i, fh.pathPos, i)
		}

		last := i == len(nodes)-1
		if fh.final != last {
			t.Fatalf("hop %d: final = %v, want %v", i, fh.final, last)
		}
		if last {
			if !bytes.Equal(fh.receiverData, receiverData) {
				t.Fatalf("hop %d: receiverData mismatch", i)
			}
			continue
		}
		if !bytes.Equal(fh.nextKeyID, nodes[i+1].id) {
			t.Fatalf("hop %d: nextKeyID = %x, want %x", i, fh.nextKeyID, nodes[i+1].id)
		}
		cur = fh.outgoing
		alpha = alphaNext
	}
}

func TestHeaderNoAckFlag(t *testing.T) {
	suite := testSuite()
	nodes := makeTestNodes(t, 2)
	sk, header, _ := buildTestHeader(t, suite, nodes, true)

	secret0, alpha1, err := forwardTransform(suite, sk.Alpha, nodes[0].priv.Serialize())
	if err != nil {
		t.Fatalf("forwardTransform hop0: %v", err)
	}
	fh0, err := forwardHeader(suite, secret0, header)
	if err != nil {
		t.Fatalf("forwardHeader hop0: %v", err)
	}

	secret1, _, err := forwardTransform(suite, alpha1, nodes[1].priv.Serialize())
	if err != nil {
		t.Fatalf("forwardTransform hop1: %v", err)
	}
	fh1, err := forwardHeader(suite, secret1, fh0.outgoing)
	if err != nil {
		t.Fatalf("forwardHeader hop1: %v", err)
	}
	if !fh1.final || !fh1.noAck {
		t.Fatalf("final hop: final=%v noAck=%v, want true/true", fh1.final, fh1.noAck)
	}
}

func TestHeaderTamperedGammaFails(t *testing.T) {
	suite := testSuite()
	nodes := makeTestNodes(t, 1)
	sk, header, _ := buildTestHeader(t, suite, nodes, false)

	tampered := append([]byte{}, header...)
	betaLen := BetaLen(suite.Params)
	tampered[betaLen] ^= 0xff

	if _, err := forwardHeader(suite, sk.Secrets[0], tampered); !errors.Is(err, ErrHeaderForward) {
		t.Fatalf("err = %v, want ErrHeaderForward", err)
	}
}

func TestHeaderTamperedBetaFails(t *testing.T) {
	suite := testSuite()
	nodes := makeTestNodes(t, 3)
	sk, header, _ := buildTestHeader(t, suite, nodes, false)

	tampered := append([]byte{}, header...)
	tampered[0] ^= 0xff

	if _, err := forwardHeader(suite, sk.Secrets[0], tampered); !errors.Is(err, ErrHeaderForward) {
		t.Fatalf("err = %v, want ErrHeaderForward", err)
	}
}

func TestHeaderWrongSecretFails(t *testing.T) {
	suite := testSuite()
	nodes := makeTestNodes(t, 2)
	sk, header, _ := buildTestHeader(t, suite, nodes, false)

	if _, err := forwardHeader(suite, sk.Secrets[1], header); !errors.Is(err, ErrHeaderForward) {
		t.Fatalf("err = %v, want ErrHeaderForward", err)
	}
}
