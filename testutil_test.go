package sphinx

import (
	"crypto/rand"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func testParams() Params {
	return Params{
		PayloadLen:      64,
		MaxHops:         5,
		KeyIDLen:        8,
		RelayerDataLen:  16,
		ReceiverDataLen: 24,
		TagLen:          16,
	}
}

func testSuite() *Suite {
	return DefaultSuite(testParams())
}

type testNode struct {
	priv *secp256k1.PrivateKey
	pub  []byte
	id   []byte
}

func makeTestNodes(t *testing.T, n int) []testNode {
	t.Helper()
	nodes := make([]testNode, n)
	for i := 0; i < n; i++ {
		priv, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			t.Fatalf("generate key: %v", err)
		}
		nodes[i] = testNode{
			priv: priv,
			pub:  priv.PubKey().SerializeCompressed(),
			id:   []byte{byte(i), byte(i), byte(i), byte(i), byte(i), byte(i), byte(i), byte(i)},
		}
	}
	return nodes
}

func testMapper(nodes []testNode) *KeyIDMap {
	ids := make([][]byte, len(nodes))
	pubs := make([][]byte, len(nodes))
	for i, n := range nodes {
		ids[i] = n.id
		pubs[i] = n.pub
	}
	return NewKeyIDMap(ids, pubs)
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return b
}
