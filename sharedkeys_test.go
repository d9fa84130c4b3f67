package sphinx

import (
	"bytes"
	"errors"
	"testing"
)

func TestSharedKeysMatchAtEachHop(t *testing.T) {
	suite := testSuite()
	nodes := makeTestNodes(t, 4)
	pubs := make([][]byte, len(nodes))
	for i, n := range nodes {
		pubs[i] = n.pub
	}

	sk, err := BuildSharedKeys(suite, pubs)
	if err != nil {
		t.Fatalf("BuildSharedKeys: %v", err)
	}
	if len(sk.Secrets) != len(nodes) {
		t.Fatalf("got %d secrets, want %d", len(sk.Secrets), len(nodes))
	}

	alpha := sk.Alpha
	for i, n := range nodes {
		secret, alphaNext, err := forwardTransform(suite, alpha, n.priv.Serialize())
		if err != nil {
			t.Fatalf("hop %d: forwardTransform: %v", i, err)
		}
		if !bytes.Equal(secret, sk.Secrets[i]) {
			t.Fatalf("hop %d: derived secret does not match sender's", i)
		}
		alpha = alphaNext
	}
}

func TestSharedKeysRejectsInvalidElement(t *testing.T) {
	suite := testSuite()
	_, err := BuildSharedKeys(suite, [][]byte{{0x01, 0x02, 0x03}})
	if !errors.Is(err, ErrPacketConstruction) {
		t.Fatalf("err = %v, want ErrPacketConstruction", err)
	}
}

func TestSharedKeysRejectsOverlongPath(t *testing.T) {
	suite := testSuite()
	nodes := makeTestNodes(t, suite.Params.MaxHops+1)
	pubs := make([][]byte, len(nodes))
	for i, n := range nodes {
		pubs[i] = n.pub
	}
	_, err := BuildSharedKeys(suite, pubs)
	if !errors.Is(err, ErrPacketConstruction) {
		t.Fatalf("err = %v, want ErrPacketConstruction", err)
	}
}
