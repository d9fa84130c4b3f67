package sphinx

// SharedKeys holds the sender's blinded Diffie-Hellman walk down a
// path: the initial group element alpha and the per-hop shared secret
// each relay on the path will independently derive.
type SharedKeys struct {
	Alpha   []byte
	Secrets [][]byte
}

// BuildSharedKeys walks pathPubKeys, computing a fresh blinded-DH shared
// secret at each hop and accumulating the blinding scalar exactly the
// way the teacher's ConstructOnion does: start from a random scalar x,
// derive secret_i from x_i * Y_i, derive a blinding factor from
// (secret_i, alpha_i, Y_i), then fold it into x for the next hop.
func BuildSharedKeys(suite *Suite, pathPubKeys [][]byte) (*SharedKeys, error) {
	if len(pathPubKeys) == 0 || len(pathPubKeys) > suite.Params.MaxHops {
		return nil, ErrPacketConstruction
	}

	x, err := suite.Group.RandomScalar()
	if err != nil {
		return nil, err
	}
	defer zeroize(x)

	alpha0, err := suite.Group.ScalarBaseMult(x)
	if err != nil {
		return nil, err
	}

	cur := x
	curAlpha := alpha0
	secrets := make([][]byte, len(pathPubKeys))

	for i, pub := range pathPubKeys {
		if err := suite.Group.ValidateElement(pub); err != nil {
			return nil, ErrPacketConstruction
		}

		dh, err := suite.Group.ScalarMult(cur, pub)
		if err != nil {
			return nil, err
		}
		secret := sharedSecret(dh)
		secrets[i] = secret

		b, err := blinding(suite.Group, secret, curAlpha, pub)
		if err != nil {
			return nil, err
		}

		nextScalar, err := suite.Group.MultiplyScalars(cur, b)
		if err != nil {
			return nil, err
		}
		if cur != nil {
			zeroize(cur)
		}
		cur = nextScalar
		zeroize(b)

		curAlpha, err = suite.Group.ScalarBaseMult(cur)
		if err != nil {
			return nil, err
		}
	}
	zeroize(cur)

	return &SharedKeys{Alpha: alpha0, Secrets: secrets}, nil
}

// forwardTransform performs one relay's half of the blinded-DH walk:
// given the alpha it received and its own private key, it recovers the
// shared secret the sender derived for this hop and blinds alpha for
// the next hop on the path. Mirrors the teacher's ProcessOnion blinding
// recompute.
func forwardTransform(suite *Suite, alphaIn, priv []byte) (secret, alphaOut []byte, err error) {
	if err := suite.Group.ValidateElement(alphaIn); err != nil {
		return nil, nil, ErrPacketDecoding
	}

	dh, err := suite.Group.ScalarMult(priv, alphaIn)
	if err != nil {
		return nil, nil, err
	}
	secret = sharedSecret(dh)

	pub, err := suite.Group.ScalarBaseMult(priv)
	if err != nil {
		return nil, nil, err
	}

	b, err := blinding(suite.Group, secret, alphaIn, pub)
	if err != nil {
		return nil, nil, err
	}
	defer zeroize(b)

	alphaOut, err = suite.Group.ScalarMult(b, alphaIn)
	if err != nil {
		return nil, nil, err
	}
	return secret, alphaOut, nil
}
