package sphinx

// zeroize overwrites b in place. It is called on the sender's running
// scalar and the blinding scalars in the shared-key walk, and on the
// relay's derived shared secret when IntoForwarded returns. The derived
// PRG, MAC and PRP keys, the PRP seeds a PartialPacket holds, and the
// secrets returned in SharedKeys or a ReplyOpener are not zeroized by
// this package. The standard
// library carries no equivalent of Rust's Zeroizing<T> and no zeroize
// library appears anywhere in the retrieval corpus, so this is a direct,
// minimal stand-in rather than a borrowed dependency.
func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

