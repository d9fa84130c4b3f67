package sphinx

import "github.com/pkg/errors"

// Sentinel error kinds. Callers distinguish failure classes with
// errors.Is. The package returns these sentinels as they are, without
// wrapping; an error raised by an underlying primitive (group parsing,
// PRG or HKDF setup) is returned unchanged rather than as one of these.
var (
	// ErrPadding is returned when a payload fails to pad or unpad: the
	// message is too long for the configured size, or no padding tag is
	// present in the buffer being unpadded.
	ErrPadding = errors.New("sphinx: payload padding error")

	// ErrPacketConstruction is returned when a caller asks for a packet
	// that cannot be built: an empty or over-long path, a mismatched
	// number of key ids or relayer data entries, or an invalid group
	// element supplied by the caller.
	ErrPacketConstruction = errors.New("sphinx: packet construction error")

	// ErrPacketDecoding is returned when a received MetaPacket cannot be
	// parsed: wrong length, unknown key id, or a missing SURB reply
	// opener.
	ErrPacketDecoding = errors.New("sphinx: packet decoding error")

	// ErrHeaderForward is returned when forwarding a routing header
	// fails, almost always because the per-hop MAC does not match.
	ErrHeaderForward = errors.New("sphinx: header forward error")
)
