// Package sphinx implements a Sphinx mix-network packet format and
// onion-routing cryptographic engine: a layered, source-routed,
// replay-resistant, fixed-size packet construction that lets a sender
// deliver a payload to a recipient through an ordered sequence of relays,
// and an anonymous reply channel (SURB) that lets a recipient reply
// without learning who the sender is.
//
// The package performs no network I/O, stores no long-term keys, and does
// not itself track replays: it is purely a synchronous cryptographic
// engine. Callers supply a Suite (group arithmetic, PRG, PRP, MAC) and a
// KeyIDMapper, and drive packet construction, relaying, and SURB redemption
// through MetaPacket and PartialPacket.
package sphinx
