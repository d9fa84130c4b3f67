// Package config loads a sphinx.Params profile from a TOML document, the
// same ambient pattern katzenpost-client's config package uses to turn a
// deployment's configuration file into in-memory structs.
package config

import (
	"github.com/BurntSushi/toml"

	"github.com/hashmix/sphinx"
)

// Profile is the on-disk shape of a deployment's packet-size
// configuration: the fixed widths that make every MetaPacket in that
// deployment the same number of bytes.
type Profile struct {
	PayloadLen      int `toml:"payload_len"`
	MaxHops         int `toml:"max_hops"`
	KeyIDLen        int `toml:"key_id_len"`
	RelayerDataLen  int `toml:"relayer_data_len"`
	ReceiverDataLen int `toml:"receiver_data_len"`
	TagLen          int `toml:"tag_len"`
}

// Params converts a loaded Profile into a sphinx.Params.
func (p Profile) Params() sphinx.Params {
	return sphinx.Params{
		PayloadLen:      p.PayloadLen,
		MaxHops:         p.MaxHops,
		KeyIDLen:        p.KeyIDLen,
		RelayerDataLen:  p.RelayerDataLen,
		ReceiverDataLen: p.ReceiverDataLen,
		TagLen:          p.TagLen,
	}
}

// Default returns the profile this module's demo tooling (cmd/sphinxctl)
// uses; that tool does not read a configuration file.
func Default() Profile {
	return Profile{
		PayloadLen:      1024,
		MaxHops:         5,
		KeyIDLen:        8,
		RelayerDataLen:  16,
		ReceiverDataLen: 32,
		TagLen:          16,
	}
}

// Load decodes a TOML profile from path.
func Load(path string) (Profile, error) {
	var p Profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}
