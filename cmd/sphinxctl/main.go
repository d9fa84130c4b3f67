package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/urfave/cli/v2"

	"github.com/hashmix/sphinx"
	"github.com/hashmix/sphinx/config"
)

const (
	BOB     = "71df4af67d0236f148e8c4d764ead3662693b4561b7bca19c6c7b3d804098fee"
	CHARLIE = "3aae4a7a4717e9721b49e8247be4a1280c2d9afad9f011dedc9e3650051c9ae9"
	DAVE    = "34df19f85e920cb3a0dd529fd61dace4ac9a567c00c521b98e75762eed06911b"
)

var (
	bob, charlie, dave *secp256k1.PrivateKey
	suite              *sphinx.Suite
	mapper             *sphinx.KeyIDMap
)

func setupKeys(ctx *cli.Context) error {
	keybytes, _ := hex.DecodeString(BOB)
	bob = secp256k1.PrivKeyFromBytes(keybytes)

	keybytes, _ = hex.DecodeString(CHARLIE)
	charlie = secp256k1.PrivKeyFromBytes(keybytes)

	keybytes, _ = hex.DecodeString(DAVE)
	dave = secp256k1.PrivKeyFromBytes(keybytes)

	suite = sphinx.DefaultSuite(config.Default().Params())
	ids := make([][]byte, 3)
	for i := range ids {
		ids[i] = make([]byte, suite.Params.KeyIDLen)
		ids[i][0] = byte(i + 1)
	}
	mapper = sphinx.NewKeyIDMap(
		ids,
		[][]byte{
			bob.PubKey().SerializeCompressed(),
			charlie.PubKey().SerializeCompressed(),
			dave.PubKey().SerializeCompressed(),
		},
	)
	return nil
}

func main() {
	app := cli.App{
		Name: "sphinxctl",
		Commands: []*cli.Command{
			onionCmd,
			parseCmd,
			surbCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var onionCmd = &cli.Command{
	Name:   "onion",
	Usage:  "build a forward packet addressed to dave, via bob and charlie",
	Before: setupKeys,
	Action: buildOnion,
}

func buildOnion(ctx *cli.Context) error {
	fmt.Println("start building the packet. What message do you want to send to dave:")

	reader := bufio.NewReader(os.Stdin)
	msg, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("could not read input: %v", err)
	}

	pathKeys := [][]byte{
		bob.PubKey().SerializeCompressed(),
		charlie.PubKey().SerializeCompressed(),
		dave.PubKey().SerializeCompressed(),
	}
	sk, err := sphinx.BuildSharedKeys(suite, pathKeys)
	if err != nil {
		return err
	}

	routing := sphinx.Routing{ForwardPath: &sphinx.ForwardPathRouting{
		SharedKeys:   sk,
		PathPubKeys:  pathKeys,
		RelayerData:  make([][]byte, len(pathKeys)-1),
		ReceiverData: make([]byte, suite.Params.ReceiverDataLen),
	}}
	pp, err := sphinx.NewPartialPacket(suite, routing, mapper)
	if err != nil {
		return err
	}

	payload, err := sphinx.NewPaddedPayload(suite.Params, []byte(msg))
	if err != nil {
		return err
	}
	packet, err := pp.IntoMetaPacket(payload)
	if err != nil {
		return err
	}

	fmt.Printf("packet to pass to first hop (bob): %x\n", packet.Bytes())
	return nil
}

var parseCmd = &cli.Command{
	Name:      "parse",
	Usage:     "peel one layer off a packet as the named hop",
	ArgsUsage: "[PACKET]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "hop",
			Usage: "specify hop (bob, charlie or dave) to peel the packet as",
		},
	},
	Before: setupKeys,
	Action: parseOnion,
}

func parseOnion(ctx *cli.Context) error {
	args := ctx.Args()
	if args.Len() < 1 {
		return errors.New("pass a packet to parse")
	}

	hop := ctx.String("hop")
	var hopKey *secp256k1.PrivateKey
	switch hop {
	case "bob":
		hopKey = bob
	case "charlie":
		hopKey = charlie
	case "dave":
		hopKey = dave
	default:
		return errors.New("invalid hop")
	}

	packetBytes, err := hex.DecodeString(args.First())
	if err != nil {
		return fmt.Errorf("error decoding packet: %v", err)
	}

	packet, err := sphinx.ParseMetaPacket(suite, packetBytes)
	if err != nil {
		return err
	}

	forwarded, err := packet.IntoForwarded(hopKey.Serialize(), mapper, noSurbLookup)
	if err != nil {
		return err
	}

	if forwarded.Final != nil {
		msg, err := forwarded.Final.Plaintext.IntoUnpadded()
		if err != nil {
			return err
		}
		fmt.Printf("message for %v: %s\n", hop, msg)
		fmt.Println("this is the packet's final destination")
		return nil
	}

	fmt.Printf("relayer data for %v: %x\n", hop, forwarded.Relayed.RelayerData)
	fmt.Printf("packet for the next hop: %x\n", forwarded.Relayed.NextPacket.Bytes())
	return nil
}

func noSurbLookup(receiverData []byte) (*sphinx.ReplyOpener, bool) { return nil, false }

var surbCmd = &cli.Command{
	Name:   "surb",
	Usage:  "create a single-use reply block, build a reply packet with it, and redeem the reply end to end",
	Before: setupKeys,
	Action: runSurb,
}

func runSurb(ctx *cli.Context) error {
	pathKeys := [][]byte{
		bob.PubKey().SerializeCompressed(),
		charlie.PubKey().SerializeCompressed(),
		dave.PubKey().SerializeCompressed(),
	}
	sk, err := sphinx.BuildSharedKeys(suite, pathKeys)
	if err != nil {
		return err
	}
	ids := make([][]byte, len(pathKeys))
	for i, pub := range pathKeys {
		id, _ := mapper.MapKeyToID(pub)
		ids[i] = id
	}

	pseudonym := make([]byte, suite.Params.ReceiverDataLen)
	copy(pseudonym, []byte("alice-reply-pseudonym"))

	surb, opener, err := sphinx.CreateSURB(suite, sk, ids, make([][]byte, len(pathKeys)-1), pseudonym)
	if err != nil {
		return err
	}

	fmt.Println("SURB created, handing it to dave for a reply:")
	pp, err := sphinx.NewPartialPacket(suite, sphinx.Routing{Surb: &sphinx.SurbRouting{Surb: surb}}, mapper)
	if err != nil {
		return err
	}
	payload, err := sphinx.NewPaddedPayload(suite.Params, []byte("hello alice, this is dave"))
	if err != nil {
		return err
	}
	packet, err := pp.IntoMetaPacket(payload)
	if err != nil {
		return err
	}

	lookup := func(rd []byte) (*sphinx.ReplyOpener, bool) {
		return opener, true
	}

	hops := []*secp256k1.PrivateKey{bob, charlie, dave}
	for i, hopKey := range hops {
		forwarded, err := packet.IntoForwarded(hopKey.Serialize(), mapper, lookup)
		if err != nil {
			return err
		}
		if forwarded.Final != nil {
			msg, err := forwarded.Final.Plaintext.IntoUnpadded()
			if err != nil {
				return err
			}
			fmt.Printf("alice recovered the reply: %s\n", msg)
			return nil
		}
		packet = forwarded.Relayed.NextPacket
		fmt.Printf("reply relayed through hop %d\n", i+1)
	}

	return errors.New("reply never reached a final hop")
}
