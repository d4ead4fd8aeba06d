// Package dhcp6 models DHCPv6 messages per RFC 8415: client/server messages,
// relay envelopes with their per-hop metadata chain, and DUID helpers.
package dhcp6

import (
	"errors"
	"fmt"
	"net"

	"github.com/u-root/uio/uio"
	"github.com/veesix-networks/dhcpkit/pkg/option"
)

const (
	ClientPort uint16 = 546
	ServerPort uint16 = 547

	// MsgHeaderLen is msg-type plus transaction id.
	MsgHeaderLen = 4

	// RelayHeaderLen is msg-type, hop-count, link-address, peer-address.
	RelayHeaderLen = 34

	// MaxRelayDepth bounds relay encapsulation nesting (RFC 8415 HOP_COUNT_LIMIT).
	MaxRelayDepth = 32
)

// Well-known multicast destinations.
var (
	AllRelayAgentsAndServers = net.ParseIP("ff02::1:2")
	AllServers               = net.ParseIP("ff05::1:3")
)

var ErrParse = errors.New("malformed DHCPv6 packet")

type MessageType uint8

const (
	Solicit            MessageType = 1
	Advertise          MessageType = 2
	Request            MessageType = 3
	Confirm            MessageType = 4
	Renew              MessageType = 5
	Rebind             MessageType = 6
	Reply              MessageType = 7
	Release            MessageType = 8
	Decline            MessageType = 9
	Reconfigure        MessageType = 10
	InformationRequest MessageType = 11
	RelayForward       MessageType = 12
	RelayReply         MessageType = 13
	DHCPv4Query        MessageType = 20
	DHCPv4Response     MessageType = 21
)

func (mt MessageType) String() string {
	switch mt {
	case Solicit:
		return "SOLICIT"
	case Advertise:
		return "ADVERTISE"
	case Request:
		return "REQUEST"
	case Confirm:
		return "CONFIRM"
	case Renew:
		return "RENEW"
	case Rebind:
		return "REBIND"
	case Reply:
		return "REPLY"
	case Release:
		return "RELEASE"
	case Decline:
		return "DECLINE"
	case Reconfigure:
		return "RECONFIGURE"
	case InformationRequest:
		return "INFORMATION-REQUEST"
	case RelayForward:
		return "RELAY-FORW"
	case RelayReply:
		return "RELAY-REPL"
	case DHCPv4Query:
		return "DHCPV4-QUERY"
	case DHCPv4Response:
		return "DHCPV4-RESPONSE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(mt))
	}
}

// IsRelay reports whether the type is a relay envelope.
func (mt MessageType) IsRelay() bool {
	return mt == RelayForward || mt == RelayReply
}

type TransactionID [3]byte

func (t TransactionID) String() string {
	return fmt.Sprintf("0x%02x%02x%02x", t[0], t[1], t[2])
}

// Packet is a DHCPv6 message. For a message received through one or more
// relays, MsgType/TransactionID/Options describe the innermost client or
// server message and Relay holds the unwound envelope chain.
type Packet struct {
	MsgType       MessageType
	TransactionID TransactionID
	Options       option.Options

	// BadOptions holds absorbed per-option decode failures.
	BadOptions []option.DecodeError

	// Relay is the per-hop chain: Relay[0] is the outermost received
	// envelope (the relay closest to the server), the last entry the relay
	// closest to the client. Empty for an unrelayed message.
	Relay []RelayInfo

	// Transport metadata.
	IfaceName  string
	IfaceIndex int
	LocalAddr  net.IP
	RemoteAddr net.IP
	LocalPort  uint16
	RemotePort uint16
}

// RelayInfo is one hop's envelope metadata. Options keeps every option the
// relay attached, in wire order; the embedded RELAY_MSG entry stays in its
// original position with nil data and is re-filled when the chain is packed,
// so a decode/encode cycle reproduces the received nesting byte for byte.
type RelayInfo struct {
	MsgType  MessageType
	HopCount uint8
	LinkAddr net.IP
	PeerAddr net.IP
	Options  option.Options
}

// InterfaceID returns the relay's interface-id option payload, or nil.
func (r *RelayInfo) InterfaceID() []byte {
	if o := r.Options.Get(option.Opt6InterfaceID); o != nil {
		return o.Data
	}
	return nil
}

func New(mt MessageType, tid TransactionID) *Packet {
	return &Packet{MsgType: mt, TransactionID: tid}
}

// Unpack parses wire bytes, unwinding any relay encapsulation, with the
// default skip-and-continue option policy.
func Unpack(data []byte) (*Packet, error) {
	return UnpackWithPolicy(data, option.SkipBadOptions)
}

func UnpackWithPolicy(data []byte, policy option.DecodePolicy) (*Packet, error) {
	p := &Packet{}

	for depth := 0; ; depth++ {
		if len(data) < 1 {
			return nil, fmt.Errorf("%w: empty message", ErrParse)
		}
		mt := MessageType(data[0])
		if !mt.IsRelay() {
			break
		}
		if depth >= MaxRelayDepth {
			return nil, fmt.Errorf("%w: relay nesting deeper than %d", ErrParse, MaxRelayDepth)
		}

		inner, info, err := unpackRelayEnvelope(data, policy)
		if err != nil {
			return nil, err
		}
		p.Relay = append(p.Relay, info)
		data = inner
	}

	if len(data) < MsgHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrParse, len(data), MsgHeaderLen)
	}

	buf := uio.NewBigEndianBuffer(data)
	p.MsgType = MessageType(buf.Read8())
	copy(p.TransactionID[:], buf.Consume(3))

	opts, bad, err := option.DecodeAll(option.V6, buf.ReadAll(), policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	p.Options = opts
	p.BadOptions = bad

	return p, nil
}

// unpackRelayEnvelope parses one relay wrapper and returns the embedded
// message bytes alongside the hop metadata. Exactly one RELAY_MSG option
// must be present.
func unpackRelayEnvelope(data []byte, policy option.DecodePolicy) ([]byte, RelayInfo, error) {
	var info RelayInfo
	if len(data) < RelayHeaderLen {
		return nil, info, fmt.Errorf("%w: relay envelope %d bytes, need %d", ErrParse, len(data), RelayHeaderLen)
	}

	buf := uio.NewBigEndianBuffer(data)
	info.MsgType = MessageType(buf.Read8())
	info.HopCount = buf.Read8()
	info.LinkAddr = append(net.IP(nil), buf.Consume(16)...)
	info.PeerAddr = append(net.IP(nil), buf.Consume(16)...)

	opts, _, err := option.DecodeAll(option.V6, buf.ReadAll(), policy)
	if err != nil {
		return nil, info, fmt.Errorf("%w: relay options: %v", ErrParse, err)
	}

	var inner []byte
	seen := 0
	for _, o := range opts {
		if o.Code == option.Opt6RelayMsg {
			seen++
			inner = o.Data
			// Keep the entry as a position marker only; the data is
			// regenerated from the inner message at pack time.
			o.Data = nil
		}
	}
	if seen != 1 {
		return nil, info, fmt.Errorf("%w: relay envelope carries %d relay-msg options", ErrParse, seen)
	}
	info.Options = opts

	return inner, info, nil
}

// Pack serializes the packet, rebuilding the relay nesting from the chain:
// the innermost wrapper is the last chain entry and Relay[0] forms the
// outermost envelope, mirroring exactly what Unpack consumed.
func (p *Packet) Pack() ([]byte, error) {
	buf := uio.NewBigEndianBuffer(nil)
	buf.Write8(uint8(p.MsgType))
	buf.WriteBytes(p.TransactionID[:])

	encoded, err := p.Options.EncodeAll()
	if err != nil {
		return nil, err
	}
	buf.WriteBytes(encoded)
	payload := buf.Data()

	for i := len(p.Relay) - 1; i >= 0; i-- {
		payload, err = packRelayEnvelope(&p.Relay[i], payload)
		if err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func packRelayEnvelope(info *RelayInfo, payload []byte) ([]byte, error) {
	buf := uio.NewBigEndianBuffer(nil)
	buf.Write8(uint8(info.MsgType))
	buf.Write8(info.HopCount)
	buf.WriteBytes(info.LinkAddr.To16())
	buf.WriteBytes(info.PeerAddr.To16())

	for _, o := range info.Options {
		toEncode := o
		if o.Code == option.Opt6RelayMsg {
			toEncode = option.New(option.V6, option.Opt6RelayMsg, payload)
		}
		encoded, err := toEncode.Encode()
		if err != nil {
			return nil, err
		}
		buf.WriteBytes(encoded)
	}
	return buf.Data(), nil
}

// GetOption returns the first top-level option of the innermost message.
func (p *Packet) GetOption(code uint16) *option.Option {
	return p.Options.Get(code)
}

func (p *Packet) AddOption(o *option.Option) {
	p.Options.Add(o)
}

func (p *Packet) DelOption(code uint16) {
	p.Options.Del(code)
}

// ClientID returns the client DUID, or nil.
func (p *Packet) ClientID() []byte {
	if o := p.Options.Get(option.Opt6ClientID); o != nil {
		return o.Data
	}
	return nil
}

// ServerID returns the server DUID, or nil.
func (p *Packet) ServerID() []byte {
	if o := p.Options.Get(option.Opt6ServerID); o != nil {
		return o.Data
	}
	return nil
}

// NewReplyChain builds the relay chain for a response to a relayed request:
// the same hops in the same order, with RELAY-REPL envelopes. Options each
// relay attached on the way in (interface-id in particular) are echoed back
// at their originating nesting level.
func (p *Packet) NewReplyChain() []RelayInfo {
	chain := make([]RelayInfo, len(p.Relay))
	for i, hop := range p.Relay {
		chain[i] = RelayInfo{
			MsgType:  RelayReply,
			HopCount: hop.HopCount,
			LinkAddr: hop.LinkAddr,
			PeerAddr: hop.PeerAddr,
			Options:  hop.Options,
		}
	}
	return chain
}

func (p *Packet) String() string {
	if len(p.Relay) > 0 {
		return fmt.Sprintf("%s xid %s (%d relay hops)", p.MsgType, p.TransactionID, len(p.Relay))
	}
	return fmt.Sprintf("%s xid %s", p.MsgType, p.TransactionID)
}
