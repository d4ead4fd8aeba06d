// Package dhcp4 models a DHCPv4 message: the RFC 2131 fixed header, the
// magic cookie and the ordered top-level option collection, plus the
// transport metadata the interface manager needs to deliver it.
package dhcp4

import (
	"errors"
	"fmt"
	"net"

	"github.com/u-root/uio/uio"
	"github.com/veesix-networks/dhcpkit/pkg/option"
)

const (
	// FixedHeaderLen is the RFC 2131 header through the file field.
	FixedHeaderLen = 236

	// MinPacketLen pads outgoing packets to the BOOTP minimum (RFC 951).
	MinPacketLen = 300

	// MagicCookie precedes the option area.
	MagicCookie uint32 = 0x63825363

	// MaxHWAddrLen bounds the chaddr field.
	MaxHWAddrLen = 16

	ServerPort uint16 = 67
	ClientPort uint16 = 68
)

const (
	OpRequest uint8 = 1
	OpReply   uint8 = 2
)

const (
	HTypeEthernet uint8 = 1
)

// FlagBroadcast is the only defined bit of the flags field.
const FlagBroadcast uint16 = 0x8000

var ErrParse = errors.New("malformed DHCPv4 packet")

type MessageType uint8

const (
	Discover MessageType = 1
	Offer    MessageType = 2
	Request  MessageType = 3
	Decline  MessageType = 4
	Ack      MessageType = 5
	Nak      MessageType = 6
	Release  MessageType = 7
	Inform   MessageType = 8
)

func (mt MessageType) String() string {
	switch mt {
	case Discover:
		return "DHCPDISCOVER"
	case Offer:
		return "DHCPOFFER"
	case Request:
		return "DHCPREQUEST"
	case Decline:
		return "DHCPDECLINE"
	case Ack:
		return "DHCPACK"
	case Nak:
		return "DHCPNAK"
	case Release:
		return "DHCPRELEASE"
	case Inform:
		return "DHCPINFORM"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(mt))
	}
}

type Packet struct {
	Op     uint8
	HType  uint8
	Hops   uint8
	XID    uint32
	Secs   uint16
	Flags  uint16
	CIAddr net.IP
	YIAddr net.IP
	SIAddr net.IP
	GIAddr net.IP
	CHAddr net.HardwareAddr
	Sname  string
	File   string

	Options option.Options

	// BadOptions holds the per-option decode failures absorbed under the
	// default skip-and-continue policy.
	BadOptions []option.DecodeError

	// DHCP4o6 tags packets extracted from a DHCPv6 carrier so callers can
	// branch once instead of type-asserting at every call site.
	DHCP4o6 bool

	// Transport metadata, filled on receive and consulted on send.
	IfaceName    string
	IfaceIndex   int
	LocalAddr    net.IP
	RemoteAddr   net.IP
	LocalPort    uint16
	RemotePort   uint16
	RemoteHWAddr net.HardwareAddr
}

// New builds a request skeleton with the given transaction id and client
// hardware address.
func New(xid uint32, chaddr net.HardwareAddr) *Packet {
	return &Packet{
		Op:     OpRequest,
		HType:  HTypeEthernet,
		XID:    xid,
		CIAddr: net.IPv4zero.To4(),
		YIAddr: net.IPv4zero.To4(),
		SIAddr: net.IPv4zero.To4(),
		GIAddr: net.IPv4zero.To4(),
		CHAddr: chaddr,
	}
}

// Unpack parses wire bytes using the default skip-and-continue option
// policy. A truncated fixed header or a bad magic cookie fails with ErrParse.
func Unpack(data []byte) (*Packet, error) {
	return UnpackWithPolicy(data, option.SkipBadOptions)
}

func UnpackWithPolicy(data []byte, policy option.DecodePolicy) (*Packet, error) {
	if len(data) < FixedHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrParse, len(data), FixedHeaderLen)
	}

	buf := uio.NewBigEndianBuffer(data)
	p := &Packet{
		Op:    buf.Read8(),
		HType: buf.Read8(),
	}
	hlen := buf.Read8()
	p.Hops = buf.Read8()
	p.XID = buf.Read32()
	p.Secs = buf.Read16()
	p.Flags = buf.Read16()
	p.CIAddr = append(net.IP(nil), buf.Consume(4)...)
	p.YIAddr = append(net.IP(nil), buf.Consume(4)...)
	p.SIAddr = append(net.IP(nil), buf.Consume(4)...)
	p.GIAddr = append(net.IP(nil), buf.Consume(4)...)

	chaddr := buf.Consume(MaxHWAddrLen)
	if hlen > MaxHWAddrLen {
		hlen = MaxHWAddrLen
	}
	p.CHAddr = append(net.HardwareAddr(nil), chaddr[:hlen]...)

	p.Sname = readPadded(buf.Consume(64))
	p.File = readPadded(buf.Consume(128))

	// A BOOTP-minimal packet with no option area at all is legal.
	if buf.Len() < 4 {
		return p, nil
	}

	cookie := buf.Read32()
	if cookie != MagicCookie {
		return nil, fmt.Errorf("%w: magic cookie 0x%08x", ErrParse, cookie)
	}

	opts, bad, err := option.DecodeAll(option.V4, buf.ReadAll(), policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	p.Options = opts
	p.BadOptions = bad

	return p, nil
}

// Pack serializes the packet: fixed header, magic cookie, options, End, and
// padding up to the BOOTP minimum.
func (p *Packet) Pack() ([]byte, error) {
	if len(p.CHAddr) > MaxHWAddrLen {
		return nil, fmt.Errorf("hardware address %d bytes, max %d", len(p.CHAddr), MaxHWAddrLen)
	}

	buf := uio.NewBigEndianBuffer(make([]byte, 0, MinPacketLen))
	buf.Write8(p.Op)
	buf.Write8(p.HType)
	buf.Write8(uint8(len(p.CHAddr)))
	buf.Write8(p.Hops)
	buf.Write32(p.XID)
	buf.Write16(p.Secs)
	buf.Write16(p.Flags)
	writeIP4(buf, p.CIAddr)
	writeIP4(buf, p.YIAddr)
	writeIP4(buf, p.SIAddr)
	writeIP4(buf, p.GIAddr)

	var chaddr [MaxHWAddrLen]byte
	copy(chaddr[:], p.CHAddr)
	buf.WriteBytes(chaddr[:])

	var sname [64]byte
	copy(sname[:], p.Sname)
	buf.WriteBytes(sname[:])

	var file [128]byte
	copy(file[:], p.File)
	buf.WriteBytes(file[:])

	buf.Write32(MagicCookie)

	encoded, err := p.Options.EncodeAll()
	if err != nil {
		return nil, err
	}
	buf.WriteBytes(encoded)
	buf.Write8(uint8(option.Opt4End))

	out := buf.Data()
	if len(out) < MinPacketLen {
		out = append(out, make([]byte, MinPacketLen-len(out))...)
	}
	return out, nil
}

func writeIP4(buf *uio.Lexer, ip net.IP) {
	var b [4]byte
	if v4 := ip.To4(); v4 != nil {
		copy(b[:], v4)
	}
	buf.WriteBytes(b[:])
}

func readPadded(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// GetOption returns the first top-level option with the code, or nil.
func (p *Packet) GetOption(code uint16) *option.Option {
	return p.Options.Get(code)
}

func (p *Packet) AddOption(o *option.Option) {
	p.Options.Add(o)
}

func (p *Packet) DelOption(code uint16) {
	p.Options.Del(code)
}

// MessageType reads option 53; zero when absent.
func (p *Packet) MessageType() MessageType {
	o := p.Options.Get(option.Opt4MessageType)
	if o == nil || len(o.Data) != 1 {
		return 0
	}
	return MessageType(o.Data[0])
}

func (p *Packet) SetMessageType(mt MessageType) {
	p.DelOption(option.Opt4MessageType)
	p.AddOption(option.New(option.V4, option.Opt4MessageType, []byte{uint8(mt)}))
}

func (p *Packet) IsBroadcast() bool {
	return p.Flags&FlagBroadcast != 0
}

func (p *Packet) String() string {
	return fmt.Sprintf("%s xid 0x%08x chaddr %s", p.MessageType(), p.XID, p.CHAddr)
}
