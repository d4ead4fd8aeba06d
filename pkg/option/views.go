package option

import (
	"fmt"
	"net"
	"strings"

	"github.com/insomniacslk/dhcp/rfc1035label"
	"github.com/u-root/uio/uio"
)

// A View is a typed interpretation of an option's payload. Views never carry
// their own wire format: FromOption and ToOption move between the typed form
// and the same raw bytes the tree stores.
type View interface {
	FromOption(o *Option) error
	ToOption() *Option
	String() string
}

// Scalar accessors on the raw payload.

func (o *Option) Uint8() (uint8, error) {
	if len(o.Data) < 1 {
		return 0, fmt.Errorf("option %d: %w", o.Code, ErrTruncated)
	}
	return o.Data[0], nil
}

func (o *Option) Uint16() (uint16, error) {
	if len(o.Data) < 2 {
		return 0, fmt.Errorf("option %d: %w", o.Code, ErrTruncated)
	}
	return uint16(o.Data[0])<<8 | uint16(o.Data[1]), nil
}

func (o *Option) Uint32() (uint32, error) {
	if len(o.Data) < 4 {
		return 0, fmt.Errorf("option %d: %w", o.Code, ErrTruncated)
	}
	buf := uio.NewBigEndianBuffer(o.Data)
	return buf.Read32(), nil
}

func (o *Option) SetUint32(v uint32) {
	buf := uio.NewBigEndianBuffer(nil)
	buf.Write32(v)
	o.Data = buf.Data()
}

// Text views the payload as an opaque string.
func (o *Option) Text() string {
	return string(o.Data)
}

// AddressList views the payload as a packed list of IP addresses, 4 bytes
// each for DHCPv4 options and 16 bytes each for DHCPv6.
type AddressList struct {
	Family    Family
	Code      uint16
	Addresses []net.IP
}

func (v *AddressList) addrLen() int {
	if v.Family == V4 {
		return net.IPv4len
	}
	return net.IPv6len
}

func (v *AddressList) FromOption(o *Option) error {
	v.Family = o.Family
	v.Code = o.Code
	alen := v.addrLen()
	if len(o.Data)%alen != 0 {
		return fmt.Errorf("option %d: %d bytes is not a multiple of %d", o.Code, len(o.Data), alen)
	}
	v.Addresses = nil
	for off := 0; off < len(o.Data); off += alen {
		v.Addresses = append(v.Addresses, append(net.IP(nil), o.Data[off:off+alen]...))
	}
	return nil
}

func (v *AddressList) ToOption() *Option {
	buf := uio.NewBigEndianBuffer(nil)
	for _, ip := range v.Addresses {
		if v.Family == V4 {
			buf.WriteBytes(ip.To4())
		} else {
			buf.WriteBytes(ip.To16())
		}
	}
	return &Option{Family: v.Family, Code: v.Code, Data: buf.Data()}
}

func (v *AddressList) String() string {
	strs := make([]string, 0, len(v.Addresses))
	for _, ip := range v.Addresses {
		strs = append(strs, ip.String())
	}
	return fmt.Sprintf("option %d: [%s]", v.Code, strings.Join(strs, " "))
}

// FQDN views a client-FQDN payload (option 81 for DHCPv4, 39 for DHCPv6).
// DHCPv4 carries flags plus two legacy rcode bytes before the domain, DHCPv6
// only the flags byte. The domain itself is RFC 1035 wire format.
type FQDN struct {
	Family Family
	Flags  uint8
	Domain string
}

func (v *FQDN) code() uint16 {
	if v.Family == V4 {
		return Opt4ClientFQDN
	}
	return Opt6ClientFQDN
}

func (v *FQDN) prefixLen() int {
	if v.Family == V4 {
		return 3
	}
	return 1
}

func (v *FQDN) FromOption(o *Option) error {
	v.Family = o.Family
	plen := v.prefixLen()
	if len(o.Data) < plen {
		return fmt.Errorf("FQDN option %d: %w", o.Code, ErrTruncated)
	}
	v.Flags = o.Data[0]
	labels, err := rfc1035label.FromBytes(o.Data[plen:])
	if err != nil {
		return fmt.Errorf("FQDN option %d: %w", o.Code, err)
	}
	if len(labels.Labels) > 0 {
		v.Domain = labels.Labels[0]
	} else {
		v.Domain = ""
	}
	return nil
}

func (v *FQDN) ToOption() *Option {
	buf := uio.NewBigEndianBuffer(nil)
	buf.Write8(v.Flags)
	if v.Family == V4 {
		// rcode1/rcode2, always zero on send per RFC 4702.
		buf.Write8(0)
		buf.Write8(0)
	}
	labels := &rfc1035label.Labels{Labels: []string{v.Domain}}
	buf.WriteBytes(labels.ToBytes())
	return &Option{Family: v.Family, Code: v.code(), Data: buf.Data()}
}

func (v *FQDN) String() string {
	return fmt.Sprintf("fqdn %q flags 0x%02x", v.Domain, v.Flags)
}

// StatusCode views a DHCPv6 status-code payload.
type StatusCode struct {
	Status  uint16
	Message string
}

func (v *StatusCode) FromOption(o *Option) error {
	if len(o.Data) < 2 {
		return fmt.Errorf("status-code option: %w", ErrTruncated)
	}
	v.Status = uint16(o.Data[0])<<8 | uint16(o.Data[1])
	v.Message = string(o.Data[2:])
	return nil
}

func (v *StatusCode) ToOption() *Option {
	buf := uio.NewBigEndianBuffer(nil)
	buf.Write16(v.Status)
	buf.WriteBytes([]byte(v.Message))
	return &Option{Family: V6, Code: Opt6StatusCode, Data: buf.Data()}
}

func (v *StatusCode) String() string {
	return fmt.Sprintf("status %d %q", v.Status, v.Message)
}

// IA views the fixed fields of an IA_NA or IA_PD binding. The nested IAADDR
// or IAPREFIX options stay in Sub and travel with the option tree.
type IA struct {
	Code uint16 // Opt6IANA or Opt6IAPD
	IAID uint32
	T1   uint32
	T2   uint32
	Sub  []*Option
}

func (v *IA) FromOption(o *Option) error {
	if len(o.Data) < 12 {
		return fmt.Errorf("IA option %d: %w", o.Code, ErrTruncated)
	}
	buf := uio.NewBigEndianBuffer(o.Data)
	v.Code = o.Code
	v.IAID = buf.Read32()
	v.T1 = buf.Read32()
	v.T2 = buf.Read32()
	v.Sub = o.Sub
	return nil
}

func (v *IA) ToOption() *Option {
	buf := uio.NewBigEndianBuffer(nil)
	buf.Write32(v.IAID)
	buf.Write32(v.T1)
	buf.Write32(v.T2)
	return &Option{Family: V6, Code: v.Code, Data: buf.Data(), Sub: v.Sub}
}

func (v *IA) String() string {
	return fmt.Sprintf("IA iaid %d t1 %d t2 %d (%d sub-options)", v.IAID, v.T1, v.T2, len(v.Sub))
}

// IAAddr views an IAADDR payload.
type IAAddr struct {
	Addr      net.IP
	Preferred uint32
	Valid     uint32
	Sub       []*Option
}

func (v *IAAddr) FromOption(o *Option) error {
	if len(o.Data) < 24 {
		return fmt.Errorf("IAADDR option: %w", ErrTruncated)
	}
	buf := uio.NewBigEndianBuffer(o.Data)
	v.Addr = append(net.IP(nil), buf.Consume(16)...)
	v.Preferred = buf.Read32()
	v.Valid = buf.Read32()
	v.Sub = o.Sub
	return nil
}

func (v *IAAddr) ToOption() *Option {
	buf := uio.NewBigEndianBuffer(nil)
	buf.WriteBytes(v.Addr.To16())
	buf.Write32(v.Preferred)
	buf.Write32(v.Valid)
	return &Option{Family: V6, Code: Opt6IAAddr, Data: buf.Data(), Sub: v.Sub}
}

func (v *IAAddr) String() string {
	return fmt.Sprintf("IAADDR %s preferred %d valid %d", v.Addr, v.Preferred, v.Valid)
}

// IAPrefix views an IAPREFIX payload used for prefix delegation.
type IAPrefix struct {
	Preferred    uint32
	Valid        uint32
	PrefixLength uint8
	Prefix       net.IP
	Sub          []*Option
}

func (v *IAPrefix) FromOption(o *Option) error {
	if len(o.Data) < 25 {
		return fmt.Errorf("IAPREFIX option: %w", ErrTruncated)
	}
	buf := uio.NewBigEndianBuffer(o.Data)
	v.Preferred = buf.Read32()
	v.Valid = buf.Read32()
	v.PrefixLength = buf.Read8()
	v.Prefix = append(net.IP(nil), buf.Consume(16)...)
	v.Sub = o.Sub
	return nil
}

func (v *IAPrefix) ToOption() *Option {
	buf := uio.NewBigEndianBuffer(nil)
	buf.Write32(v.Preferred)
	buf.Write32(v.Valid)
	buf.Write8(v.PrefixLength)
	buf.WriteBytes(v.Prefix.To16())
	return &Option{Family: V6, Code: Opt6IAPrefix, Data: buf.Data(), Sub: v.Sub}
}

func (v *IAPrefix) String() string {
	return fmt.Sprintf("IAPREFIX %s/%d preferred %d valid %d", v.Prefix, v.PrefixLength, v.Preferred, v.Valid)
}

// Vendor views a DHCPv6 vendor-opts payload: the enterprise number plus the
// vendor's nested options.
type Vendor struct {
	EnterpriseNumber uint32
	Sub              []*Option
}

func (v *Vendor) FromOption(o *Option) error {
	if len(o.Data) < 4 {
		return fmt.Errorf("vendor-opts option: %w", ErrTruncated)
	}
	buf := uio.NewBigEndianBuffer(o.Data)
	v.EnterpriseNumber = buf.Read32()
	v.Sub = o.Sub
	return nil
}

func (v *Vendor) ToOption() *Option {
	buf := uio.NewBigEndianBuffer(nil)
	buf.Write32(v.EnterpriseNumber)
	return &Option{Family: V6, Code: Opt6VendorOpts, Data: buf.Data(), Sub: v.Sub}
}

func (v *Vendor) String() string {
	return fmt.Sprintf("vendor-opts enterprise %d (%d sub-options)", v.EnterpriseNumber, len(v.Sub))
}
