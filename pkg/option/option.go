// Package option implements the recursive DHCP option model shared by the
// DHCPv4 and DHCPv6 packet codecs. An option is a code, an opaque payload and
// an ordered list of sub-options; the wire header differs per protocol family
// (1-byte code/length for DHCPv4, 2-byte for DHCPv6). Semantic formats such
// as address lists or IA bindings are views over the same bytes, see views.go.
package option

import (
	"errors"
	"fmt"

	"github.com/u-root/uio/uio"
)

type Family int

const (
	V4 Family = 4
	V6 Family = 6
)

func (f Family) String() string {
	switch f {
	case V4:
		return "DHCPv4"
	case V6:
		return "DHCPv6"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// headerLen returns the size of the code+length header for the family.
func (f Family) headerLen() int {
	if f == V4 {
		return 2
	}
	return 4
}

// maxDataLen is the largest payload representable in one length field.
func (f Family) maxDataLen() int {
	if f == V4 {
		return 0xff
	}
	return 0xffff
}

var (
	ErrTruncated = errors.New("truncated option")
	ErrOverflow  = errors.New("option data exceeds length field")
)

// Option is one TLV unit. A packet owns its top-level options and every
// option owns its sub-options; nothing is shared between trees.
type Option struct {
	Family Family
	Code   uint16
	Data   []byte
	Sub    []*Option
}

func New(family Family, code uint16, data []byte) *Option {
	return &Option{Family: family, Code: code, Data: data}
}

// AddSub appends a sub-option. Duplicate codes are allowed and insertion
// order is preserved.
func (o *Option) AddSub(sub *Option) {
	o.Sub = append(o.Sub, sub)
}

// GetSub returns the first sub-option with the given code, or nil.
func (o *Option) GetSub(code uint16) *Option {
	for _, s := range o.Sub {
		if s.Code == code {
			return s
		}
	}
	return nil
}

// GetAllSub returns every sub-option with the given code in insertion order.
func (o *Option) GetAllSub(code uint16) []*Option {
	var out []*Option
	for _, s := range o.Sub {
		if s.Code == code {
			out = append(out, s)
		}
	}
	return out
}

// DelSub removes all sub-options with the given code.
func (o *Option) DelSub(code uint16) {
	kept := o.Sub[:0]
	for _, s := range o.Sub {
		if s.Code != code {
			kept = append(kept, s)
		}
	}
	o.Sub = kept
}

// payloadLen is the encoded size of data plus sub-options, without the
// option's own header.
func (o *Option) payloadLen() int {
	n := len(o.Data)
	for _, s := range o.Sub {
		n += s.Family.headerLen() + s.payloadLen()
	}
	return n
}

// Len is the full encoded size of the option including its header.
func (o *Option) Len() int {
	return o.Family.headerLen() + o.payloadLen()
}

// Encode serializes the option: family header, payload, then sub-options in
// insertion order. Fails with ErrOverflow when the payload does not fit the
// family's length field; see Split for the overflow strategy.
func (o *Option) Encode() ([]byte, error) {
	buf := uio.NewBigEndianBuffer(nil)
	if err := o.encodeTo(buf); err != nil {
		return nil, err
	}
	return buf.Data(), nil
}

func (o *Option) encodeTo(buf *uio.Lexer) error {
	plen := o.payloadLen()
	if plen > o.Family.maxDataLen() {
		return fmt.Errorf("option %d: payload %d bytes: %w", o.Code, plen, ErrOverflow)
	}
	if o.Family == V4 {
		buf.Write8(uint8(o.Code))
		buf.Write8(uint8(plen))
	} else {
		buf.Write16(o.Code)
		buf.Write16(uint16(plen))
	}
	buf.WriteBytes(o.Data)
	for _, s := range o.Sub {
		if err := s.encodeTo(buf); err != nil {
			return err
		}
	}
	return nil
}

// Split breaks an oversized option into several options of the same code,
// each small enough for one length field. Options that already fit are
// returned as a single-element slice. Options carrying sub-options cannot be
// split and keep their ErrOverflow behavior at encode time.
func (o *Option) Split() []*Option {
	max := o.Family.maxDataLen()
	if o.payloadLen() <= max || len(o.Sub) > 0 {
		return []*Option{o}
	}
	var out []*Option
	for off := 0; off < len(o.Data); off += max {
		end := off + max
		if end > len(o.Data) {
			end = len(o.Data)
		}
		out = append(out, &Option{Family: o.Family, Code: o.Code, Data: o.Data[off:end]})
	}
	return out
}

// Equal reports deep equality of two option trees.
func (o *Option) Equal(other *Option) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o.Family != other.Family || o.Code != other.Code {
		return false
	}
	if len(o.Data) != len(other.Data) || len(o.Sub) != len(other.Sub) {
		return false
	}
	for i := range o.Data {
		if o.Data[i] != other.Data[i] {
			return false
		}
	}
	for i := range o.Sub {
		if !o.Sub[i].Equal(other.Sub[i]) {
			return false
		}
	}
	return true
}

func (o *Option) String() string {
	if len(o.Sub) == 0 {
		return fmt.Sprintf("option %d (%d bytes)", o.Code, len(o.Data))
	}
	return fmt.Sprintf("option %d (%d bytes, %d sub-options)", o.Code, len(o.Data), len(o.Sub))
}

// Decode reads one option from the head of data and returns it together with
// the number of bytes consumed. A declared length reaching past the end of
// the buffer fails with ErrTruncated. Codes registered with an encapsulated
// option space get their payload tail decoded recursively as sub-options.
func Decode(family Family, data []byte) (*Option, int, error) {
	hdr := family.headerLen()
	if len(data) < hdr {
		return nil, 0, fmt.Errorf("%d bytes left for a %s option header: %w", len(data), family, ErrTruncated)
	}

	var code uint16
	var length int
	if family == V4 {
		code = uint16(data[0])
		length = int(data[1])
	} else {
		code = uint16(data[0])<<8 | uint16(data[1])
		length = int(data[2])<<8 | int(data[3])
	}

	if hdr+length > len(data) {
		return nil, 0, fmt.Errorf("option %d declares %d bytes, %d remain: %w",
			code, length, len(data)-hdr, ErrTruncated)
	}

	payload := data[hdr : hdr+length]
	opt := &Option{Family: family, Code: code}

	if prefix, ok := encapPrefix(family, code); ok && len(payload) >= prefix {
		opt.Data = append([]byte(nil), payload[:prefix]...)
		rest := payload[prefix:]
		for len(rest) > 0 {
			sub, n, err := Decode(family, rest)
			if err != nil {
				return nil, 0, fmt.Errorf("option %d sub-options: %w", code, err)
			}
			opt.Sub = append(opt.Sub, sub)
			rest = rest[n:]
		}
	} else {
		opt.Data = append([]byte(nil), payload...)
	}

	return opt, hdr + length, nil
}
