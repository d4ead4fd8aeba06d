package option

import (
	"fmt"

	"github.com/u-root/uio/uio"
)

// Options is the ordered top-level option collection of a packet. Duplicate
// codes are legal and kept as distinct entries in insertion order.
type Options []*Option

// Get returns the first option with the given code, or nil.
func (opts Options) Get(code uint16) *Option {
	for _, o := range opts {
		if o.Code == code {
			return o
		}
	}
	return nil
}

// GetAll returns every option with the given code in insertion order.
func (opts Options) GetAll(code uint16) []*Option {
	var out []*Option
	for _, o := range opts {
		if o.Code == code {
			out = append(out, o)
		}
	}
	return out
}

func (opts *Options) Add(o *Option) {
	*opts = append(*opts, o)
}

// Del removes all options with the given code.
func (opts *Options) Del(code uint16) {
	kept := (*opts)[:0]
	for _, o := range *opts {
		if o.Code != code {
			kept = append(kept, o)
		}
	}
	*opts = kept
}

// Equal reports whether both collections hold pairwise equal options in the
// same order.
func (opts Options) Equal(other Options) bool {
	if len(opts) != len(other) {
		return false
	}
	for i := range opts {
		if !opts[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// EncodeAll serializes the collection. A DHCPv4 option whose payload no
// longer fits one length field is emitted as several same-code options
// rather than failing; that is the defined overflow strategy.
func (opts Options) EncodeAll() ([]byte, error) {
	buf := uio.NewBigEndianBuffer(nil)
	for _, o := range opts {
		for _, part := range o.Split() {
			if err := part.encodeTo(buf); err != nil {
				return nil, err
			}
		}
	}
	return buf.Data(), nil
}

// DecodePolicy controls how per-option decode failures are treated while
// scanning a packet's option area.
type DecodePolicy int

const (
	// SkipBadOptions records the failure and keeps whatever else decoded;
	// one malformed option never discards the whole packet.
	SkipBadOptions DecodePolicy = iota
	// FailOnBadOption aborts the scan on the first failure.
	FailOnBadOption
)

// DecodeError records one absorbed per-option failure.
type DecodeError struct {
	Offset int
	Err    error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("option at offset %d: %v", e.Offset, e.Err)
}

func (e DecodeError) Unwrap() error { return e.Err }

// DecodeAll scans an option area. For DHCPv4 it honors Pad bytes and stops
// at End; for DHCPv6 it scans to the end of the buffer. Returned DecodeErrors
// hold the failures absorbed under SkipBadOptions.
func DecodeAll(family Family, data []byte, policy DecodePolicy) (Options, []DecodeError, error) {
	var opts Options
	var bad []DecodeError

	off := 0
	for off < len(data) {
		if family == V4 {
			if data[off] == uint8(Opt4Pad) {
				off++
				continue
			}
			if data[off] == uint8(Opt4End) {
				break
			}
		}

		o, n, err := Decode(family, data[off:])
		if err != nil {
			if policy == FailOnBadOption {
				return nil, nil, fmt.Errorf("offset %d: %w", off, err)
			}
			bad = append(bad, DecodeError{Offset: off, Err: err})
			// No trustworthy boundary past a bad header, the rest of the
			// area is unparseable.
			break
		}
		opts = append(opts, o)
		off += n
	}

	return opts, bad, nil
}
