package dhcp6

import (
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/u-root/uio/uio"
)

// DUID type codes (RFC 8415 section 11, RFC 6355).
type DUIDType uint16

const (
	DUIDLLT  DUIDType = 1
	DUIDEN   DUIDType = 2
	DUIDLL   DUIDType = 3
	DUIDUUID DUIDType = 4
)

func (t DUIDType) String() string {
	switch t {
	case DUIDLLT:
		return "DUID-LLT"
	case DUIDEN:
		return "DUID-EN"
	case DUIDLL:
		return "DUID-LL"
	case DUIDUUID:
		return "DUID-UUID"
	default:
		return fmt.Sprintf("DUID-%d", uint16(t))
	}
}

// duidEpoch is January 1st 2000 UTC, the DUID-LLT time base.
var duidEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewDUIDLL builds a link-layer DUID from a hardware address.
func NewDUIDLL(hwType uint16, hwAddr net.HardwareAddr) []byte {
	buf := uio.NewBigEndianBuffer(nil)
	buf.Write16(uint16(DUIDLL))
	buf.Write16(hwType)
	buf.WriteBytes(hwAddr)
	return buf.Data()
}

// NewDUIDLLT builds a link-layer-plus-time DUID.
func NewDUIDLLT(hwType uint16, hwAddr net.HardwareAddr, now time.Time) []byte {
	buf := uio.NewBigEndianBuffer(nil)
	buf.Write16(uint16(DUIDLLT))
	buf.Write16(hwType)
	buf.Write32(uint32(now.Sub(duidEpoch) / time.Second))
	buf.WriteBytes(hwAddr)
	return buf.Data()
}

// NewDUIDEN builds an enterprise-number DUID.
func NewDUIDEN(enterprise uint32, id []byte) []byte {
	buf := uio.NewBigEndianBuffer(nil)
	buf.Write16(uint16(DUIDEN))
	buf.Write32(enterprise)
	buf.WriteBytes(id)
	return buf.Data()
}

// NewDUIDUUID builds a freshly generated UUID-based DUID (RFC 6355).
func NewDUIDUUID() []byte {
	u := uuid.New()
	buf := uio.NewBigEndianBuffer(nil)
	buf.Write16(uint16(DUIDUUID))
	buf.WriteBytes(u[:])
	return buf.Data()
}

// DUIDTypeOf reads the type field of an encoded DUID.
func DUIDTypeOf(duid []byte) (DUIDType, error) {
	if len(duid) < 2 {
		return 0, fmt.Errorf("DUID too short: %d bytes", len(duid))
	}
	return DUIDType(uint16(duid[0])<<8 | uint16(duid[1])), nil
}
