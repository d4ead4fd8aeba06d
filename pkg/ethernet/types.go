// Package ethernet holds the link-layer constants and address helpers used
// by the raw-socket transmit path.
package ethernet

import (
	"bytes"
	"net"
)

const (
	EtherTypeIPv4 uint16 = 0x0800
	EtherTypeARP  uint16 = 0x0806
	EtherTypeVLAN uint16 = 0x8100
	EtherTypeQinQ uint16 = 0x88A8
	EtherTypeIPv6 uint16 = 0x86DD
)

// Broadcast is the all-ones destination used when a client cannot yet be
// reached by unicast.
var Broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

func IsBroadcast(hw net.HardwareAddr) bool {
	return bytes.Equal(hw, Broadcast)
}

func IsMulticast(hw net.HardwareAddr) bool {
	return len(hw) > 0 && hw[0]&0x01 != 0
}
