package ethernet

import (
	"net"
	"testing"
)

func TestIsBroadcast(t *testing.T) {
	if !IsBroadcast(Broadcast) {
		t.Errorf("the all-ones address is broadcast")
	}
	if IsBroadcast(net.HardwareAddr{0x02, 0x00, 0x5e, 0x10, 0x00, 0x01}) {
		t.Errorf("a unicast address is not broadcast")
	}
}

func TestIsMulticast(t *testing.T) {
	if !IsMulticast(net.HardwareAddr{0x01, 0x00, 0x5e, 0x00, 0x00, 0x01}) {
		t.Errorf("expected multicast for an odd first octet")
	}
	if IsMulticast(net.HardwareAddr{0x02, 0x00, 0x5e, 0x10, 0x00, 0x01}) {
		t.Errorf("expected unicast for an even first octet")
	}
	if IsMulticast(nil) {
		t.Errorf("an empty address is not multicast")
	}
}
