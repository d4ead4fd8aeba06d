//go:build !linux

package ifmgr

func rawFilter4() PacketFilter {
	return nil
}
