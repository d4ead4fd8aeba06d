package ifmgr

// rawFilter4 returns the raw-socket filter where the platform has one.
func rawFilter4() PacketFilter {
	return NewLPFFilter()
}
