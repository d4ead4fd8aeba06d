package option

// DHCPv4 option codes (RFC 2132 and friends, the subset this toolkit
// interprets; any other code is carried opaquely).
const (
	Opt4Pad               uint16 = 0
	Opt4SubnetMask        uint16 = 1
	Opt4Router            uint16 = 3
	Opt4DNSServers        uint16 = 6
	Opt4Hostname          uint16 = 12
	Opt4DomainName        uint16 = 15
	Opt4MTU               uint16 = 26
	Opt4BroadcastAddr     uint16 = 28
	Opt4RequestedIP       uint16 = 50
	Opt4LeaseTime         uint16 = 51
	Opt4Overload          uint16 = 52
	Opt4MessageType       uint16 = 53
	Opt4ServerID          uint16 = 54
	Opt4ParamRequestList  uint16 = 55
	Opt4Message           uint16 = 56
	Opt4MaxMessageSize    uint16 = 57
	Opt4RenewalTime       uint16 = 58
	Opt4RebindingTime     uint16 = 59
	Opt4VendorClassID     uint16 = 60
	Opt4ClientID          uint16 = 61
	Opt4VendorSpecific    uint16 = 43
	Opt4ClientFQDN        uint16 = 81
	Opt4RelayAgentInfo    uint16 = 82
	Opt4End               uint16 = 255
)

// Relay agent information sub-options (RFC 3046, RFC 3527).
const (
	RAICircuitID  uint16 = 1
	RAIRemoteID   uint16 = 2
	RAILinkSelect uint16 = 5
)

// DHCPv6 option codes (RFC 8415 and friends).
const (
	Opt6ClientID    uint16 = 1
	Opt6ServerID    uint16 = 2
	Opt6IANA        uint16 = 3
	Opt6IATA        uint16 = 4
	Opt6IAAddr      uint16 = 5
	Opt6ORO         uint16 = 6
	Opt6Preference  uint16 = 7
	Opt6ElapsedTime uint16 = 8
	Opt6RelayMsg    uint16 = 9
	Opt6Auth        uint16 = 11
	Opt6Unicast     uint16 = 12
	Opt6StatusCode  uint16 = 13
	Opt6RapidCommit uint16 = 14
	Opt6UserClass   uint16 = 15
	Opt6VendorClass uint16 = 16
	Opt6VendorOpts  uint16 = 17
	Opt6InterfaceID uint16 = 18
	Opt6DNSServers  uint16 = 23
	Opt6DomainList  uint16 = 24
	Opt6IAPD        uint16 = 25
	Opt6IAPrefix    uint16 = 26
	Opt6RemoteID    uint16 = 37
	Opt6ClientFQDN  uint16 = 39
	Opt6DHCPv4Msg   uint16 = 87
)

// DHCPv6 status codes (RFC 8415 section 21.13).
const (
	StatusSuccess      uint16 = 0
	StatusUnspecFail   uint16 = 1
	StatusNoAddrsAvail uint16 = 2
	StatusNoBinding    uint16 = 3
	StatusNotOnLink    uint16 = 4
	StatusUseMulticast uint16 = 5
	StatusNoPrefixAvail uint16 = 6
)

// encapPrefix reports whether the code carries an encapsulated option space
// and how many fixed payload bytes precede the nested options. RELAY_MSG is
// deliberately absent: the embedded message is a full DHCPv6 packet and is
// unwrapped by the dhcp6 relay code, not by the option decoder.
func encapPrefix(family Family, code uint16) (int, bool) {
	if family == V4 {
		if code == Opt4RelayAgentInfo || code == Opt4VendorSpecific {
			return 0, true
		}
		return 0, false
	}
	switch code {
	case Opt6IANA, Opt6IAPD:
		return 12, true // IAID + T1 + T2
	case Opt6IATA:
		return 4, true // IAID
	case Opt6IAAddr:
		return 24, true // address + preferred + valid
	case Opt6IAPrefix:
		return 25, true // preferred + valid + prefix-length + prefix
	case Opt6VendorOpts:
		return 4, true // enterprise number
	}
	return 0, false
}
