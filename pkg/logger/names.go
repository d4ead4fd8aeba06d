package logger

const (
	Option = "option"
	DHCP4  = "dhcp4"
	DHCP6  = "dhcp6"
	IfMgr  = "ifmgr"
	Filter = "filter"
	Config = "config"
)
