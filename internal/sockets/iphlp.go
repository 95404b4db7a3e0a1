package sockets

import "net"

// MIB_TCP_STATE values returned by GetExtendedTcpTable.
var mibTCPStates = map[uint32]string{
	1:  "CLOSE",
	2:  "LISTEN",
	3:  "SYN_SENT",
	4:  "SYN_RECV",
	5:  "ESTABLISHED",
	6:  "FIN_WAIT1",
	7:  "FIN_WAIT2",
	8:  "CLOSE_WAIT",
	9:  "CLOSING",
	10: "LAST_ACK",
	11: "TIME_WAIT",
	12: "DELETE_TCB",
}

func mibTCPState(s uint32) string {
	return mibTCPStates[s]
}

// ntohs extracts a port stored in network byte order in the low word.
func ntohs(p uint32) int {
	v := uint16(p)
	return int((v >> 8) | (v << 8))
}

func ipv4FromDWORD(addr uint32) string {
	return net.IPv4(byte(addr), byte(addr>>8), byte(addr>>16), byte(addr>>24)).String()
}

// iphlpEndpoint builds an endpoint, returning nil for the 0.0.0.0:0 / [::]:0
// placeholder the IP Helper tables use for "no peer".
func iphlpEndpoint(ip string, port int) *Endpoint {
	if port == 0 && net.ParseIP(ip).IsUnspecified() {
		return nil
	}
	return &Endpoint{IP: ip, Port: port}
}
