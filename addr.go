package warpgrid

import (
	"fmt"
	"net"
)

// familyOf reports the address family of ip, defaulting to InetFamily for
// anything that isn't a 16-byte non-4-in-6 address.
func familyOf(ip net.IP) AddressFamily {
	if ip.To4() == nil && ip.To16() != nil {
		return Inet6Family
	}
	return InetFamily
}

// formatNumericHost renders ip in the same textual form POSIX inet_ntop
// would use: dotted quad for IPv4, colon-hex for IPv6.
func formatNumericHost(ip net.IP) string {
	return ip.String()
}

// formatPort renders port in decimal, as NI_NUMERICSERV requires.
func formatPort(port uint16) string {
	return fmt.Sprintf("%d", port)
}
