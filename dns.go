package warpgrid

import (
	"net"
	"strconv"
)

// SocketType mirrors the socktype field of struct addrinfo.
type SocketType int32

const (
	// StreamSocket is SOCK_STREAM.
	StreamSocket SocketType = iota + 1
	// DatagramSocket is SOCK_DGRAM.
	DatagramSocket
)

// AddrInfoHints mirrors the subset of struct addrinfo a caller may supply
// as hints to GetAddrInfo.
type AddrInfoHints struct {
	Family      AddressFamily
	SocketType  SocketType
	NumericHost bool // AI_NUMERICHOST
	Passive     bool // AI_PASSIVE
}

// AddrInfo is one linked-list node of a GetAddrInfo result: a resolved
// address together with the socket parameters the caller asked for (or the
// stream+TCP default).
type AddrInfo struct {
	Family     AddressFamily
	SocketType SocketType
	Addr       net.IP
	Port       uint16
}

// GetAddrInfo is the getaddrinfo(3) patch. node is the hostname or literal
// being resolved; service is its numeric-port decimal form, taking
// precedence over port when non-empty (a caller passing a service name
// instead of a number gets AIService, matching the scope this layer
// covers). managedFallback is true when the caller must perform the stock
// WASI resolution itself (dns_resolve returned 0, or the shim is not
// installed).
//
// Rule order follows the specification exactly: AI_NUMERICHOST bypasses
// dns_resolve entirely; otherwise dns_resolve is queried and its result
// (hit, miss, or error) determines the outcome.
func (p *Patches) GetAddrInfo(node, service string, hints AddrInfoHints, port uint16) (results []AddrInfo, managedFallback bool, aierr AIError) {
	if service != "" {
		n, err := strconv.ParseUint(service, 10, 16)
		if err != nil {
			return nil, false, AIService
		}
		port = uint16(n)
	}

	if hints.NumericHost {
		return nil, true, AISuccess
	}

	family := hints.Family
	records, managed, err := CurrentShimHost().DNSResolve(node, family)
	if !managed {
		return nil, true, AISuccess
	}
	if err != nil {
		return nil, false, AIFail
	}
	if len(records) == 0 {
		return nil, true, AISuccess
	}

	socketType := hints.SocketType
	if socketType == 0 {
		socketType = StreamSocket
	}
	results = make([]AddrInfo, 0, len(records))
	for _, ip := range records {
		results = append(results, AddrInfo{
			Family:     familyOf(ip),
			SocketType: socketType,
			Addr:       ip,
			Port:       port,
		})
	}
	return results, false, AISuccess
}

// HError is the h_errno namespace gethostbyname(3) reports on failure.
type HError int

const (
	// HostNotFound mirrors HOST_NOT_FOUND.
	HostNotFound HError = iota + 1
)

// Hostent is the Go rendition of struct hostent as populated by
// GetHostByName: aliases are always empty and the address list always
// holds exactly one entry on a hit, matching what the thread-static C
// buffer the specification describes would contain.
type Hostent struct {
	Name     string
	Addr     net.IP
	AddrType AddressFamily
	AddrLen  int
}

// GetHostByName is the gethostbyname(3) patch. A nil/empty name returns
// (nil, false, 0) with no h_errno set, matching "NULL name -> return NULL,
// leave h_errno unset". A miss returns (nil, true) with herr=HostNotFound.
func (p *Patches) GetHostByName(name string) (host *Hostent, notFound bool, herr HError) {
	if name == "" {
		return nil, false, 0
	}
	records, managed, err := CurrentShimHost().DNSResolve(name, InetFamily)
	if !managed || err != nil || len(records) == 0 {
		return nil, true, HostNotFound
	}
	ip := records[0]
	family := familyOf(ip)
	length := 4
	if family == Inet6Family {
		length = 16
	}
	return &Hostent{Name: name, Addr: ip, AddrType: family, AddrLen: length}, false, 0
}

// NIFlags mirrors the getnameinfo(3) NI_* flags this layer understands.
type NIFlags uint32

const (
	// NINumericHost requests a numeric host string (NI_NUMERICHOST).
	NINumericHost NIFlags = 1 << iota
	// NINumericServ requests a numeric service string (NI_NUMERICSERV).
	NINumericServ
)

// Sizes of the POSIX sockaddr structures getnameinfo(3) validates addrLen
// against, matching the layout glibc and the BSDs use.
const (
	SizeofSockaddrIn  = 16
	SizeofSockaddrIn6 = 28
)

// GetNameInfo is the getnameinfo(3) patch. addrLen is the caller's salen —
// the size in bytes of the sockaddr the host/port were extracted from — and
// is validated against the expected sockaddr_in/sockaddr_in6 size for
// family before anything else, returning AIFamily when it is too small to
// have held a real address of that family. hostBufLen/servBufLen are the
// sizes of the caller's output buffers (0 meaning "not requested", matching
// passing NULL/0 for that half); a formatted value that would not fit
// returns AIOverflow without writing anything back for that field.
//
// This layer has no reverse-resolution capability: ShimHost.DNSResolve only
// ever resolves a name to addresses, never an address to a name, so a
// non-numeric host request always falls back to the numeric form.
func (p *Patches) GetNameInfo(addr net.IP, port uint16, family AddressFamily, addrLen int, flags NIFlags, hostBufLen, servBufLen int) (host, serv string, aierr AIError) {
	switch family {
	case InetFamily:
		if addrLen < SizeofSockaddrIn {
			return "", "", AIFamily
		}
	case Inet6Family:
		if addrLen < SizeofSockaddrIn6 {
			return "", "", AIFamily
		}
	default:
		return "", "", AIFamily
	}

	if hostBufLen > 0 {
		host = formatNumericHost(addr)
		if len(host) >= hostBufLen {
			return "", "", AIOverflow
		}
	}

	if servBufLen > 0 {
		serv = formatPort(port)
		if len(serv) >= servBufLen {
			return "", "", AIOverflow
		}
	}

	return host, serv, AISuccess
}
