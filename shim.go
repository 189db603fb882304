package warpgrid

import (
	"net"
	"sync/atomic"
)

// AddressFamily selects the shape of address records a DNS lookup expects.
type AddressFamily int32

const (
	// InetFamily selects IPv4 records.
	InetFamily AddressFamily = iota
	// Inet6Family selects IPv6 records.
	Inet6Family
)

// FallThrough is the sentinel a Patches method returns when it did not
// claim a call: the caller must invoke the stock WASI path itself. It is
// never confused with an Errno value because Errno is unsigned.
const FallThrough = -2

// ShimHost is the set of host-provided entry points a WarpGrid-aware host
// runtime may implement. It is the Go rendition of the weak/strong symbol
// contract described by the specification: a host that never calls
// SetShimHost leaves every guest call falling through to stock WASI
// behavior, exactly as an unlinked weak symbol would.
//
// Every method reports whether it claimed the call via a boolean instead of
// the C ABI's "0 means not managed" sentinel integer; a non-nil error is the
// Go rendition of a negative ABI return.
type ShimHost interface {
	// DNSResolve resolves name to a set of address records for family.
	// managed=false means the host does not manage this name and the
	// caller should fall back to the stock resolver.
	DNSResolve(name string, family AddressFamily) (records []net.IP, managed bool, err error)

	// FSReadVirtual returns the full contents of a virtual path.
	// managed=false means the path is not served by the host.
	FSReadVirtual(path string) (data []byte, managed bool, err error)

	// DBProxyConnect opens a host-side connection to host:port.
	// managed=false means this endpoint is not host-routed.
	DBProxyConnect(host string, port uint16) (handle int32, managed bool, err error)

	// DBProxySend delivers data on an open handle, returning the number of
	// bytes accepted (which may be less than len(data)).
	DBProxySend(handle int32, data []byte) (n int, err error)

	// DBProxyRecv reads up to len(buf) bytes from handle. peek requests
	// that the read not advance the host-side position. n == 0 with a nil
	// error means EOF.
	DBProxyRecv(handle int32, buf []byte, peek bool) (n int, err error)

	// DBProxyClose tears down a handle.
	DBProxyClose(handle int32) error
}

// defaultShimHost is the weak default: every call reports "not managed",
// the transparent behavior required when no host runtime is registered.
type defaultShimHost struct{}

func (defaultShimHost) DNSResolve(string, AddressFamily) ([]net.IP, bool, error) {
	return nil, false, nil
}

func (defaultShimHost) FSReadVirtual(string) ([]byte, bool, error) {
	return nil, false, nil
}

func (defaultShimHost) DBProxyConnect(string, uint16) (int32, bool, error) {
	return 0, false, nil
}

func (defaultShimHost) DBProxySend(int32, []byte) (int, error) {
	return 0, ENOTCONN
}

func (defaultShimHost) DBProxyRecv(int32, []byte, bool) (int, error) {
	return 0, ENOTCONN
}

func (defaultShimHost) DBProxyClose(int32) error {
	return nil
}

var currentHost atomic.Value // holds ShimHost

func init() {
	currentHost.Store(shimHostBox{defaultShimHost{}})
}

// shimHostBox works around atomic.Value requiring all stored values to
// share a concrete type, since ShimHost is an interface.
type shimHostBox struct{ host ShimHost }

// SetShimHost installs the host runtime's implementation of the shim ABI.
// It is the Go equivalent of a host runtime providing strong definitions
// for the weak symbols in the C ABI: calling it before any Patches method
// runs is the contract a host runtime is expected to honor. Passing nil
// restores the transparent, fall-through-only default.
func SetShimHost(host ShimHost) {
	if host == nil {
		host = defaultShimHost{}
	}
	currentHost.Store(shimHostBox{host})
}

// CurrentShimHost returns the currently installed ShimHost, or the
// transparent default if none was installed.
func CurrentShimHost() ShimHost {
	return currentHost.Load().(shimHostBox).host
}
