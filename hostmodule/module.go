// Package hostmodule exposes warpgrid.ShimHost as a wazero host module so
// that a WebAssembly guest can call dns_resolve, fs_read_virtual, and the
// db_proxy_* entries directly, the same way the stock WASI preview 1 host
// module exposes a wasi.System.
package hostmodule

import (
	"context"
	"fmt"

	"github.com/stealthrocket/wazergo"
	. "github.com/stealthrocket/wazergo/types"

	"github.com/dotindustries/warpgrid"
)

const moduleName = "warpgrid"

// HostModule is the wazero host module exposing the ShimHost ABI. Guests
// import it under the module name "warpgrid"; unlike the C ABI this layer
// replaces, the import names carry no "__warpgrid_" prefix (see
// SPEC_FULL.md for the reasoning).
var HostModule wazergo.HostModule[*Module] = functions{
	"dns_resolve":      wazergo.F4((*Module).DNSResolve),
	"fs_read_virtual":  wazergo.F3((*Module).FSReadVirtual),
	"db_proxy_connect": wazergo.F3((*Module).DBProxyConnect),
	"db_proxy_send":    wazergo.F3((*Module).DBProxySend),
	"db_proxy_recv":    wazergo.F4((*Module).DBProxyRecv),
	"db_proxy_close":   wazergo.F1((*Module).DBProxyClose),
}

// Option configures the host module.
type Option = wazergo.Option[*Module]

// WithShimHost sets the ShimHost implementation backing the module and
// registers it as the process-wide CurrentShimHost, so that code sharing
// the address space with the wazero runtime (the embedder's own
// Patches, if any) observes the same host.
func WithShimHost(host warpgrid.ShimHost) Option {
	return wazergo.OptionFunc(func(m *Module) {
		m.Host = host
		warpgrid.SetShimHost(host)
	})
}

type functions wazergo.Functions[*Module]

func (f functions) Name() string {
	return moduleName
}

func (f functions) Functions() wazergo.Functions[*Module] {
	return (wazergo.Functions[*Module])(f)
}

func (f functions) Instantiate(ctx context.Context, opts ...Option) (*Module, error) {
	mod := &Module{}
	wazergo.Configure(mod, opts...)
	if mod.Host == nil {
		return nil, fmt.Errorf("warpgrid: ShimHost implementation not provided")
	}
	return mod, nil
}

// Module is the per-instance state of the warpgrid host module: a single
// ShimHost backing every guest-visible function.
type Module struct {
	Host warpgrid.ShimHost
}

// DNSResolve backs dns_resolve(node_ptr, node_len, family, addrs_ptr,
// nwritten_ptr) -> errno. addrsBuf receives up to its capacity of 4-byte
// (AF_INET) or 16-byte (AF_INET6) address records packed back to back;
// nwritten receives the record count, 0 when not managed.
func (m *Module) DNSResolve(ctx context.Context, node String, family Int32, addrsBuf Bytes, nwritten Pointer[Int32]) Errno {
	records, managed, err := m.Host.DNSResolve(string(node), warpgrid.AddressFamily(family))
	if !managed {
		nwritten.Store(0)
		return Errno(warpgrid.ESUCCESS)
	}
	if err != nil {
		return Errno(warpgrid.EIO)
	}
	recordLen := 4
	if warpgrid.AddressFamily(family) == warpgrid.Inet6Family {
		recordLen = 16
	}
	n := 0
	for _, ip := range records {
		if (n+1)*recordLen > len(addrsBuf) {
			break
		}
		raw := ip.To4()
		if recordLen == 16 {
			raw = ip.To16()
		}
		copy(addrsBuf[n*recordLen:], raw)
		n++
	}
	nwritten.Store(Int32(n))
	return Errno(warpgrid.ESUCCESS)
}

// FSReadVirtual backs fs_read_virtual(path_ptr, path_len, out_buf, out_len,
// nread_ptr) -> errno: a direct pass-through to ShimHost.FSReadVirtual,
// copying the returned data into buf (up to its capacity) and storing the
// byte count in nread, 0 when the path is not virtual. A host error returns
// EIO and leaves nread unwritten.
func (m *Module) FSReadVirtual(ctx context.Context, path String, buf Bytes, nread Pointer[Int32]) Errno {
	data, managed, err := m.Host.FSReadVirtual(string(path))
	if !managed {
		nread.Store(0)
		return Errno(warpgrid.ESUCCESS)
	}
	if err != nil {
		return Errno(warpgrid.EIO)
	}
	n := copy(buf, data)
	nread.Store(Int32(n))
	return Errno(warpgrid.ESUCCESS)
}

// DBProxyConnect backs db_proxy_connect(host_ptr, host_len, port,
// handle_ptr) -> errno: handle receives the opaque handle on success, 0 when
// host:port is not proxied. A host error returns ECONNREFUSED and leaves
// handle unwritten.
func (m *Module) DBProxyConnect(ctx context.Context, host String, port Int32, handle Pointer[Int32]) Errno {
	h, managed, err := m.Host.DBProxyConnect(string(host), uint16(port))
	if !managed {
		handle.Store(0)
		return Errno(warpgrid.ESUCCESS)
	}
	if err != nil {
		return Errno(warpgrid.ECONNREFUSED)
	}
	handle.Store(Int32(h))
	return Errno(warpgrid.ESUCCESS)
}

// DBProxySend backs db_proxy_send(handle, data_ptr, data_len, nwritten_ptr)
// -> errno; nwritten receives the number of bytes accepted.
func (m *Module) DBProxySend(ctx context.Context, handle Int32, data Bytes, nwritten Pointer[Int32]) Errno {
	n, err := m.Host.DBProxySend(int32(handle), data)
	if err != nil {
		return Errno(warpgrid.EIO)
	}
	nwritten.Store(Int32(n))
	return Errno(warpgrid.ESUCCESS)
}

// DBProxyRecv backs db_proxy_recv(handle, buf_ptr, buf_len, peek, nread_ptr)
// -> errno; nread receives the number of bytes produced.
func (m *Module) DBProxyRecv(ctx context.Context, handle Int32, buf Bytes, peek Int32, nread Pointer[Int32]) Errno {
	n, err := m.Host.DBProxyRecv(int32(handle), buf, peek != 0)
	if err != nil {
		return Errno(warpgrid.EIO)
	}
	nread.Store(Int32(n))
	return Errno(warpgrid.ESUCCESS)
}

// DBProxyClose backs db_proxy_close(handle) -> errno.
func (m *Module) DBProxyClose(ctx context.Context, handle Int32) Errno {
	if err := m.Host.DBProxyClose(int32(handle)); err != nil {
		return Errno(warpgrid.EIO)
	}
	return Errno(warpgrid.ESUCCESS)
}
