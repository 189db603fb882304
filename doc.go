// Package warpgrid implements the interception and routing layer that lets
// a WebAssembly guest compiled against a stock WASI sysroot reach services
// through a host-provided shim ABI instead of sandboxed WASI networking and
// filesystem primitives.
//
// Four pieces compose to do this: a proxy-endpoint registry (Registry) and
// fd-tracking table (ProxyTable) decide whether a socket call is
// host-managed; a virtual file table (VirtualFS) makes host-delivered bytes
// look like ordinary read-only files; DNS triage (GetAddrInfo,
// GetHostByName, GetNameInfo) distinguishes numeric literals, host-managed
// names and fallback resolution; and the ShimHost interface is the
// weak/strong symbol contract with whatever host runtime embeds this
// package. Patches ties all four together behind the claim-test, route,
// fall-through shape every intercepted call follows.
//
// When no ShimHost is installed, the file and socket calls return
// FallThrough and GetAddrInfo reports a fallback, and the embedder is
// expected to run the stock WASI path itself; GetHostByName reports
// HostNotFound and GetNameInfo formats addresses numerically. This package
// never touches the network or filesystem on its own.
package warpgrid
