package warpgrid

// Patches bundles the three data structures (C2–C4) an interception patch
// needs to decide, at each call, whether it is host-managed or pass-through.
// Each method follows the same three-phase shape described by the
// specification: claim test, route, fall through.
type Patches struct {
	VFS      *VirtualFS
	Registry *Registry
	Proxy    *ProxyTable
}

// NewPatches constructs a Patches with fresh, empty C2–C4 state.
func NewPatches() *Patches {
	vfs := NewVirtualFS()
	return &Patches{
		VFS:      vfs,
		Registry: NewRegistry(vfs),
		Proxy:    NewProxyTable(),
	}
}

// Open is the open(2) patch. It returns (FallThrough, ESUCCESS) when path
// is not served virtually, in which case the caller must perform the stock
// WASI open.
func (p *Patches) Open(path string, flags OpenFlags) (fd int32, errno Errno) {
	return p.VFS.Open(path, flags)
}

// FOpen is the fopen(3) patch.
func (p *Patches) FOpen(path string, mode string) (fd int32, errno Errno) {
	return p.VFS.FOpen(path, mode)
}

// Read is the read(2) patch, shared between the virtual-fs and proxied-
// socket data paths: exactly one of the two tables can claim any given fd
// (see the "at most one state" invariant), so trying VFS first is safe.
func (p *Patches) Read(fd int32, buf []byte) (n int, errno Errno) {
	if p.VFS.IsVirtual(fd) {
		return p.VFS.Read(fd, buf)
	}
	if handle, ok := p.Proxy.Lookup(fd); ok {
		return p.recvFromHost(handle, buf, false)
	}
	return FallThrough, ESUCCESS
}

// LSeek is the lseek(2) patch for virtual fds; proxied sockets and
// pass-through fds are not seekable through this layer.
func (p *Patches) LSeek(fd int32, offset int64, whence int) (newOffset int64, errno Errno) {
	if !p.VFS.IsVirtual(fd) {
		return FallThrough, ESUCCESS
	}
	return p.VFS.Seek(fd, offset, whence)
}

// Connect is the connect(2) patch. host and port have already been
// extracted from the sockaddr by the caller. A registry hit that returns a
// positive handle inserts fd into the proxy table and reports success
// without ever touching the underlying WASI socket; a registry miss falls
// through unconditionally, and a host-side connect error is propagated
// without inserting anything.
func (p *Patches) Connect(fd int32, host string, port uint16) (int, Errno) {
	if !p.Registry.Contains(host, port) {
		return FallThrough, ESUCCESS
	}
	handle, managed, err := CurrentShimHost().DBProxyConnect(host, port)
	if !managed {
		return FallThrough, ESUCCESS
	}
	if err != nil {
		return -1, ECONNREFUSED
	}
	p.Proxy.Insert(fd, handle)
	return 0, ESUCCESS
}

// Send is the send(2)/write(2) patch for proxied sockets.
func (p *Patches) Send(fd int32, data []byte) (int, Errno) {
	handle, ok := p.Proxy.Lookup(fd)
	if !ok {
		return FallThrough, ESUCCESS
	}
	n, err := CurrentShimHost().DBProxySend(handle, data)
	if err != nil {
		return -1, EIO
	}
	return n, ESUCCESS
}

// Write is an alias for Send: the specification routes both libc entry
// points through the same host call.
func (p *Patches) Write(fd int32, data []byte) (int, Errno) {
	return p.Send(fd, data)
}

// Recv is the recv(2) patch for proxied sockets. peek is derived by the
// caller from MSG_PEEK. Partial reads are propagated verbatim; this patch
// never loops to fill buf.
func (p *Patches) Recv(fd int32, buf []byte, peek bool) (int, Errno) {
	handle, ok := p.Proxy.Lookup(fd)
	if !ok {
		return FallThrough, ESUCCESS
	}
	return p.recvFromHost(handle, buf, peek)
}

func (p *Patches) recvFromHost(handle int32, buf []byte, peek bool) (int, Errno) {
	n, err := CurrentShimHost().DBProxyRecv(handle, buf, peek)
	if err != nil {
		return -1, EIO
	}
	return n, ESUCCESS
}

// Close is the close(2) patch, handling both proxied sockets and virtual
// files. For a proxied fd the table entry is removed unconditionally, even
// when the host-side close reports an error, so the guest never leaks a
// tracking entry. Closing an fd twice is idempotent: the second call finds
// nothing in either table and falls through.
func (p *Patches) Close(fd int32) (int, Errno) {
	if handle, ok := p.Proxy.Lookup(fd); ok {
		err := CurrentShimHost().DBProxyClose(handle)
		p.Proxy.Remove(fd)
		if err != nil {
			return -1, EIO
		}
		return 0, ESUCCESS
	}
	if p.VFS.IsVirtual(fd) {
		errno := p.VFS.Close(fd)
		if errno != ESUCCESS {
			return -1, errno
		}
		return 0, ESUCCESS
	}
	return FallThrough, ESUCCESS
}
