package warpgrid

import (
	"fmt"
	"io"
	"net"
)

// Tracer wraps a *Patches to log every intercepted call in a human-readable,
// strace-like format, mirroring how the teacher codebase traces WASI system
// calls: one line per call, writing the outcome once the wrapped method
// returns.
type Tracer struct {
	Writer  io.Writer
	Patches *Patches
}

// Trace constructs a Tracer writing to w around p.
func Trace(w io.Writer, p *Patches) *Tracer {
	return &Tracer{Writer: w, Patches: p}
}

func (t *Tracer) printf(format string, args ...any) {
	fmt.Fprintf(t.Writer, format, args...)
}

func (t *Tracer) Open(path string, flags OpenFlags) (int32, Errno) {
	t.printf("Open(%q, %#x) => ", path, uint32(flags))
	fd, errno := t.Patches.Open(path, flags)
	t.printf("%d, %s\n", fd, errno.Name())
	return fd, errno
}

func (t *Tracer) FOpen(path string, mode string) (int32, Errno) {
	t.printf("FOpen(%q, %q) => ", path, mode)
	fd, errno := t.Patches.FOpen(path, mode)
	t.printf("%d, %s\n", fd, errno.Name())
	return fd, errno
}

func (t *Tracer) Read(fd int32, buf []byte) (int, Errno) {
	t.printf("Read(%d, <%d bytes>) => ", fd, len(buf))
	n, errno := t.Patches.Read(fd, buf)
	t.printf("%d, %s\n", n, errno.Name())
	return n, errno
}

func (t *Tracer) Connect(fd int32, host string, port uint16) (int, Errno) {
	t.printf("Connect(%d, %s:%d) => ", fd, host, port)
	rc, errno := t.Patches.Connect(fd, host, port)
	t.printf("%d, %s\n", rc, errno.Name())
	return rc, errno
}

func (t *Tracer) Send(fd int32, data []byte) (int, Errno) {
	t.printf("Send(%d, <%d bytes>) => ", fd, len(data))
	n, errno := t.Patches.Send(fd, data)
	t.printf("%d, %s\n", n, errno.Name())
	return n, errno
}

func (t *Tracer) Recv(fd int32, buf []byte, peek bool) (int, Errno) {
	t.printf("Recv(%d, <cap %d>, peek=%v) => ", fd, len(buf), peek)
	n, errno := t.Patches.Recv(fd, buf, peek)
	t.printf("%d, %s\n", n, errno.Name())
	return n, errno
}

func (t *Tracer) Close(fd int32) (int, Errno) {
	t.printf("Close(%d) => ", fd)
	rc, errno := t.Patches.Close(fd)
	t.printf("%d, %s\n", rc, errno.Name())
	return rc, errno
}

func (t *Tracer) LSeek(fd int32, offset int64, whence int) (int64, Errno) {
	t.printf("LSeek(%d, %d, %d) => ", fd, offset, whence)
	newOffset, errno := t.Patches.LSeek(fd, offset, whence)
	t.printf("%d, %s\n", newOffset, errno.Name())
	return newOffset, errno
}

func (t *Tracer) Write(fd int32, data []byte) (int, Errno) {
	t.printf("Write(%d, <%d bytes>) => ", fd, len(data))
	n, errno := t.Patches.Write(fd, data)
	t.printf("%d, %s\n", n, errno.Name())
	return n, errno
}

func (t *Tracer) GetAddrInfo(node, service string, hints AddrInfoHints, port uint16) ([]AddrInfo, bool, AIError) {
	t.printf("GetAddrInfo(%q, %q) => ", node, service)
	results, managedFallback, aierr := t.Patches.GetAddrInfo(node, service, hints, port)
	t.printf("%d results, fallback=%v, %s\n", len(results), managedFallback, aierr)
	return results, managedFallback, aierr
}

func (t *Tracer) GetHostByName(name string) (*Hostent, bool, HError) {
	t.printf("GetHostByName(%q) => ", name)
	host, notFound, herr := t.Patches.GetHostByName(name)
	t.printf("notFound=%v, herr=%d\n", notFound, herr)
	return host, notFound, herr
}

func (t *Tracer) GetNameInfo(addr net.IP, port uint16, family AddressFamily, addrLen int, flags NIFlags, hostBufLen, servBufLen int) (string, string, AIError) {
	t.printf("GetNameInfo(%s, %d) => ", addr, port)
	host, serv, aierr := t.Patches.GetNameInfo(addr, port, family, addrLen, flags, hostBufLen, servBufLen)
	t.printf("%q, %q, %s\n", host, serv, aierr)
	return host, serv, aierr
}
