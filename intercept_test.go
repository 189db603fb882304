package warpgrid

import "testing"

func TestConnectRoutesRegisteredEndpoint(t *testing.T) {
	withHost(t, &fakeHost{
		files: map[string][]byte{
			ProxyConfPath: []byte("db.internal:5432\n"),
		},
		connectManaged: true,
		connectHandle:  42,
	})
	p := NewPatches()

	rc, errno := p.Connect(7, "db.internal", 5432)
	if rc != 0 || errno != ESUCCESS {
		t.Fatalf("Connect() = %d, %v; want 0, ESUCCESS", rc, errno)
	}
	handle, ok := p.Proxy.Lookup(7)
	if !ok || handle != 42 {
		t.Fatalf("expected fd 7 tracked with handle 42, got %d, %v", handle, ok)
	}
}

func TestConnectFallsThroughForUnregisteredEndpoint(t *testing.T) {
	withHost(t, &fakeHost{files: map[string][]byte{}})
	p := NewPatches()

	rc, errno := p.Connect(7, "unregistered.internal", 5432)
	if rc != FallThrough || errno != ESUCCESS {
		t.Fatalf("Connect() = %d, %v; want FallThrough, ESUCCESS", rc, errno)
	}
	if p.Proxy.IsProxied(7) {
		t.Fatal("an unregistered endpoint must never be tracked")
	}
}

func TestConnectHostErrorDoesNotTrackFD(t *testing.T) {
	withHost(t, &fakeHost{
		files:          map[string][]byte{ProxyConfPath: []byte("db.internal:5432\n")},
		connectManaged: true,
		connectErr:     EIO,
	})
	p := NewPatches()

	rc, errno := p.Connect(7, "db.internal", 5432)
	if rc != -1 || errno != ECONNREFUSED {
		t.Fatalf("Connect() = %d, %v; want -1, ECONNREFUSED", rc, errno)
	}
	if p.Proxy.IsProxied(7) {
		t.Fatal("a failed connect must not leave a tracking entry")
	}
}

func TestConnectTracksIndependentHandlesPerFD(t *testing.T) {
	host := &fakeHost{
		files:          map[string][]byte{ProxyConfPath: []byte("db.internal:5432\n")},
		connectManaged: true,
		connectHandle:  1,
	}
	withHost(t, host)
	p := NewPatches()

	p.Connect(7, "db.internal", 5432)
	host.connectHandle = 2
	p.Connect(8, "db.internal", 5432)

	h7, _ := p.Proxy.Lookup(7)
	h8, _ := p.Proxy.Lookup(8)
	if h7 != 1 || h8 != 2 {
		t.Fatalf("fd 7 and fd 8 should carry independent handles, got %d and %d", h7, h8)
	}
}

func TestSendAndRecvRouteThroughProxyTable(t *testing.T) {
	host := &fakeHost{recvData: []byte("reply")}
	withHost(t, host)
	p := NewPatches()
	p.Proxy.Insert(9, 55)

	n, errno := p.Send(9, []byte("hello"))
	if errno != ESUCCESS || n != 5 {
		t.Fatalf("Send() = %d, %v", n, errno)
	}

	buf := make([]byte, 16)
	n, errno = p.Recv(9, buf, false)
	if errno != ESUCCESS || string(buf[:n]) != "reply" {
		t.Fatalf("Recv() = %d, %v, %q", n, errno, buf[:n])
	}
}

func TestRecvPeekDoesNotAdvance(t *testing.T) {
	host := &fakeHost{recvData: []byte("abc")}
	withHost(t, host)
	p := NewPatches()
	p.Proxy.Insert(9, 55)

	buf := make([]byte, 3)
	n1, errno := p.Recv(9, buf, true)
	if errno != ESUCCESS || n1 != 3 {
		t.Fatalf("peeked Recv() = %d, %v", n1, errno)
	}
	n2, errno := p.Recv(9, buf, true)
	if errno != ESUCCESS || n2 != 3 || string(buf) != "abc" {
		t.Fatalf("second peeked Recv() should read the same bytes again, got %d, %v, %q", n2, errno, buf)
	}
}

func TestSendOnUnproxiedFDFallsThrough(t *testing.T) {
	withHost(t, &fakeHost{})
	p := NewPatches()

	n, errno := p.Send(3, []byte("x"))
	if n != FallThrough || errno != ESUCCESS {
		t.Fatalf("Send() on unproxied fd = %d, %v; want FallThrough, ESUCCESS", n, errno)
	}
}

func TestCloseRemovesEntryOnHostError(t *testing.T) {
	host := &fakeHost{closeErr: EIO}
	withHost(t, host)
	p := NewPatches()
	p.Proxy.Insert(9, 55)

	rc, errno := p.Close(9)
	if rc != -1 || errno != EIO {
		t.Fatalf("Close() = %d, %v; want -1, EIO", rc, errno)
	}
	if p.Proxy.IsProxied(9) {
		t.Fatal("Close must remove the tracking entry even when the host call errors")
	}
	if len(host.closedHandles) != 1 || host.closedHandles[0] != 55 {
		t.Fatalf("expected exactly one DBProxyClose(55) call, got %v", host.closedHandles)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	host := &fakeHost{}
	withHost(t, host)
	p := NewPatches()
	p.Proxy.Insert(9, 55)

	rc, errno := p.Close(9)
	if rc != 0 || errno != ESUCCESS {
		t.Fatalf("first Close() = %d, %v", rc, errno)
	}
	rc, errno = p.Close(9)
	if rc != FallThrough || errno != ESUCCESS {
		t.Fatalf("second Close() = %d, %v; want FallThrough, ESUCCESS", rc, errno)
	}
	if len(host.closedHandles) != 1 {
		t.Fatalf("DBProxyClose should be called exactly once, got %d calls", len(host.closedHandles))
	}
}

func TestCloseClaimsVirtualFile(t *testing.T) {
	withHost(t, &fakeHost{files: map[string][]byte{"/f": []byte("x")}})
	p := NewPatches()
	fd, _ := p.Open("/f", 0)

	rc, errno := p.Close(fd)
	if rc != 0 || errno != ESUCCESS {
		t.Fatalf("Close(virtual fd) = %d, %v", rc, errno)
	}
	if p.VFS.IsVirtual(fd) {
		t.Fatal("VFS entry should be gone after Close")
	}
}

func TestReadPrefersVFSOverProxyTable(t *testing.T) {
	withHost(t, &fakeHost{
		files:    map[string][]byte{"/f": []byte("vfsdata")},
		recvData: []byte("proxydata"),
	})
	p := NewPatches()
	fd, _ := p.Open("/f", 0)
	p.Proxy.Insert(fd, 55)

	buf := make([]byte, 16)
	n, errno := p.Read(fd, buf)
	if errno != ESUCCESS || string(buf[:n]) != "vfsdata" {
		t.Fatalf("Read() = %d, %v, %q", n, errno, buf[:n])
	}
}

func TestLSeekFallsThroughForNonVirtualFD(t *testing.T) {
	withHost(t, &fakeHost{})
	p := NewPatches()

	pos, errno := p.LSeek(3, 0, SeekSet)
	if pos != FallThrough || errno != ESUCCESS {
		t.Fatalf("LSeek() on a non-virtual fd = %d, %v; want FallThrough, ESUCCESS", pos, errno)
	}
}
