package warpgrid

import (
	"bytes"
	"sync"

	"github.com/dotindustries/warpgrid/internal/descriptor"
)

// OpenFlags mirrors the subset of POSIX open(2) flags the virtual filesystem
// cares about: whether the caller wants to write.
type OpenFlags uint32

const (
	// WriteOnly requests write-only access (O_WRONLY).
	WriteOnly OpenFlags = 1 << iota
	// ReadWrite requests read-write access (O_RDWR).
	ReadWrite
	// Append requests append-mode writes (O_APPEND).
	Append
	// Create requests the file be created if absent (O_CREAT).
	Create
	// Truncate requests the file be truncated on open (O_TRUNC).
	Truncate
)

// wantsWrite reports whether flags request any write capability.
func (f OpenFlags) wantsWrite() bool {
	return f&(WriteOnly|ReadWrite|Append|Create|Truncate) != 0
}

// fopenWantsWrite reports whether a C fopen(3) mode string requests write
// capability. "r" is the only purely read-only mode; "r+" is not.
func fopenWantsWrite(mode string) bool {
	if mode == "" {
		return false
	}
	if mode[0] != 'r' {
		return true
	}
	for i := 1; i < len(mode); i++ {
		if mode[i] == '+' {
			return true
		}
	}
	return false
}

// vfsFDBase is the first descriptor number handed out for virtual files.
// It is chosen far above any plausible WASI fd so the two ranges can never
// collide, satisfying "virtual fds never collide with host-WASI fd numbers"
// without either side needing to coordinate.
const vfsFDBase int32 = 1 << 24

type virtualFile struct {
	path   string
	data   []byte
	cursor int64
}

// VirtualFS exposes host-delivered byte buffers as read-only files with
// independent, per-open cursors. It never caches bytes across opens: each
// Open re-queries the installed ShimHost, so the observable behavior is a
// snapshot taken at open time, as required by the specification.
type VirtualFS struct {
	mu    sync.Mutex
	files descriptor.Table[int32, *virtualFile]
}

// NewVirtualFS constructs an empty virtual filesystem.
func NewVirtualFS() *VirtualFS {
	return &VirtualFS{}
}

// Open attempts to serve path virtually. It returns (FallThrough, ESUCCESS) when
// the installed host does not manage path, in which case the caller must
// perform a stock WASI open instead.
func (v *VirtualFS) Open(path string, flags OpenFlags) (fd int32, errno Errno) {
	data, managed, err := CurrentShimHost().FSReadVirtual(path)
	if !managed {
		return FallThrough, ESUCCESS
	}
	if err != nil {
		return 0, EIO
	}
	if flags.wantsWrite() {
		return 0, EROFS
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	desc := v.files.Insert(&virtualFile{path: path, data: data})
	return vfsFDBase + desc, ESUCCESS
}

// FOpen is the fopen(3) analog of Open, translating a C mode string to the
// same write-capability check.
func (v *VirtualFS) FOpen(path string, mode string) (fd int32, errno Errno) {
	data, managed, err := CurrentShimHost().FSReadVirtual(path)
	if !managed {
		return FallThrough, ESUCCESS
	}
	if err != nil {
		return 0, EIO
	}
	if fopenWantsWrite(mode) {
		return 0, EROFS
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	desc := v.files.Insert(&virtualFile{path: path, data: data})
	return vfsFDBase + desc, ESUCCESS
}

// IsVirtual reports whether fd was allocated by this table.
func (v *VirtualFS) IsVirtual(fd int32) bool {
	if fd < vfsFDBase {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	_, found := v.files.Lookup(fd - vfsFDBase)
	return found
}

// Read copies up to len(buf) bytes from fd's current cursor, advancing it.
// It returns 0 at EOF and EBADF once fd has been closed.
func (v *VirtualFS) Read(fd int32, buf []byte) (n int, errno Errno) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, found := v.files.Lookup(fd - vfsFDBase)
	if !found {
		return 0, EBADF
	}
	remaining := int64(len(f.data)) - f.cursor
	if remaining <= 0 {
		return 0, ESUCCESS
	}
	n = len(buf)
	if int64(n) > remaining {
		n = int(remaining)
	}
	copy(buf[:n], f.data[f.cursor:f.cursor+int64(n)])
	f.cursor += int64(n)
	return n, ESUCCESS
}

// Seek values for the whence argument, matching lseek(2).
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// Seek repositions fd's cursor. The cursor may land exactly at the file's
// length (EOF) but never past it, and never before zero.
func (v *VirtualFS) Seek(fd int32, offset int64, whence int) (newOffset int64, errno Errno) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, found := v.files.Lookup(fd - vfsFDBase)
	if !found {
		return 0, EBADF
	}
	var base int64
	switch whence {
	case SeekSet:
		base = 0
	case SeekCur:
		base = f.cursor
	case SeekEnd:
		base = int64(len(f.data))
	default:
		return 0, EINVAL
	}
	pos := base + offset
	if pos < 0 {
		return 0, EINVAL
	}
	if pos > int64(len(f.data)) {
		pos = int64(len(f.data))
	}
	f.cursor = pos
	return pos, ESUCCESS
}

// ReadFile opens path, reads it to completion, and closes it again,
// returning the same (managed, err) triple as the underlying ShimHost so
// callers that only want the whole file — the proxy registry, notably —
// can go through the virtual filesystem instead of querying the host
// directly.
func (v *VirtualFS) ReadFile(path string) (data []byte, managed bool, err error) {
	fd, errno := v.Open(path, 0)
	if errno == ESUCCESS && fd == FallThrough {
		return nil, false, nil
	}
	if errno != ESUCCESS {
		return nil, true, errno
	}
	defer v.Close(fd)
	var buf bytes.Buffer
	chunk := make([]byte, 4096)
	for {
		n, errno := v.Read(fd, chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if errno != ESUCCESS {
			return nil, true, errno
		}
		if n == 0 {
			break
		}
	}
	return buf.Bytes(), true, nil
}

// Close releases fd's slot. Subsequent I/O on fd returns EBADF.
func (v *VirtualFS) Close(fd int32) Errno {
	v.mu.Lock()
	defer v.mu.Unlock()
	desc := fd - vfsFDBase
	if _, found := v.files.Lookup(desc); !found {
		return EBADF
	}
	v.files.Delete(desc)
	return ESUCCESS
}
