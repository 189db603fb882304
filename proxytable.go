package warpgrid

import (
	"sync"

	"github.com/dotindustries/warpgrid/internal/descriptor"
)

// ProxyTable maps a guest's WASI socket fd to the opaque host-side
// connection handle returned by ShimHost.DBProxyConnect. It is the
// fd-tracking table described in the specification: the WASI socket that
// shares fd's number is never used for the data path again once an entry
// exists.
type ProxyTable struct {
	mu      sync.Mutex
	handles descriptor.Table[int32, int32]
}

// NewProxyTable constructs an empty proxy fd-tracking table.
func NewProxyTable() *ProxyTable {
	return &ProxyTable{}
}

// Insert records that fd is now proxied through handle. If fd was already
// tracked — fd reuse, or a second connect on the same fd — its handle is
// replaced; the table never assumes fd numbers are monotonic or unique
// across the process lifetime.
func (p *ProxyTable) Insert(fd, handle int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handles.Assign(fd, handle)
}

// Lookup returns the handle associated with fd, if any.
func (p *ProxyTable) Lookup(fd int32) (handle int32, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handles.Lookup(fd)
}

// Remove drops fd's tracking entry. Removing an fd that isn't tracked is a
// no-op, which is what makes a second close() on the same fd idempotent.
func (p *ProxyTable) Remove(fd int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handles.Delete(fd)
}

// IsProxied reports whether fd currently has a tracked handle.
func (p *ProxyTable) IsProxied(fd int32) bool {
	_, ok := p.Lookup(fd)
	return ok
}

// Len reports the number of fds currently tracked, primarily useful for
// leak-detection assertions in tests (connect-then-close N times should
// return the table to its baseline size).
func (p *ProxyTable) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handles.Len()
}
