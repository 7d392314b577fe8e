package postgres

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/JonMunkholm/sqlcourse/internal/core"
)

// Default port range for dataset instances: 6000-6999.
const (
	DefaultPortBase  = 6000
	DefaultPortSlots = 1000
)

// DerivePort maps a dataset ID to a host port in [base, base+slots).
// The mapping is deterministic; distinct IDs can collide.
func DerivePort(id string, base, slots int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return base + int(h.Sum32()%uint32(slots))
}

// PortAllocator tracks which derived ports are held by a dataset instance.
// A collision is reported, never resolved by picking another port.
type PortAllocator struct {
	base  int
	slots int

	mu    sync.Mutex
	owner map[int]string // port -> dataset ID
}

// NewPortAllocator creates an allocator over [base, base+slots).
func NewPortAllocator(base, slots int) *PortAllocator {
	if base <= 0 {
		base = DefaultPortBase
	}
	if slots <= 0 {
		slots = DefaultPortSlots
	}
	return &PortAllocator{
		base:  base,
		slots: slots,
		owner: make(map[int]string),
	}
}

// Reserve claims the derived port for id. Another dataset holding the same
// port yields a ProvisioningError wrapping core.ErrPortConflict.
func (a *PortAllocator) Reserve(id string) (int, error) {
	port := DerivePort(id, a.base, a.slots)

	a.mu.Lock()
	defer a.mu.Unlock()

	if holder, ok := a.owner[port]; ok && holder != id {
		return 0, core.ProvisioningError("reserve port",
			fmt.Errorf("port %d held by dataset %s: %w", port, holder, core.ErrPortConflict))
	}
	a.owner[port] = id
	return port, nil
}

// Release frees port if it is still held by id.
func (a *PortAllocator) Release(id string, port int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.owner[port] == id {
		delete(a.owner, port)
	}
}

// Held returns the number of reserved ports.
func (a *PortAllocator) Held() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.owner)
}
