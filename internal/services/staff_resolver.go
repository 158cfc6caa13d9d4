package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"lengolf_pos_backend/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// Custom Errors for staff resolution.
var (
	ErrInvalidStaffPin = errors.New("invalid PIN or inactive staff")
	ErrStaffNotFound   = errors.New("staff member not found")
)

// StaffCacheTTL bounds how long a verified PIN stays usable without another
// directory round trip. Long enough for a burst of transactions at the till,
// short enough that a revoked PIN dies quickly.
const StaffCacheTTL = 5 * time.Minute

// PinCache is a small TTL cache from PIN to staff ID. The clock is injected
// so tests can control expiry. Entries are evicted lazily on read; there is
// no background sweep.
type PinCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]pinCacheEntry
}

type pinCacheEntry struct {
	staffID  int64
	cachedAt time.Time
}

// NewPinCache creates a PinCache. A nil clock defaults to time.Now.
func NewPinCache(ttl time.Duration, now func() time.Time) *PinCache {
	if now == nil {
		now = time.Now
	}
	return &PinCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]pinCacheEntry),
	}
}

// Get returns the cached staff ID for a PIN, expiring stale entries.
func (c *PinCache) Get(pin string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[pin]
	if !ok {
		return 0, false
	}
	if c.now().Sub(entry.cachedAt) > c.ttl {
		delete(c.entries, pin)
		return 0, false
	}
	return entry.staffID, true
}

// Put stores a verified PIN with the current timestamp.
func (c *PinCache) Put(pin string, staffID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[pin] = pinCacheEntry{staffID: staffID, cachedAt: c.now()}
}

// --- StaffResolver Interface ---
type StaffResolver interface {
	// ResolvePin maps a staff PIN to the internal staff ID, consulting the
	// cache before the directory.
	ResolvePin(pin string) (int64, error)
	// ResolveID verifies a pre-resolved staff ID (active staff only). This
	// path skips PIN verification entirely and is preferred when the caller
	// already holds verified identity context.
	ResolveID(staffID int64) (int64, error)
}

type staffResolver struct {
	staffRepo repositories.StaffRepository
	cache     *PinCache
}

// NewStaffResolver creates a new StaffResolver backed by the given directory
// and cache. The cache is owned by the caller so tests can isolate state.
func NewStaffResolver(sr repositories.StaffRepository, cache *PinCache) StaffResolver {
	if cache == nil {
		cache = NewPinCache(StaffCacheTTL, nil)
	}
	return &staffResolver{staffRepo: sr, cache: cache}
}

func (s *staffResolver) ResolvePin(pin string) (int64, error) {
	if pin == "" {
		return 0, ErrInvalidStaffPin
	}

	if staffID, ok := s.cache.Get(pin); ok {
		return staffID, nil
	}

	staff, err := s.staffRepo.GetActiveStaff()
	if err != nil {
		return 0, fmt.Errorf("failed to load staff directory: %w", err)
	}
	for _, member := range staff {
		if bcrypt.CompareHashAndPassword([]byte(member.PinHash), []byte(pin)) == nil {
			s.cache.Put(pin, member.ID)
			return member.ID, nil
		}
	}
	return 0, ErrInvalidStaffPin
}

func (s *staffResolver) ResolveID(staffID int64) (int64, error) {
	staff, err := s.staffRepo.GetStaffByID(staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, fmt.Errorf("%w: ID %d", ErrStaffNotFound, staffID)
		}
		return 0, fmt.Errorf("failed to verify staff ID %d: %w", staffID, err)
	}
	if !staff.IsActive {
		return 0, ErrInvalidStaffPin
	}
	return staff.ID, nil
}
