package capsule

import (
	"os"
	"sync"

	"github.com/sorenblake/memcap/internal/engine"
	"github.com/sorenblake/memcap/internal/errors"
)

// OpenFunc opens or creates the capsule file at path and returns a handle.
type OpenFunc func(path string, create bool) (engine.Handle, error)

// Cache holds open capsule handles keyed by logical name. Created at startup,
// lives for the process duration, no persistence. A handle is opened at most
// once per name; opens and deletes for the same name are serialized so a
// delete can never race an in-flight open.
type Cache struct {
	resolver *Resolver
	open     OpenFunc

	mu      sync.Mutex
	handles map[string]engine.Handle
	locks   map[string]*sync.Mutex
}

// NewCache creates a Cache using resolver for paths and open for the engine.
func NewCache(resolver *Resolver, open OpenFunc) *Cache {
	return &Cache{
		resolver: resolver,
		open:     open,
		handles:  make(map[string]engine.Handle),
		locks:    make(map[string]*sync.Mutex),
	}
}

// nameLock returns the per-name mutex, creating it on first use.
func (c *Cache) nameLock(name string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[name] = lock
	}
	return lock
}

// GetOrOpen returns the cached handle for name, opening or creating the
// capsule on first reference. With createIfMissing false, a missing capsule
// file is a NOT_FOUND error. Engine failures are wrapped with the capsule
// name; the underlying error text is preserved.
func (c *Cache) GetOrOpen(name string, createIfMissing bool) (engine.Handle, error) {
	lock := c.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	h, ok := c.handles[name]
	c.mu.Unlock()
	if ok {
		return h, nil
	}

	path := c.resolver.Resolve(name)
	_, statErr := os.Stat(path)
	exists := statErr == nil

	if !exists && !createIfMissing {
		return nil, errors.NewNotFound(name)
	}

	h, err := c.open(path, !exists)
	if err != nil {
		return nil, errors.NewCapsuleAccess(name, err)
	}

	c.mu.Lock()
	c.handles[name] = h
	c.mu.Unlock()
	return h, nil
}

// Evict removes the cache entry for name. Handles already returned to
// in-flight callers are unaffected; eviction only prevents future reuse.
func (c *Cache) Evict(name string) {
	c.mu.Lock()
	delete(c.handles, name)
	c.mu.Unlock()
}

// Cached reports whether a handle for name is currently cached.
func (c *Cache) Cached(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.handles[name]
	return ok
}

// Delete removes the capsule file for name. The cache entry is evicted before
// the file is touched, and the per-name lock is held throughout so no open
// for the same name can interleave. Returns false if the capsule does not
// exist; no filesystem mutation happens in that case.
func (c *Cache) Delete(name string) (bool, error) {
	lock := c.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	path := c.resolver.Resolve(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}

	c.mu.Lock()
	h := c.handles[name]
	delete(c.handles, name)
	c.mu.Unlock()

	// Close the evicted handle so the file can be removed cleanly.
	if h != nil {
		_ = h.Close()
	}

	if err := os.Remove(path); err != nil {
		return true, errors.NewCapsuleAccess(name, err)
	}
	return true, nil
}
