package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// ScannerKeyCache remembers recently verified scanner keys so /scan does not
// run argon2 on every request. Keys are held as sha256 digests.
type ScannerKeyCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]scannerKeyEntry
}

type scannerKeyEntry struct {
	device   string
	keyHash  string
	verified time.Time
}

func NewScannerKeyCache(ttl time.Duration) *ScannerKeyCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ScannerKeyCache{ttl: ttl, now: time.Now, entries: make(map[string]scannerKeyEntry)}
}

func digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Add records a verified key together with the stored hash it was checked against.
func (c *ScannerKeyCache) Add(key, device, keyHash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[digest(key)] = scannerKeyEntry{device: device, keyHash: keyHash, verified: c.now()}
}

// Device returns the device name and stored hash for a key verified within the TTL.
// Callers compare the hash with the current row before trusting the entry.
func (c *ScannerKeyCache) Device(key string) (device, keyHash string, ok bool) {
	c.mu.RLock()
	entry, ok := c.entries[digest(key)]
	c.mu.RUnlock()
	if !ok {
		return "", "", false
	}
	if c.now().Sub(entry.verified) > c.ttl {
		c.Forget(key)
		return "", "", false
	}
	return entry.device, entry.keyHash, true
}

// Forget drops one cached key.
func (c *ScannerKeyCache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, digest(key))
}

// ForgetDevice drops every cached key of a device, e.g. after its key is rotated.
func (c *ScannerKeyCache) ForgetDevice(device string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if e.device == device {
			delete(c.entries, k)
		}
	}
}
