package bucketing

import (
	"hash"
	"sync"

	"github.com/spaolacci/murmur3"
)

// Manager maps keys onto a fixed number of buckets with murmur3. The same
// key always lands in the same bucket for a given bucket count.
type Manager struct {
	buckets    int
	hasherPool sync.Pool
}

func NewManager(buckets int) *Manager {
	if buckets < 1 {
		buckets = 1
	}
	m := &Manager{buckets: buckets}

	// Create pool of hash functions to avoid allocation overhead
	m.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}
	return m
}

// Bucket returns the bucket for key (0 to Buckets()-1)
func (m *Manager) Bucket(key string) int {
	return int(m.hash(key) % uint64(m.buckets))
}

func (m *Manager) Buckets() int {
	return m.buckets
}

func (m *Manager) hash(key string) uint64 {
	hasher := m.hasherPool.Get().(hash.Hash64)
	defer m.hasherPool.Put(hasher)

	hasher.Reset()
	hasher.Write([]byte(key))
	return hasher.Sum64()
}
