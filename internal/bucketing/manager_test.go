package bucketing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketIsStable(t *testing.T) {
	m := NewManager(32)
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("session-%d", i)
		b := m.Bucket(key)
		assert.Equal(t, b, m.Bucket(key))
		assert.GreaterOrEqual(t, b, 0)
		assert.Less(t, b, 32)
	}
}

func TestBucketSpreadsKeys(t *testing.T) {
	m := NewManager(8)
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		seen[m.Bucket(fmt.Sprintf("k%d", i))] = true
	}
	assert.Len(t, seen, 8)
}

func TestNonPositiveBucketCount(t *testing.T) {
	m := NewManager(0)
	assert.Equal(t, 1, m.Buckets())
	assert.Equal(t, 0, m.Bucket("anything"))
}
