package ledger

import (
	"encoding/binary"

	"github.com/VictoriaMetrics/fastcache"
	lru "github.com/hashicorp/golang-lru"

	"github.com/mina-go/node/log"
)

var logger = log.NewModuleLogger(log.Ledger)

const (
	// interiorHashCacheSize bounds the dirty-interior-hash LRU, grounded on
	// blockchain/state/database.go's maxPastTries-style bounded cache and
	// common/cache.go's lruCache wrapper.
	interiorHashCacheSize = 1 << 16

	// leafByteCacheMB sizes the fastcache leaf-account byte cache,
	// grounded on snapshot/generate.go's fastcache.New(cache*1024*1024).
	leafByteCacheMB = 64
)

// nodeCache memoizes interior Merkle node hashes so merkle_root() only
// recomputes the ancestors of dirtied leaves (spec.md §4.2 "Rehashing is
// lazy").
type nodeCache struct {
	lru *lru.Cache
}

func newNodeCache() *nodeCache {
	c, err := lru.New(interiorHashCacheSize)
	if err != nil {
		// lru.New only errors on a non-positive size, which is a
		// programmer error in the constant above.
		panic(err)
	}
	return &nodeCache{lru: c}
}

func (c *nodeCache) get(addr Address) (Field, bool) {
	v, ok := c.lru.Get(addr.key())
	if !ok {
		return Field{}, false
	}
	return v.(Field), true
}

func (c *nodeCache) set(addr Address, h Field) {
	c.lru.Add(addr.key(), h)
}

func (c *nodeCache) invalidate(addr Address) {
	c.lru.Remove(addr.key())
}

// leafCache is a fastcache keyed by leaf index. FullLedger drops a leaf's
// entry on every Set; nothing in this package stores or reads entries, so
// account lookups are served from the ledger's leaves map, not from here.
type leafCache struct {
	fc *fastcache.Cache
}

func newLeafCache() *leafCache {
	return &leafCache{fc: fastcache.New(leafByteCacheMB * 1024 * 1024)}
}

func leafCacheKey(idx uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], idx)
	return buf[:]
}

func (c *leafCache) invalidate(idx uint64) {
	c.fc.Del(leafCacheKey(idx))
}

// Stats reports cache occupancy for the metrics package.
type Stats struct {
	Leaves          int
	DirtyInteriors  int
	NodeCacheLen    int
}
