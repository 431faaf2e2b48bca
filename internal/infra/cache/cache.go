// Package cache provides the byte cache used for collection list
// responses, with an in-process and a memcached backend.
package cache

import (
	"time"

	"github.com/arcadefolio/arcadefolio/internal/config"
)

// Cache is the minimal interface the usecase layer needs.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
}

// New selects a backend from config. Memory is the default; memcached is
// for multi-replica deployments where invalidations must be shared.
func New(conf config.Cache) Cache {
	if conf.Driver == "memcached" && conf.MemcachedAddr != "" {
		return NewMemcached(conf.MemcachedAddr)
	}
	return NewMemory(conf.TTL())
}
