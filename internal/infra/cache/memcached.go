package cache

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

type Memcached struct {
	c *memcache.Client
}

func NewMemcached(addr string) *Memcached {
	return &Memcached{c: memcache.New(addr)}
}

func (m *Memcached) Get(key string) ([]byte, bool) {
	item, err := m.c.Get(key)
	if err != nil {
		return nil, false
	}
	return item.Value, true
}

func (m *Memcached) Set(key string, value []byte, ttl time.Duration) {
	_ = m.c.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(ttl / time.Second),
	})
}

func (m *Memcached) Delete(key string) {
	_ = m.c.Delete(key)
}
