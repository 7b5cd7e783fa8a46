// Package cache
package cache

import "os"

// New picks the cache driver from the environment: memcached when
// MEMCACHED_ADDR is set, valkey otherwise.
func New() (Cache, error) {
	if addr := os.Getenv("MEMCACHED_ADDR"); addr != "" {
		return NewMemcached(addr), nil
	}

	addrs, err := valkeyAddrs()
	if err != nil {
		return nil, err
	}
	return NewValkey(addrs), nil
}
