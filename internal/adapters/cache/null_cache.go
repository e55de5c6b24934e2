package cache

import "github.com/rwdocs/docstage/internal/core/usecases"

// NullCache is the opt-out cache: every bucket always misses and every
// write is a no-op. Used when the server is started with caching disabled.
type NullCache struct{}

var _ usecases.Cache = NullCache{}

func (NullCache) Bucket(name string) usecases.CacheBucket { return nullBucket{} }

type nullBucket struct{}

var _ usecases.CacheBucket = nullBucket{}

func (nullBucket) Get(key, etag string) ([]byte, bool) { return nil, false }
func (nullBucket) Set(key, etag string, value []byte)  {}
