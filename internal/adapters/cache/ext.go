package cache

import "encoding/json"

// GetJSON unmarshals the cached bytes for key if present and tagged with
// etag. A decode failure is treated as a cache miss, not an error.
func GetJSON[T any](b bucketGetter, key, etag string) (T, bool) {
	var zero T
	raw, ok := b.Get(key, etag)
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false
	}
	return v, true
}

// SetJSON marshals value and stores it under key/etag. Marshal failures are
// swallowed, matching the best-effort contract of the underlying bucket.
func SetJSON[T any](b bucketSetter, key, etag string, value T) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	b.Set(key, etag, raw)
}

// GetString reads the cached value for key/etag as a UTF-8 string.
func GetString(b bucketGetter, key, etag string) (string, bool) {
	raw, ok := b.Get(key, etag)
	if !ok {
		return "", false
	}
	return string(raw), true
}

// SetString stores a UTF-8 string under key/etag.
func SetString(b bucketSetter, key, etag, value string) {
	b.Set(key, etag, []byte(value))
}

type bucketGetter interface {
	Get(key, etag string) ([]byte, bool)
}

type bucketSetter interface {
	Set(key, etag string, value []byte)
}
