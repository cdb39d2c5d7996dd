// Package cache stores embedding vectors keyed by backend, model and text.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// VectorKey generates a cache key for the embedding of text by the given
// backend and model. Changing either invalidates the entry.
func VectorKey(backend, model, text string) string {
	h := sha256.New()
	h.Write([]byte(backend))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return "vsat:v1:" + hex.EncodeToString(h.Sum(nil))
}

// EncodeVector packs a vector as little-endian float32s
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector is the inverse of EncodeVector
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector payload length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

// GetVector reads and decodes a cached vector. Corrupt entries are dropped.
func GetVector(c Cache, key string) ([]float32, bool) {
	b, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	v, err := DecodeVector(b)
	if err != nil || len(v) == 0 {
		_ = c.Delete(key)
		return nil, false
	}
	return v, true
}

// SetVector encodes and stores a vector
func SetVector(c Cache, key string, v []float32, ttl time.Duration) error {
	return c.Set(key, EncodeVector(v), ttl)
}
