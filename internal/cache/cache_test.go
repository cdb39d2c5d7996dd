package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

func TestVectorKey(t *testing.T) {
	a := VectorKey("openai", "text-embedding-3-small", "MFA is enforced")
	b := VectorKey("openai", "text-embedding-3-small", "MFA is enforced")
	if a != b {
		t.Fatalf("key not stable: %s vs %s", a, b)
	}
	if len(a) != len("vsat:v1:")+64 {
		t.Errorf("unexpected key length %d", len(a))
	}

	others := []string{
		VectorKey("ollama", "text-embedding-3-small", "MFA is enforced"),
		VectorKey("openai", "text-embedding-3-large", "MFA is enforced"),
		VectorKey("openai", "text-embedding-3-small", "MFA is optional"),
		VectorKey("openai", "text-embedding-3-smallMFA is enforced", ""),
	}
	for _, o := range others {
		if o == a {
			t.Errorf("expected distinct key, got collision %s", o)
		}
	}
}

func TestVectorCodec(t *testing.T) {
	v := []float32{0, 1, -0.5, 3.25}
	got, err := DecodeVector(EncodeVector(v))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(v) {
		t.Fatalf("expected %d values, got %d", len(v), len(got))
	}
	for i := range v {
		if got[i] != v[i] {
			t.Errorf("index %d: expected %v, got %v", i, v[i], got[i])
		}
	}

	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated payload")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}
	value := []byte("abcd")
	if err := c.Set("k", value, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'z'

	got, ok := c.Get("k")
	if !ok || string(got) != "abcd" {
		t.Fatalf("expected abcd, got %q (found=%v)", got, ok)
	}
	got[1] = 'z'
	again, _ := c.Get("k")
	if string(again) != "abcd" {
		t.Errorf("cache entry was aliased: %q", again)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := VectorKey("local", "", "Data is encrypted")
	if err := SetVector(c, key, []float32{0.5, 0.25}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	// a fresh instance sees the entry
	v, ok := GetVector(NewDiskCache(dir, time.Hour), key)
	if !ok {
		t.Fatal("expected hit from disk")
	}
	if len(v) != 2 || v[0] != 0.5 || v[1] != 0.25 {
		t.Errorf("unexpected vector %v", v)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestDiskCache_ExpiredAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	_ = c.Set("old", []byte("v"), time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Get("old"); ok {
		t.Error("expected expired entry to miss")
	}
	if _, err := os.Stat(filepath.Join(dir, "old.vec")); !os.IsNotExist(err) {
		t.Error("expected expired file to be removed")
	}

	if err := os.WriteFile(filepath.Join(dir, "bad.vec"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("expected corrupt entry to miss")
	}
}

func TestGetVector_DropsCorruptPayload(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte{1, 2, 3}, 0)
	if _, ok := GetVector(c, "k"); ok {
		t.Fatal("expected corrupt payload to miss")
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected corrupt payload to be deleted")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	_ = NewDiskCache(dir, time.Hour).Set("k", []byte("vec"), 0)

	c := NewLayeredCache(time.Hour, dir, time.Hour)
	got, ok := c.Get("k")
	if !ok || string(got) != "vec" {
		t.Fatalf("expected disk hit, got %q (found=%v)", got, ok)
	}
	if _, ok := c.memory.Get("k"); !ok {
		t.Error("expected disk hit to be promoted to memory")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after clear")
	}
}

func TestNew(t *testing.T) {
	if c := New(model.CacheConfig{Enabled: false}); c != nil {
		t.Errorf("expected nil cache when disabled, got %T", c)
	}

	c := New(model.CacheConfig{Enabled: true, TTL: time.Hour})
	layered, ok := c.(*LayeredCache)
	if !ok {
		t.Fatalf("expected *LayeredCache, got %T", c)
	}
	if layered.disk != nil {
		t.Error("expected no disk layer without a directory")
	}
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := c.Get("k"); !ok {
		t.Error("expected memory hit")
	}
}
