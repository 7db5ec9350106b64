package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTokenCacheRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", ".token-oauth")
	cache := NewTokenCache(path, nil)

	if got := cache.Read(); got != nil {
		t.Fatalf("Read() on missing file = %+v, want nil", got)
	}

	want := &TokenRecord{AccessToken: "abc", TokenType: "bearer", ExpiresIn: 3600, ExpireTime: 1700000000}
	if err := cache.Write(want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("cache file mode = %o, want 600", perm)
	}

	got := cache.Read()
	if got == nil || *got != *want {
		t.Errorf("Read() = %+v, want %+v", got, want)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("cache dir has %d entries, want 1", len(entries))
	}
}

func TestTokenCacheReadCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".token-oauth")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := NewTokenCache(path, nil).Read(); got != nil {
		t.Errorf("Read() = %+v, want nil", got)
	}
}
