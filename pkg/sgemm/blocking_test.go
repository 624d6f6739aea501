package sgemm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPlanBlocksDefault(t *testing.T) {
	t.Parallel()

	got := PlanBlocks(DefaultCacheSizes())
	want := BlockSizes{KC: 256, MC: 112, NC: 1920}
	if got != want {
		t.Fatalf("PlanBlocks(default) = %+v, want %+v", got, want)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("default plan invalid: %v", err)
	}
}

func TestPlanBlocksMultiples(t *testing.T) {
	t.Parallel()

	caches := []CacheSizes{
		{L1: 32 * 1024, L2: 256 * 1024, L3: 8 * 1024 * 1024},
		{L1: 48 * 1024, L2: 2 * 1024 * 1024, L3: 32 * 1024 * 1024},
		{L1: 1000, L2: 5000, L3: 9000},
		{L1: 64 * 1024, L2: 1024 * 1024, L3: 16 * 1024 * 1024},
	}
	for _, c := range caches {
		b := PlanBlocks(c)
		if b.KC%2 != 0 || b.KC < 2 {
			t.Fatalf("%+v: kc=%d", c, b.KC)
		}
		if b.MC%RowTile != 0 || b.NC%ColTile != 0 {
			t.Fatalf("%+v: mc=%d nc=%d not multiples of tile", c, b.MC, b.NC)
		}
		if b.KC*(RowTile+ColTile)*floatBytes > c.L1 {
			t.Fatalf("%+v: L1 panel %d bytes does not fit", c, b.KC*(RowTile+ColTile)*floatBytes)
		}
		if b.MC*b.KC*floatBytes > c.L2-c.L1 {
			t.Fatalf("%+v: A panel does not fit usable L2", c)
		}
		if b.NC*b.KC*floatBytes > c.L3-c.L2 {
			t.Fatalf("%+v: B panel does not fit usable L3", c)
		}
	}
}

func TestPlanBlocksDegenerate(t *testing.T) {
	t.Parallel()

	if b := PlanBlocks(CacheSizes{L1: 64, L2: 128, L3: 256}); !b.IsZero() {
		t.Fatalf("expected zero plan, got %+v", b)
	}
	if err := (CacheSizes{L1: 64, L2: 128, L3: 256}).Validate(); !errors.Is(err, ErrCacheTooSmall) {
		t.Fatalf("got %v, want ErrCacheTooSmall", err)
	}
	if err := (CacheSizes{L1: 32 * 1024, L2: 16 * 1024, L3: 1 << 20}).Validate(); !errors.Is(err, ErrCacheTooSmall) {
		t.Fatalf("decreasing sizes: got %v", err)
	}
}

func TestParseCacheSize(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"32K":   32 * 1024,
		"1024K": 1024 * 1024,
		"8M":    8 * 1024 * 1024,
		"512":   512,
		" 48K ": 48 * 1024,
	}
	for in, want := range cases {
		got, err := parseCacheSize(in)
		if err != nil {
			t.Fatalf("parseCacheSize(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("parseCacheSize(%q) = %d, want %d", in, got, want)
		}
	}
	for _, bad := range []string{"", "K", "-4K", "abc"} {
		if _, err := parseCacheSize(bad); err == nil {
			t.Fatalf("parseCacheSize(%q): expected error", bad)
		}
	}
}

func writeCacheIndex(t *testing.T, root, name, level, kind, size string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for file, val := range map[string]string{"level": level, "type": kind, "size": size} {
		if err := os.WriteFile(filepath.Join(dir, file), []byte(val+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDetectCacheSizesFromSysfs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeCacheIndex(t, root, "index0", "1", "Data", "48K")
	writeCacheIndex(t, root, "index1", "1", "Instruction", "32K")
	writeCacheIndex(t, root, "index2", "2", "Unified", "2048K")
	writeCacheIndex(t, root, "index3", "3", "Unified", "30M")

	got := detectCacheSizes(root)
	want := CacheSizes{L1: 48 * 1024, L2: 2 * 1024 * 1024, L3: 30 * 1024 * 1024}
	if got != want {
		t.Fatalf("detectCacheSizes = %+v, want %+v", got, want)
	}
}

func TestDetectCacheSizesFallback(t *testing.T) {
	t.Parallel()

	if got := detectCacheSizes(filepath.Join(t.TempDir(), "missing")); got != DefaultCacheSizes() {
		t.Fatalf("missing dir: got %+v", got)
	}

	root := t.TempDir()
	writeCacheIndex(t, root, "index0", "1", "Data", "32K")
	writeCacheIndex(t, root, "index2", "2", "Unified", "16K")
	if got := detectCacheSizes(root); got != DefaultCacheSizes() {
		t.Fatalf("inconsistent sizes: got %+v, want defaults", got)
	}
}
