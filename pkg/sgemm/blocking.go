package sgemm

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Microkernel tile shape: four rows of A against three 4-lane vectors of B.
const (
	RowTile = 4
	ColTile = 12

	floatBytes = 4
)

// CacheSizes holds per-level data cache capacities in bytes.
type CacheSizes struct {
	L1 int `json:"l1" yaml:"l1"`
	L2 int `json:"l2" yaml:"l2"`
	L3 int `json:"l3" yaml:"l3"`
}

// DefaultCacheSizes returns the conservative capacities the kernel was
// tuned against: 16 KiB L1, 128 KiB L2, 2 MiB L3.
func DefaultCacheSizes() CacheSizes {
	return CacheSizes{
		L1: 16 * 1024,
		L2: 128 * 1024,
		L3: 2 * 1024 * 1024,
	}
}

// Validate reports whether every level can hold at least one microkernel
// tile worth of blocking after subtracting the level below it.
func (c CacheSizes) Validate() error {
	if c.L1 <= 0 || c.L2 <= c.L1 || c.L3 <= c.L2 {
		return fmt.Errorf("%w: l1=%d l2=%d l3=%d must be increasing", ErrCacheTooSmall, c.L1, c.L2, c.L3)
	}
	if err := PlanBlocks(c).Validate(); err != nil {
		return fmt.Errorf("%w: l1=%d l2=%d l3=%d", ErrCacheTooSmall, c.L1, c.L2, c.L3)
	}
	return nil
}

// BlockSizes are the cache block extents along the reduction (KC), row
// (MC) and column (NC) dimensions.
type BlockSizes struct {
	KC int `json:"kc" yaml:"kc"`
	MC int `json:"mc" yaml:"mc"`
	NC int `json:"nc" yaml:"nc"`
}

// IsZero reports whether no block size was set.
func (b BlockSizes) IsZero() bool {
	return b.KC == 0 && b.MC == 0 && b.NC == 0
}

// Validate checks the multiples the driver relies on.
func (b BlockSizes) Validate() error {
	switch {
	case b.KC < 1:
		return fmt.Errorf("%w: kc=%d must be >= 1", ErrInvalidBlocks, b.KC)
	case b.MC < RowTile || b.MC%RowTile != 0:
		return fmt.Errorf("%w: mc=%d must be a positive multiple of %d", ErrInvalidBlocks, b.MC, RowTile)
	case b.NC < ColTile || b.NC%ColTile != 0:
		return fmt.Errorf("%w: nc=%d must be a positive multiple of %d", ErrInvalidBlocks, b.NC, ColTile)
	}
	return nil
}

// PlanBlocks derives block extents so that a KC x (RowTile+ColTile)
// panel fits L1, an MC x KC panel of A fits L2 and a KC x NC panel of B
// fits L3. Each level only counts the capacity not already claimed by
// the level below it.
func PlanBlocks(c CacheSizes) BlockSizes {
	l1 := max(c.L1, 0) / floatBytes
	l2 := max(c.L2-c.L1, 0) / floatBytes
	l3 := max(c.L3-c.L2, 0) / floatBytes

	kc := roundDown(l1/(RowTile+ColTile), 2)
	if kc == 0 {
		return BlockSizes{}
	}
	return BlockSizes{
		KC: kc,
		MC: roundDown(l2/kc, RowTile),
		NC: roundDown(l3/kc, ColTile),
	}
}

func roundDown(n, factor int) int {
	return n / factor * factor
}

const sysCacheDir = "/sys/devices/system/cpu/cpu0/cache"

// DetectCacheSizes reads data/unified cache sizes of cpu0 from sysfs.
// Levels that cannot be read keep their default value.
func DetectCacheSizes() CacheSizes {
	return detectCacheSizes(sysCacheDir)
}

func detectCacheSizes(root string) CacheSizes {
	out := DefaultCacheSizes()
	entries, err := filepath.Glob(filepath.Join(root, "index*"))
	if err != nil || len(entries) == 0 {
		return out
	}

	found := CacheSizes{}
	for _, dir := range entries {
		kind, err := readTrimmed(filepath.Join(dir, "type"))
		if err != nil || kind == "Instruction" {
			continue
		}
		levelStr, err := readTrimmed(filepath.Join(dir, "level"))
		if err != nil {
			continue
		}
		level, err := strconv.Atoi(levelStr)
		if err != nil {
			continue
		}
		sizeStr, err := readTrimmed(filepath.Join(dir, "size"))
		if err != nil {
			continue
		}
		size, err := parseCacheSize(sizeStr)
		if err != nil {
			continue
		}
		switch level {
		case 1:
			found.L1 = size
		case 2:
			found.L2 = size
		case 3:
			found.L3 = size
		}
	}

	if found.L1 > 0 {
		out.L1 = found.L1
	}
	if found.L2 > 0 {
		out.L2 = found.L2
	}
	if found.L3 > 0 {
		out.L3 = found.L3
	}
	if out.Validate() != nil {
		return DefaultCacheSizes()
	}
	return out
}

func readTrimmed(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// parseCacheSize accepts sysfs style sizes such as "32K", "1024K", "8M".
func parseCacheSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty cache size")
	}
	mult := 1
	switch s[len(s)-1] {
	case 'K', 'k':
		mult = 1024
		s = s[:len(s)-1]
	case 'M', 'm':
		mult = 1024 * 1024
		s = s[:len(s)-1]
	case 'G', 'g':
		mult = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse cache size %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("cache size %q must be positive", s)
	}
	return n * mult, nil
}
