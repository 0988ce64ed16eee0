package alloc

import (
	"fmt"
	"io"
	"log/slog"
)

// Config controls block geometry and the grow-or-collect policy.
type Config struct {
	BlockShift               uint         // log2 of the maximum cells per block
	BlockWords               int          // target words per block; large classes get fewer cells
	MinBlocks                int          // blocks a pool may grow to before collection is considered
	MaxBlocks                int          // hard limit on live blocks; 0 means unlimited
	MaxFreeBlocks            int          // reclaimed empty blocks kept for reuse
	GoodGCRatio              int          // percent of a pool a cycle must reclaim to be worth repeating
	SmallAllocationRateRatio int          // percent of pool capacity allocated since the last cycle that justifies growing
	Logger                   *slog.Logger // nil discards
}

// DefaultConfig mirrors the tuning of the original ATerm block allocator.
func DefaultConfig() Config {
	return Config{
		BlockShift:               10,
		BlockWords:               1 << 14,
		MinBlocks:                4,
		MaxFreeBlocks:            100,
		GoodGCRatio:              50,
		SmallAllocationRateRatio: 75,
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.BlockShift == 0 || c.BlockShift > 20 {
		return fmt.Errorf("alloc: block shift %d out of range [1,20]", c.BlockShift)
	}
	if c.BlockWords < 1 {
		return fmt.Errorf("alloc: block words must be positive, got %d", c.BlockWords)
	}
	if c.MinBlocks < 0 || c.MaxBlocks < 0 || c.MaxFreeBlocks < 0 {
		return fmt.Errorf("alloc: negative block limit")
	}
	if c.MaxBlocks > 0 && c.MaxBlocks > maxBlockIndex(c.BlockShift) {
		return fmt.Errorf("alloc: max blocks %d exceeds ref space", c.MaxBlocks)
	}
	if c.GoodGCRatio < 0 || c.GoodGCRatio > 100 {
		return fmt.Errorf("alloc: good gc ratio %d out of range [0,100]", c.GoodGCRatio)
	}
	if c.SmallAllocationRateRatio < 0 || c.SmallAllocationRateRatio > 100 {
		return fmt.Errorf("alloc: small allocation rate ratio %d out of range [0,100]", c.SmallAllocationRateRatio)
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// maxBlockIndex is the number of blocks addressable by a non-zero uint32 Ref.
func maxBlockIndex(shift uint) int {
	return int((uint64(1)<<32 - 1) >> shift)
}
