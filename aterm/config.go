package aterm

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/atermkit/aterm/afun"
	"github.com/joshuapare/atermkit/aterm/alloc"
)

// Config holds every tunable of a Store. Start from DefaultConfig and
// override; LoadConfig does exactly that with a YAML file.
type Config struct {
	// Allocator geometry and grow-or-collect policy.
	BlockShift               uint `yaml:"block_shift"`
	BlockWords               int  `yaml:"block_words"`
	MinBlocks                int  `yaml:"min_blocks"`
	MaxBlocks                int  `yaml:"max_blocks"`
	MaxFreeBlocks            int  `yaml:"max_free_blocks"`
	GoodGCRatio              int  `yaml:"good_gc_ratio"`
	SmallAllocationRateRatio int  `yaml:"small_allocation_rate_ratio"`

	// Term hash table.
	TableClass int `yaml:"table_class"` // log2 of the initial bucket count
	MaxLoad    int `yaml:"max_load"`    // percent entries per bucket before doubling

	// Symbol table.
	SymbolClass int `yaml:"symbol_class"`
	MaxArity    int `yaml:"max_arity"`

	// Generational collection: automatic cycles are minor unless MajorEvery
	// minors have run since the last major one.
	Generational bool `yaml:"generational"`
	MajorEvery   int  `yaml:"major_every"`

	Logger         *slog.Logger         `yaml:"-"` // nil discards
	TracerProvider trace.TracerProvider `yaml:"-"` // nil uses the global provider
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	ac := alloc.DefaultConfig()
	fc := afun.DefaultConfig()
	return Config{
		BlockShift:               ac.BlockShift,
		BlockWords:               ac.BlockWords,
		MinBlocks:                ac.MinBlocks,
		MaxFreeBlocks:            ac.MaxFreeBlocks,
		GoodGCRatio:              ac.GoodGCRatio,
		SmallAllocationRateRatio: ac.SmallAllocationRateRatio,
		TableClass:               17,
		MaxLoad:                  80,
		SymbolClass:              fc.InitialClass,
		MaxArity:                 fc.MaxArity,
		MajorEvery:               10,
	}
}

// LowMemoryConfig trades collection frequency for a smaller footprint.
func LowMemoryConfig() Config {
	cfg := DefaultConfig()
	cfg.SmallAllocationRateRatio = 25
	cfg.TableClass = 13
	cfg.SymbolClass = 8
	cfg.MaxFreeBlocks = 10
	return cfg
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if err := c.allocConfig().Validate(); err != nil {
		return err
	}
	if c.TableClass < 1 || c.TableClass > 30 {
		return fmt.Errorf("aterm: table class %d out of range [1,30]", c.TableClass)
	}
	if c.MaxLoad < 1 || c.MaxLoad > 1000 {
		return fmt.Errorf("aterm: max load %d out of range [1,1000]", c.MaxLoad)
	}
	if c.Generational && c.MajorEvery < 1 {
		return fmt.Errorf("aterm: major_every must be positive in generational mode")
	}
	return nil
}

// ParseConfig overlays YAML onto DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("aterm: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("aterm: read config: %w", err)
	}
	return ParseConfig(data)
}

func (c Config) allocConfig() alloc.Config {
	return alloc.Config{
		BlockShift:               c.BlockShift,
		BlockWords:               c.BlockWords,
		MinBlocks:                c.MinBlocks,
		MaxBlocks:                c.MaxBlocks,
		MaxFreeBlocks:            c.MaxFreeBlocks,
		GoodGCRatio:              c.GoodGCRatio,
		SmallAllocationRateRatio: c.SmallAllocationRateRatio,
		Logger:                   c.Logger,
	}
}

func (c Config) symbolConfig() afun.Config {
	return afun.Config{InitialClass: c.SymbolClass, MaxArity: c.MaxArity}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
