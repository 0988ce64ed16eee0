package aterm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_OverlaysDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
generational: true
major_every: 3
table_class: 12
max_blocks: 64
`))
	require.NoError(t, err)

	def := DefaultConfig()
	assert.True(t, cfg.Generational)
	assert.Equal(t, 3, cfg.MajorEvery)
	assert.Equal(t, 12, cfg.TableClass)
	assert.Equal(t, 64, cfg.MaxBlocks)
	assert.Equal(t, def.BlockShift, cfg.BlockShift, "unset keys keep their defaults")
	assert.Equal(t, def.MaxLoad, cfg.MaxLoad)
}

func TestParseConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"syntax", "table_class: [1"},
		{"table class", "table_class: 0"},
		{"max load", "max_load: 0"},
		{"block shift", "block_shift: 40"},
		{"ratio", "good_gc_ratio: 101"},
		{"major every", "generational: true\nmajor_every: 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_blocks: 2\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MinBlocks)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLowMemoryConfig(t *testing.T) {
	cfg := LowMemoryConfig()
	require.NoError(t, cfg.Validate())
	assert.Less(t, cfg.TableClass, DefaultConfig().TableClass)

	s := newTestStore(t, cfg)
	assert.Equal(t, 1<<cfg.TableClass, s.Stats().TableBuckets)
}

func TestMaxBlocks_OutOfMemory(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxBlocks = 2
	s := newTestStore(t, cfg)

	var held []Term
	reg := s.ProtectSlice(&held)
	defer reg.Release()

	var err error
	for i := range int64(100) {
		var x Term
		if x, err = s.MakeInt(i); err != nil {
			break
		}
		held = append(held, x)
	}
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.NotEmpty(t, held)
	for _, x := range held {
		assert.True(t, s.Valid(x), "live terms survive the failed allocation")
	}
}

func TestTable_GrowsUnderLoad(t *testing.T) {
	s := newTestStore(t, smallConfig())
	var held []Term
	reg := s.ProtectSlice(&held)
	defer reg.Release()

	for i := range int64(100) {
		held = append(held, mustInt(t, s, i))
	}
	st := s.Stats()
	assert.Positive(t, st.TableResizes)
	for i, x := range held {
		assert.Equal(t, x, mustInt(t, s, int64(i)), "lookups survive rehashing")
	}
}
