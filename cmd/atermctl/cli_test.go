package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/atermkit/aterm"
	"github.com/joshuapare/atermkit/aterm/codec"
)

// reset restores global flag state and captures stdout into the returned
// buffer.
func reset(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	stdout = &buf
	verbose, quiet, jsonOut, noColor = false, false, false, false
	configPath, logDir = "", ""
	statsCollect = false
	dumpIndent, dumpMaxBlob = -1, 32
	benchMetrics = false
	storeConfig = aterm.DefaultConfig()
	t.Cleanup(func() { stdout = os.Stdout })
	return &buf
}

// writeSample writes f(g(1),[g(1),2]) and h("q") to a binary file.
func writeSample(t *testing.T) string {
	t.Helper()
	s, err := aterm.New(aterm.DefaultConfig())
	require.NoError(t, err)
	f, err := s.Symbol("f", 2, false)
	require.NoError(t, err)
	g, err := s.Symbol("g", 1, false)
	require.NoError(t, err)
	h, err := s.Symbol("h", 1, false)
	require.NoError(t, err)
	q, err := s.Symbol("q", 0, true)
	require.NoError(t, err)

	var held []aterm.Term
	reg := s.ProtectSlice(&held)
	defer reg.Release()
	mk := func(x aterm.Term, err error) aterm.Term {
		t.Helper()
		require.NoError(t, err)
		held = append(held, x)
		return x
	}
	one := mk(s.MakeInt(1))
	g1 := mk(s.MakeAppl(g, one))
	list := mk(s.MakeList(g1, mk(s.MakeInt(2))))
	first := mk(s.MakeAppl(f, g1, list))
	second := mk(s.MakeAppl(h, mk(s.MakeAppl(q))))

	path := filepath.Join(t.TempDir(), "sample.taf")
	require.NoError(t, codec.WriteFile(s, path, first, second))
	return path
}

const sampleText = "f(g(1),[g(1),2])\nh(\"q\")\n"

func TestDump(t *testing.T) {
	out := reset(t)
	require.NoError(t, runDump(writeSample(t)))
	assert.Equal(t, sampleText, out.String())
}

func TestConvert_RoundTrip(t *testing.T) {
	out := reset(t)
	in := writeSample(t)
	dir := t.TempDir()
	ats := filepath.Join(dir, "sample.ats")
	taf := filepath.Join(dir, "back.taf")

	require.NoError(t, runConvert(in, ats, formatStream))
	kind, err := detectFormat(ats)
	require.NoError(t, err)
	assert.Equal(t, formatStream, kind)

	require.NoError(t, runConvert(ats, taf, formatBinary))
	kind, err = detectFormat(taf)
	require.NoError(t, err)
	assert.Equal(t, formatBinary, kind)

	want, err := os.ReadFile(in)
	require.NoError(t, err)
	got, err := os.ReadFile(taf)
	require.NoError(t, err)
	assert.Equal(t, want, got, "binary encoding is deterministic across the stream hop")

	out.Reset()
	require.NoError(t, runDump(ats))
	assert.Equal(t, sampleText, out.String())

	require.Error(t, runConvert(in, ats, "xml"))
}

func TestDetectFormat_Rejects(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk")
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(junk, []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	for _, p := range []string{junk, empty, filepath.Join(dir, "missing")} {
		_, err := detectFormat(p)
		require.Error(t, err, p)
	}
}

func TestStats_JSON(t *testing.T) {
	out := reset(t)
	jsonOut, statsCollect = true, true
	a := writeSample(t)
	b := filepath.Join(t.TempDir(), "b.ats")
	require.NoError(t, runConvert(a, b, formatStream))
	out.Reset()

	require.NoError(t, runStats(context.Background(), []string{a, b}))
	var res []FileStats
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Len(t, res, 2)
	assert.Equal(t, a, res[0].Path)
	assert.Equal(t, formatBinary, res[0].Format)
	assert.Equal(t, formatStream, res[1].Format)
	for _, r := range res {
		assert.Equal(t, 2, r.Terms)
		assert.Positive(t, r.LiveCells)
	}
	assert.Equal(t, res[0].LiveCells, res[1].LiveCells, "both formats load the same cells")

	require.Error(t, runStats(context.Background(), []string{a, "missing"}))
}

func TestVerify(t *testing.T) {
	out := reset(t)
	require.NoError(t, runVerify([]string{writeSample(t)}))
	assert.Contains(t, out.String(), "ok")

	junk := filepath.Join(t.TempDir(), "junk")
	require.NoError(t, os.WriteFile(junk, []byte{'?', 0xff}, 0o644))
	require.Error(t, runVerify([]string{junk}))
	assert.Contains(t, out.String(), "FAILED")
}

func TestBench(t *testing.T) {
	out := reset(t)
	storeConfig.BlockShift = 4
	storeConfig.MinBlocks = 1

	res, err := runBench(200, 5, true)
	require.NoError(t, err)
	assert.Equal(t, 25, res.Distinct)
	assert.GreaterOrEqual(t, res.MajorCycles, uint64(1))
	assert.Equal(t, int(res.MajorCycles+res.MinorCycles), res.Spans, "one span per collection")

	require.NoError(t, reportBench(res))
	assert.Contains(t, out.String(), "25 distinct")

	out.Reset()
	benchMetrics = true
	require.NoError(t, reportBench(res))
	assert.Contains(t, out.String(), "aterm_collections_total")

	_, err = runBench(0, 5, false)
	require.Error(t, err)
}

func TestDB(t *testing.T) {
	out := reset(t)
	dir := filepath.Join(t.TempDir(), "db")
	in := writeSample(t)

	require.NoError(t, runDBPut(dir, "start", in))
	require.NoError(t, runDBPut(dir, "again", in))

	out.Reset()
	require.NoError(t, runDBList(dir))
	assert.Equal(t, "again\nstart\n", out.String())

	out.Reset()
	require.NoError(t, runDBGet(dir, "start", ""))
	assert.Equal(t, "f(g(1),[g(1),2])\n", out.String())

	taf := filepath.Join(t.TempDir(), "start.taf")
	require.NoError(t, runDBGet(dir, "start", taf))
	out.Reset()
	require.NoError(t, runDump(taf))
	assert.Equal(t, "f(g(1),[g(1),2])\n", out.String())

	require.NoError(t, runDBRemove(dir, []string{"again"}))
	out.Reset()
	require.NoError(t, runDBList(dir))
	assert.Equal(t, "start", strings.TrimSpace(out.String()))
	require.Error(t, runDBGet(dir, "again", ""))
}

func TestSetup_LoadsConfig(t *testing.T) {
	reset(t)
	configPath = filepath.Join(t.TempDir(), "store.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("generational: true\n"), 0o600))

	require.NoError(t, setup(nil, nil))
	assert.True(t, storeConfig.Generational)
	assert.NotNil(t, storeConfig.Logger)

	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	require.Error(t, setup(nil, nil))
}
