package sequence

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestCountsEvictsOldestInserted(t *testing.T) {
	c := NewCounts(3)
	c.Inc("a")
	c.Inc("b")
	c.Inc("a")
	c.Inc("c")
	c.Inc("d")

	assert.Equal(t, []string{"b", "c", "d"}, c.Keys())
	assert.Equal(t, 0, c.Get("a"), "a is evicted even though it was counted twice")
	assert.Equal(t, 3, c.Len())
}

func TestCountsAddIgnoresNonPositive(t *testing.T) {
	c := NewCounts(0)
	c.Add("a", 0)
	c.Add("a", -2)
	assert.Equal(t, 0, c.Len())
}

func TestCountsRanked(t *testing.T) {
	c := NewCounts(0)
	c.Add("low", 1)
	c.Add("high", 5)
	c.Add("tie1", 2)
	c.Add("tie2", 2)
	assert.Equal(t, []string{"high", "tie1", "tie2", "low"}, c.Ranked())
}

func TestCountsNilSafe(t *testing.T) {
	var c *Counts
	assert.Equal(t, 0, c.Get("x"))
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Ranked())
	c.Each(func(string, int) { t.Fatal("visited nil counts") })
}

func TestCountsMergeTakesMax(t *testing.T) {
	a := NewCounts(0)
	a.Add("x", 3)
	a.Add("y", 1)

	b := NewCounts(0)
	b.Add("y", 4)
	b.Add("x", 1)
	b.Add("z", 2)

	a.Merge(b)
	assert.Equal(t, map[string]int{"x": 3, "y": 4, "z": 2}, a.Map())
	assert.Equal(t, []string{"x", "y", "z"}, a.Keys())

	a.Merge(b)
	assert.Equal(t, map[string]int{"x": 3, "y": 4, "z": 2}, a.Map(), "merging twice is a no-op")
}

func TestCountsMergeRespectsLimit(t *testing.T) {
	a := NewCounts(2)
	a.Inc("old")
	b := NewCounts(0)
	b.Inc("n1")
	b.Inc("n2")
	a.Merge(b)
	assert.Equal(t, []string{"n1", "n2"}, a.Keys())
}

func TestCountsMsgpackKeepsOrder(t *testing.T) {
	c := NewCounts(0)
	for i := 5; i > 0; i-- {
		c.Add(fmt.Sprintf("v%d", i), i)
	}

	data, err := msgpack.Marshal(c)
	require.NoError(t, err)

	var out Counts
	require.NoError(t, msgpack.Unmarshal(data, &out))
	assert.Equal(t, c.Keys(), out.Keys())
	assert.Equal(t, c.Map(), out.Map())
}

func TestCountsDecodeRejectsBadPair(t *testing.T) {
	data, err := msgpack.Marshal([]any{[]any{"a", 1, 2}})
	require.NoError(t, err)

	var out Counts
	assert.ErrorIs(t, msgpack.Unmarshal(data, &out), errMalformedPair)
}

func TestMergeHistory(t *testing.T) {
	tests := []struct {
		name   string
		mem    []string
		loaded []string
		size   int
		want   []string
	}{
		{"empty memory", nil, []string{"a", "b"}, 20, []string{"a", "b"}},
		{"empty loaded", []string{"a"}, nil, 20, []string{"a"}},
		{"identical", []string{"a", "b"}, []string{"a", "b"}, 20, []string{"a", "b"}},
		{"loaded continues memory", []string{"a", "b"}, []string{"b", "c"}, 20, []string{"a", "b", "c"}},
		{"memory continues loaded", []string{"b", "c"}, []string{"a", "b"}, 20, []string{"a", "b", "c"}},
		{"unrelated", []string{"x"}, []string{"a", "b"}, 20, []string{"a", "b", "x"}},
		{"trimmed to newest", []string{"x", "y"}, []string{"a", "b"}, 3, []string{"b", "x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeHistory(tt.mem, tt.loaded, tt.size))
		})
	}
}
