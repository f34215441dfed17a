package sequence

import (
	"slices"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// Counts is a value -> occurrence map that remembers insertion order.
// With a positive limit, inserting a new key past the limit evicts the
// oldest inserted key. Incrementing an existing key never reorders it.
type Counts struct {
	keys  []string
	n     map[string]int
	limit int
}

// NewCounts creates an empty map; limit <= 0 means unbounded
func NewCounts(limit int) *Counts {
	return &Counts{n: make(map[string]int), limit: limit}
}

// Inc adds one occurrence of key
func (c *Counts) Inc(key string) {
	c.Add(key, 1)
}

// Add adds delta occurrences of key. Non-positive deltas are ignored.
func (c *Counts) Add(key string, delta int) {
	if delta <= 0 {
		return
	}
	if _, ok := c.n[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.n[key] += delta
	c.evict()
}

// Merge folds other into c taking the larger count per key, so merging the
// same data twice changes nothing. New keys are appended in other's order.
func (c *Counts) Merge(other *Counts) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		v := other.n[k]
		if v <= 0 {
			continue
		}
		if cur, ok := c.n[k]; ok {
			c.n[k] = max(cur, v)
			continue
		}
		c.keys = append(c.keys, k)
		c.n[k] = v
		c.evict()
	}
}

func (c *Counts) evict() {
	if c.limit <= 0 {
		return
	}
	for len(c.keys) > c.limit {
		delete(c.n, c.keys[0])
		c.keys = slices.Delete(c.keys, 0, 1)
	}
}

// Get returns the count for key, zero when absent
func (c *Counts) Get(key string) int {
	if c == nil {
		return 0
	}
	return c.n[key]
}

// Len is the number of distinct keys
func (c *Counts) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns the keys in insertion order
func (c *Counts) Keys() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.keys)
}

// Each visits keys in insertion order
func (c *Counts) Each(fn func(key string, count int)) {
	if c == nil {
		return
	}
	for _, k := range c.keys {
		fn(k, c.n[k])
	}
}

// Ranked returns the keys by descending count; equal counts keep insertion order
func (c *Counts) Ranked() []string {
	keys := c.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return c.n[keys[i]] > c.n[keys[j]]
	})
	return keys
}

// Map returns a plain copy of the counts
func (c *Counts) Map() map[string]int {
	out := make(map[string]int, c.Len())
	c.Each(func(k string, n int) { out[k] = n })
	return out
}

var (
	_ msgpack.CustomEncoder = (*Counts)(nil)
	_ msgpack.CustomDecoder = (*Counts)(nil)
)

// EncodeMsgpack writes the counts as an ordered list of [key, count] pairs
// so that eviction order survives a save/load cycle.
func (c *Counts) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(len(c.keys)); err != nil {
		return err
	}
	for _, k := range c.keys {
		if err := enc.EncodeArrayLen(2); err != nil {
			return err
		}
		if err := enc.EncodeString(k); err != nil {
			return err
		}
		if err := enc.EncodeInt(int64(c.n[k])); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsgpack reads the pair list written by EncodeMsgpack.
// Pairs with non-positive counts are dropped.
func (c *Counts) DecodeMsgpack(dec *msgpack.Decoder) error {
	c.keys = nil
	c.n = make(map[string]int)

	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		pairLen, err := dec.DecodeArrayLen()
		if err != nil {
			return err
		}
		if pairLen != 2 {
			return errMalformedPair
		}
		k, err := dec.DecodeString()
		if err != nil {
			return err
		}
		v, err := dec.DecodeInt64()
		if err != nil {
			return err
		}
		if v > 0 {
			c.Add(k, int(v))
		}
	}
	return nil
}
