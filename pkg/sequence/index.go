package sequence

import (
	"sort"
	"strings"

	"github.com/bastiangx/fillserve/pkg/field"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Completion is a learned value that starts with the typed prefix
type Completion struct {
	Value string `msgpack:"v"`
	Count int    `msgpack:"n"`
}

// valueIndex keeps one patricia trie per field type for prefix lookups.
// Keys are lowercase(value) + "\x00" + value so that case-insensitive
// prefixes find every spelling while each spelling stays distinct.
type valueIndex struct {
	tries map[field.Type]*patricia.Trie
}

func newValueIndex() *valueIndex {
	return &valueIndex{tries: make(map[field.Type]*patricia.Trie)}
}

func indexKey(value string) patricia.Prefix {
	return patricia.Prefix(strings.ToLower(value) + "\x00" + value)
}

func (ix *valueIndex) put(t field.Type, value string, count int) {
	trie, ok := ix.tries[t]
	if !ok {
		trie = patricia.NewTrie()
		ix.tries[t] = trie
	}
	trie.Set(indexKey(value), count)
}

// rebuild replaces the trie for t with the contents of freq
func (ix *valueIndex) rebuild(t field.Type, freq *Counts) {
	trie := patricia.NewTrie()
	freq.Each(func(v string, n int) {
		trie.Set(indexKey(v), n)
	})
	ix.tries[t] = trie
}

func (ix *valueIndex) complete(t field.Type, prefix string, limit int) []Completion {
	trie, ok := ix.tries[t]
	if !ok {
		return []Completion{}
	}

	lowerPrefix := strings.ToLower(prefix)
	results := []Completion{}
	visit := func(p patricia.Prefix, item patricia.Item) error {
		key := string(p)
		sep := strings.IndexByte(key, 0)
		if sep < 0 {
			return nil
		}
		// typing the whole value already; nothing to complete
		if key[:sep] == lowerPrefix {
			return nil
		}
		count, _ := item.(int)
		results = append(results, Completion{Value: key[sep+1:], Count: count})
		return nil
	}

	var err error
	if lowerPrefix == "" {
		err = trie.Visit(visit)
	} else {
		err = trie.VisitSubtree(patricia.Prefix(lowerPrefix), visit)
	}
	if err != nil {
		log.Errorf("Error visiting value index: %v", err)
		return []Completion{}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].Value < results[j].Value
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
