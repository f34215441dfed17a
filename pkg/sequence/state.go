package sequence

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

var errMalformedPair = errors.New("count entry is not a [value, count] pair")

// State is the persisted form of the four learned tables. Outer keys are
// field type names.
type State struct {
	History     map[string][]string           `msgpack:"trainingData"`
	Transitions map[string]map[string]*Counts `msgpack:"markovChains"`
	Frequency   map[string]*Counts            `msgpack:"frequency"`
	CrossField  map[string]map[string]*Counts `msgpack:"crossFieldChains"`
	SavedAt     int64                         `msgpack:"savedAt,omitempty"`
}

// EncodeState serializes s with msgpack
func EncodeState(s *State) ([]byte, error) {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// DecodeState parses bytes written by EncodeState. Any shape mismatch is
// an error; callers treat that as "no prior data".
func DecodeState(data []byte) (*State, error) {
	var s State
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &s, nil
}

// mergeHistory joins two recent-value buffers. When one continues the
// other (suffix of one equals prefix of the other) the overlap is written
// once; unrelated buffers are concatenated with mem last. The result keeps
// the newest size entries.
func mergeHistory(mem, loaded []string, size int) []string {
	var out []string
	switch {
	case len(mem) == 0:
		out = slices.Clone(loaded)
	case len(loaded) == 0:
		out = slices.Clone(mem)
	default:
		memThenLoaded := overlap(mem, loaded)
		loadedThenMem := overlap(loaded, mem)
		switch {
		case memThenLoaded > 0 && memThenLoaded >= loadedThenMem:
			out = append(slices.Clone(mem), loaded[memThenLoaded:]...)
		case loadedThenMem > 0:
			out = append(slices.Clone(loaded), mem[loadedThenMem:]...)
		default:
			out = append(slices.Clone(loaded), mem...)
		}
	}
	if size > 0 && len(out) > size {
		out = slices.Clone(out[len(out)-size:])
	}
	return out
}

// overlap returns the largest k such that a's last k entries equal b's first k
func overlap(a, b []string) int {
	for k := min(len(a), len(b)); k > 0; k-- {
		if slices.Equal(a[len(a)-k:], b[:k]) {
			return k
		}
	}
	return 0
}
