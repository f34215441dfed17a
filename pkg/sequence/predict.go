package sequence

import "github.com/bastiangx/fillserve/pkg/field"

// Predict guesses the next value for t from the most recent one: values
// that followed it before rank by how often they did, then every other
// recent value with a weight of one.
func (m *Model) Predict(t field.Type) []string {
	hist := m.history[t]
	if len(hist) == 0 {
		return []string{}
	}

	scores := NewCounts(0)
	m.transitions[t][hist[len(hist)-1]].Each(func(v string, n int) {
		scores.Add(v, n)
	})
	for _, v := range hist {
		if scores.Get(v) == 0 {
			scores.Inc(v)
		}
	}

	ranked := scores.Ranked()
	if len(ranked) > m.cfg.SuggestLimit {
		ranked = ranked[:m.cfg.SuggestLimit]
	}
	return ranked
}
