// Package sequence learns which values a user types into which kind of form
// field and turns that history into suggestions.
//
// A Model keeps four tables per field type: a bounded history of recent
// values, first-order transitions between consecutive values, plain value
// frequencies and cross-field associations (the value typed into a related
// field -> the value typed here). Suggest ranks by cross-field evidence and
// pads from frequency; Predict follows the transition table.
//
// A Model is not safe for concurrent use. Give each session its own model
// or serialise calls, as the server and CLI do.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/fillserve/internal/logger"
	"github.com/bastiangx/fillserve/internal/utils"
	"github.com/bastiangx/fillserve/pkg/field"
	"github.com/bastiangx/fillserve/pkg/store"
	"github.com/bastiangx/fillserve/pkg/validate"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// ErrStorage wraps any failure of the store collaborator
var ErrStorage = errors.New("sequence: storage failure")

// Config holds the model limits
type Config struct {
	// HistorySize caps the recent-values buffer per field type
	HistorySize int
	// MaxLinks caps every inner transition/cross-field map
	MaxLinks int
	// MinLength is the minimum rune count of an admitted value
	MinLength int
	// SuggestLimit caps Suggest and Predict results
	SuggestLimit int
	// Related are the field types whose values feed cross-field learning
	Related []field.Type
	// StateKey is the store key the learned tables live under
	StateKey   string
	Validators validate.Set
}

// DefaultConfig returns the stock limits
func DefaultConfig() Config {
	return Config{
		HistorySize:  20,
		MaxLinks:     20,
		MinLength:    3,
		SuggestLimit: 3,
		Related:      []field.Type{field.FirstName, field.LastName, field.Email, field.Phone},
		StateKey:     "trainingData",
		Validators:   validate.Default(),
	}
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.HistorySize <= 0 {
		c.HistorySize = def.HistorySize
	}
	if c.MaxLinks <= 0 {
		c.MaxLinks = def.MaxLinks
	}
	if c.MinLength <= 0 {
		c.MinLength = def.MinLength
	}
	if c.SuggestLimit <= 0 {
		c.SuggestLimit = def.SuggestLimit
	}
	if c.Related == nil {
		c.Related = def.Related
	}
	if c.StateKey == "" {
		c.StateKey = def.StateKey
	}
	if c.Validators == nil {
		c.Validators = def.Validators
	}
}

// Model is the learned state of one session
type Model struct {
	cfg   Config
	store store.Store
	log   *log.Logger

	history     map[field.Type][]string
	transitions map[field.Type]map[string]*Counts
	frequency   map[field.Type]*Counts
	cross       map[field.Type]map[string]*Counts
	lastSeen    map[field.Type]string
	index       *valueIndex

	session  string
	accepted int
	rejected int
}

// NewModel creates an empty model backed by st. A nil store keeps
// everything in memory. Call Refresh to pull in previously saved data.
func NewModel(st store.Store, cfg Config) *Model {
	cfg.fillDefaults()
	session := uuid.NewString()
	return &Model{
		cfg:         cfg,
		store:       st,
		log:         logger.New("sequence " + session[:8]),
		history:     make(map[field.Type][]string),
		transitions: make(map[field.Type]map[string]*Counts),
		frequency:   make(map[field.Type]*Counts),
		cross:       make(map[field.Type]map[string]*Counts),
		lastSeen:    make(map[field.Type]string),
		index:       newValueIndex(),
		session:     session,
	}
}

// Open creates a model and loads whatever st already holds
func Open(ctx context.Context, st store.Store, cfg Config) (*Model, error) {
	m := NewModel(st, cfg)
	if err := m.Refresh(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// SessionID identifies this model instance
func (m *Model) SessionID() string {
	return m.session
}

// Config returns the effective limits
func (m *Model) Config() Config {
	return m.cfg
}

func known(t field.Type) bool {
	return slices.Contains(field.All, t)
}

// Observe learns value for field type t. related holds the current values
// of other fields on the form; nil means "use the last values this model
// saw", which includes the tail of loaded history. The value is trimmed
// before the length check, so "ab " is too short. Rejected values (too
// short, invalid, unknown type) return false and no error. When the
// in-memory update succeeds but persisting it fails, Observe returns true
// and an error wrapping ErrStorage; memory keeps the update.
func (m *Model) Observe(ctx context.Context, t field.Type, value string, related map[field.Type]string) (bool, error) {
	v := strings.TrimSpace(value)
	if !known(t) || utf8.RuneCountInString(v) < m.cfg.MinLength || !m.cfg.Validators.Valid(t, v) {
		m.rejected++
		m.log.Debugf("Rejected %q for %s", value, t)
		return false, nil
	}
	if related == nil {
		related = m.lastSeen
	}

	hist := m.history[t]
	if len(hist) > 0 {
		m.link(m.transitions, t, hist[len(hist)-1], v)
	}
	hist = append(hist, v)
	if len(hist) > m.cfg.HistorySize {
		hist = slices.Clone(hist[len(hist)-m.cfg.HistorySize:])
	}
	m.history[t] = hist

	freq, ok := m.frequency[t]
	if !ok {
		freq = NewCounts(0)
		m.frequency[t] = freq
	}
	freq.Inc(v)
	m.index.put(t, v, freq.Get(v))

	for _, rel := range m.cfg.Related {
		if rel == t {
			continue
		}
		rv := strings.TrimSpace(related[rel])
		if rv == "" {
			continue
		}
		m.link(m.cross, t, rv, v)
	}

	m.lastSeen[t] = v
	m.accepted++
	m.log.Debugf("Learned %q for %s", v, t)

	if err := m.save(ctx); err != nil {
		m.log.Errorf("Failed to save learned data: %v", err)
		return true, err
	}
	return true, nil
}

// link increments table[t][from][to], creating capped inner maps on demand
func (m *Model) link(table map[field.Type]map[string]*Counts, t field.Type, from, to string) {
	outer, ok := table[t]
	if !ok {
		outer = make(map[string]*Counts)
		table[t] = outer
	}
	inner, ok := outer[from]
	if !ok {
		inner = NewCounts(m.cfg.MaxLinks)
		outer[from] = inner
	}
	inner.Inc(to)
}

// Suggest ranks values for field type t. Values associated with the related
// fields present in snapshot come first, ordered by summed count; the rest
// of the slots are filled from overall frequency.
func (m *Model) Suggest(t field.Type, snapshot map[field.Type]string) []string {
	scores := NewCounts(0)
	for _, rel := range m.cfg.Related {
		if rel == t {
			continue
		}
		rv := strings.TrimSpace(snapshot[rel])
		if rv == "" {
			continue
		}
		m.cross[t][rv].Each(func(v string, n int) {
			scores.Add(v, n)
		})
	}

	limit := m.cfg.SuggestLimit
	out := make([]string, 0, limit)
	filter := utils.NewSuggestionFilter()
	for _, ranked := range [][]string{scores.Ranked(), m.frequency[t].Ranked()} {
		for _, v := range ranked {
			if len(out) == limit {
				return out
			}
			if filter.ShouldInclude(v) {
				out = append(out, v)
			}
		}
	}
	return out
}

// AllKnownValues returns, for each field type with history, its distinct
// recent values in first-seen order.
func (m *Model) AllKnownValues() map[field.Type][]string {
	out := make(map[field.Type][]string, len(m.history))
	for t, hist := range m.history {
		if len(hist) == 0 {
			continue
		}
		out[t] = utils.Dedupe(hist)
	}
	return out
}

// LastSeen returns the most recent admitted value per field type
func (m *Model) LastSeen() map[field.Type]string {
	out := make(map[field.Type]string, len(m.lastSeen))
	for t, v := range m.lastSeen {
		out[t] = v
	}
	return out
}

// Complete returns learned values for t that start with prefix
// (case-insensitive), most frequent first. A prefix equal to a whole value
// does not return that value.
func (m *Model) Complete(t field.Type, prefix string, limit int) []Completion {
	return m.index.complete(t, strings.TrimSpace(prefix), limit)
}

// Stats summarises table sizes and this session's activity
func (m *Model) Stats() map[string]int {
	stats := map[string]int{
		"types":       0,
		"history":     0,
		"values":      0,
		"transitions": 0,
		"crossField":  0,
		"accepted":    m.accepted,
		"rejected":    m.rejected,
	}
	for _, hist := range m.history {
		if len(hist) > 0 {
			stats["types"]++
		}
		stats["history"] += len(hist)
	}
	for _, freq := range m.frequency {
		stats["values"] += freq.Len()
	}
	for _, outer := range m.transitions {
		for _, inner := range outer {
			stats["transitions"] += inner.Len()
		}
	}
	for _, outer := range m.cross {
		for _, inner := range outer {
			stats["crossField"] += inner.Len()
		}
	}
	return stats
}

// snapshot converts the in-memory tables to their persisted form
func (m *Model) snapshot() *State {
	s := &State{
		History:     make(map[string][]string, len(m.history)),
		Transitions: make(map[string]map[string]*Counts, len(m.transitions)),
		Frequency:   make(map[string]*Counts, len(m.frequency)),
		CrossField:  make(map[string]map[string]*Counts, len(m.cross)),
		SavedAt:     time.Now().Unix(),
	}
	for t, hist := range m.history {
		s.History[t.String()] = hist
	}
	for t, outer := range m.transitions {
		s.Transitions[t.String()] = outer
	}
	for t, freq := range m.frequency {
		s.Frequency[t.String()] = freq
	}
	for t, outer := range m.cross {
		s.CrossField[t.String()] = outer
	}
	return s
}

func (m *Model) save(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	data, err := EncodeState(m.snapshot())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err := m.store.Save(ctx, m.cfg.StateKey, data); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// Refresh reloads the saved tables and merges them into memory. Counts are
// merged by taking the larger value and histories by overlap, so calling
// Refresh repeatedly changes nothing. Unreadable saved data is logged and
// skipped; only a failing store is returned as an error.
func (m *Model) Refresh(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	data, err := m.store.Load(ctx, m.cfg.StateKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		m.log.Debug("No saved data yet")
		return nil
	case errors.Is(err, store.ErrCorrupt):
		m.log.Warnf("Saved data could not be opened, starting empty: %v", err)
		return nil
	case err != nil:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	s, err := DecodeState(data)
	if err != nil {
		m.log.Warnf("Saved data is malformed, starting empty: %v", err)
		return nil
	}
	m.merge(s)
	return nil
}

func (m *Model) merge(s *State) {
	for name, hist := range s.History {
		t, ok := m.parseType(name)
		if !ok {
			continue
		}
		merged := mergeHistory(m.history[t], hist, m.cfg.HistorySize)
		m.history[t] = merged
		if _, seen := m.lastSeen[t]; !seen && len(merged) > 0 {
			m.lastSeen[t] = merged[len(merged)-1]
		}
	}
	for name, loaded := range s.Frequency {
		t, ok := m.parseType(name)
		if !ok {
			continue
		}
		freq, ok := m.frequency[t]
		if !ok {
			freq = NewCounts(0)
			m.frequency[t] = freq
		}
		freq.Merge(loaded)
		m.index.rebuild(t, freq)
	}
	m.mergeLinks(m.transitions, s.Transitions)
	m.mergeLinks(m.cross, s.CrossField)
}

func (m *Model) mergeLinks(table map[field.Type]map[string]*Counts, loaded map[string]map[string]*Counts) {
	for name, outerLoaded := range loaded {
		t, ok := m.parseType(name)
		if !ok {
			continue
		}
		outer, ok := table[t]
		if !ok {
			outer = make(map[string]*Counts)
			table[t] = outer
		}
		for from, innerLoaded := range outerLoaded {
			inner, ok := outer[from]
			if !ok {
				inner = NewCounts(m.cfg.MaxLinks)
				outer[from] = inner
			}
			inner.Merge(innerLoaded)
		}
	}
}

func (m *Model) parseType(name string) (field.Type, bool) {
	t, ok := field.Parse(name)
	if !ok {
		m.log.Warnf("Skipping saved data for unknown field type %q", name)
	}
	return t, ok
}
