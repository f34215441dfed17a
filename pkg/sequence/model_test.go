package sequence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bastiangx/fillserve/pkg/field"
	"github.com/bastiangx/fillserve/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noRelated = map[field.Type]string{}

type failingStore struct {
	*store.Memory
	err error
}

func (f *failingStore) Save(context.Context, string, []byte) error {
	return f.err
}

func newTestModel(t *testing.T) (*Model, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return NewModel(st, DefaultConfig()), st
}

// tableSizes captures everything Observe may touch, minus session counters
func tableSizes(m *Model) map[string]int {
	s := m.Stats()
	delete(s, "accepted")
	delete(s, "rejected")
	return s
}

func TestObserveRejectsShortValues(t *testing.T) {
	m, st := newTestModel(t)
	ctx := context.Background()
	before := tableSizes(m)

	for _, v := range []string{"", "a", "ab", "ab ", "  ab  ", "ąę"} {
		ok, err := m.Observe(ctx, field.Username, v, noRelated)
		require.NoError(t, err)
		assert.False(t, ok, "value %q", v)
	}
	assert.Equal(t, before, tableSizes(m))
	assert.Empty(t, st.Keys(), "nothing is persisted for rejected values")

	ok, err := m.Observe(ctx, field.Username, "abc", noRelated)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestObserveRejectsInvalidValues(t *testing.T) {
	m, _ := newTestModel(t)
	ctx := context.Background()
	before := tableSizes(m)

	cases := []struct {
		t     field.Type
		value string
	}{
		{field.Email, "notanemail"},
		{field.Phone, "12345"},
		{field.Phone, "+49123456789"},
		{field.Zip, "12345"},
		{field.FirstName, "Ann4"},
		{field.City, "Warsaw1"},
		{field.Type("bogus"), "anything"},
	}
	for _, c := range cases {
		ok, err := m.Observe(ctx, c.t, c.value, map[field.Type]string{field.FirstName: "Anna"})
		require.NoError(t, err)
		assert.False(t, ok, "%s %q", c.t, c.value)
	}
	assert.Equal(t, before, tableSizes(m))
	assert.Equal(t, len(cases), m.Stats()["rejected"])
}

func TestObserveFirstPhone(t *testing.T) {
	m, _ := newTestModel(t)

	ok, err := m.Observe(context.Background(), field.Phone, "123456789", nil)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Empty(t, m.transitions[field.Phone])
	assert.Equal(t, 1, m.frequency[field.Phone].Get("123456789"))
}

func TestObserveTransitions(t *testing.T) {
	m, _ := newTestModel(t)
	ctx := context.Background()

	_, err := m.Observe(ctx, field.FirstName, "Anna", noRelated)
	require.NoError(t, err)
	_, err = m.Observe(ctx, field.FirstName, "Maria", noRelated)
	require.NoError(t, err)

	assert.Equal(t, []string{"Anna", "Maria"}, m.history[field.FirstName])
	assert.Equal(t, 1, m.transitions[field.FirstName]["Anna"].Get("Maria"))
}

func TestObserveTrimsValue(t *testing.T) {
	m, _ := newTestModel(t)
	ok, err := m.Observe(context.Background(), field.City, "  Kraków ", noRelated)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Kraków"}, m.history[field.City])
}

func TestHistoryIsBounded(t *testing.T) {
	m, _ := newTestModel(t)
	ctx := context.Background()

	var values []string
	for i := 0; i < 21; i++ {
		v := fmt.Sprintf("user%02d", i)
		values = append(values, v)
		_, err := m.Observe(ctx, field.Username, v, noRelated)
		require.NoError(t, err)
	}

	hist := m.history[field.Username]
	assert.Len(t, hist, 20)
	assert.NotContains(t, hist, values[0])
	assert.Equal(t, values[1:], hist)
}

func TestInnerMapsAreBounded(t *testing.T) {
	m, _ := newTestModel(t)
	ctx := context.Background()
	related := map[field.Type]string{field.FirstName: "Anna"}

	for i := 0; i < 25; i++ {
		_, err := m.Observe(ctx, field.Username, "anchor", noRelated)
		require.NoError(t, err)
		_, err = m.Observe(ctx, field.Username, fmt.Sprintf("next%02d", i), noRelated)
		require.NoError(t, err)
		_, err = m.Observe(ctx, field.Email, fmt.Sprintf("u%02d@x.com", i), related)
		require.NoError(t, err)
	}

	for _, outer := range m.transitions {
		for _, inner := range outer {
			assert.LessOrEqual(t, inner.Len(), 20)
		}
	}
	for _, outer := range m.cross {
		for _, inner := range outer {
			assert.LessOrEqual(t, inner.Len(), 20)
		}
	}

	anchor := m.transitions[field.Username]["anchor"]
	assert.Equal(t, 20, anchor.Len())
	assert.Equal(t, 0, anchor.Get("next00"), "oldest inserted key is evicted first")
	assert.Equal(t, 1, anchor.Get("next24"))

	cross := m.cross[field.Email]["Anna"]
	assert.Equal(t, 20, cross.Len())
	assert.Equal(t, 0, cross.Get("u04@x.com"))
	assert.Equal(t, 1, cross.Get("u05@x.com"))
}

func TestCrossFieldSuggestion(t *testing.T) {
	m, _ := newTestModel(t)
	snapshot := map[field.Type]string{field.FirstName: "Anna"}

	ok, err := m.Observe(context.Background(), field.Email, "x@y.com", snapshot)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 1, m.cross[field.Email]["Anna"].Get("x@y.com"))
	got := m.Suggest(field.Email, snapshot)
	require.NotEmpty(t, got)
	assert.Equal(t, "x@y.com", got[0])
}

func TestObserveSkipsOwnTypeAsRelated(t *testing.T) {
	m, _ := newTestModel(t)
	snapshot := map[field.Type]string{field.Email: "old@y.com", field.Phone: " "}

	_, err := m.Observe(context.Background(), field.Email, "new@y.com", snapshot)
	require.NoError(t, err)
	assert.Empty(t, m.cross[field.Email])
}

func TestObserveNilSnapshotUsesLastSeen(t *testing.T) {
	m, _ := newTestModel(t)
	ctx := context.Background()

	_, err := m.Observe(ctx, field.FirstName, "Anna", nil)
	require.NoError(t, err)
	_, err = m.Observe(ctx, field.Email, "anna@x.com", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, m.cross[field.Email]["Anna"].Get("anna@x.com"))
	assert.Equal(t, map[field.Type]string{field.FirstName: "Anna", field.Email: "anna@x.com"}, m.LastSeen())
}

func TestNilSnapshotSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	m1 := NewModel(st, DefaultConfig())
	_, err := m1.Observe(ctx, field.FirstName, "Ewa", nil)
	require.NoError(t, err)
	_, err = m1.Observe(ctx, field.FirstName, "Anna", nil)
	require.NoError(t, err)

	m2, err := Open(ctx, st, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, map[field.Type]string{field.FirstName: "Anna"}, m2.LastSeen())

	for _, m := range []*Model{m1, m2} {
		ok, err := m.Observe(ctx, field.Email, "anna@x.com", nil)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, m2.cross[field.Email]["Anna"].Get("anna@x.com"))
	assert.Equal(t, m1.cross[field.Email]["Anna"].Keys(), m2.cross[field.Email]["Anna"].Keys())
}

func TestRefreshKeepsNewerLastSeen(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	other := NewModel(st, DefaultConfig())
	_, err := other.Observe(ctx, field.City, "Gdańsk", noRelated)
	require.NoError(t, err)

	m := NewModel(store.NewMemory(), DefaultConfig())
	_, err = m.Observe(ctx, field.City, "Kraków", noRelated)
	require.NoError(t, err)
	m.store = st
	require.NoError(t, m.Refresh(ctx))
	assert.Equal(t, "Kraków", m.LastSeen()[field.City])
}

func TestSuggestRanksCrossFieldThenFrequency(t *testing.T) {
	m, _ := newTestModel(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := m.Observe(ctx, field.Email, "popular@x.com", noRelated)
		require.NoError(t, err)
	}
	_, err := m.Observe(ctx, field.Email, "second@x.com", noRelated)
	require.NoError(t, err)
	_, err = m.Observe(ctx, field.Email, "anna@x.com", map[field.Type]string{field.FirstName: "Anna"})
	require.NoError(t, err)
	_, err = m.Observe(ctx, field.Email, "work@x.com", map[field.Type]string{field.FirstName: "Anna", field.LastName: "Nowak"})
	require.NoError(t, err)

	got := m.Suggest(field.Email, map[field.Type]string{field.FirstName: "Anna", field.LastName: "Nowak"})
	assert.Equal(t, []string{"work@x.com", "anna@x.com", "popular@x.com"}, got)

	got = m.Suggest(field.Email, nil)
	assert.Equal(t, []string{"popular@x.com", "second@x.com", "anna@x.com"}, got)
}

func TestSuggestLimitAndShortfall(t *testing.T) {
	m, _ := newTestModel(t)
	ctx := context.Background()

	assert.Empty(t, m.Suggest(field.City, nil))

	for _, v := range []string{"Gdańsk", "Poznań"} {
		_, err := m.Observe(ctx, field.City, v, noRelated)
		require.NoError(t, err)
	}
	assert.Len(t, m.Suggest(field.City, nil), 2, "fewer than three only when fewer candidates exist")

	for _, v := range []string{"Łódź", "Kraków", "Opole"} {
		_, err := m.Observe(ctx, field.City, v, noRelated)
		require.NoError(t, err)
	}
	assert.Len(t, m.Suggest(field.City, nil), 3)
}

func TestAllKnownValuesIsStable(t *testing.T) {
	m, _ := newTestModel(t)
	ctx := context.Background()
	for _, v := range []string{"Anna", "Maria", "Anna"} {
		_, err := m.Observe(ctx, field.FirstName, v, noRelated)
		require.NoError(t, err)
	}

	first := m.AllKnownValues()
	second := m.AllKnownValues()
	assert.Equal(t, first, second)
	assert.Equal(t, map[field.Type][]string{field.FirstName: {"Anna", "Maria"}}, first)

	first[field.FirstName][0] = "changed"
	assert.Equal(t, "Anna", m.AllKnownValues()[field.FirstName][0])
}

func TestPredict(t *testing.T) {
	m, _ := newTestModel(t)
	ctx := context.Background()

	assert.Empty(t, m.Predict(field.FirstName))

	for _, v := range []string{"Anna", "Maria", "Anna", "Maria", "Anna"} {
		_, err := m.Observe(ctx, field.FirstName, v, noRelated)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"Maria", "Anna"}, m.Predict(field.FirstName))
}

func TestComplete(t *testing.T) {
	m, _ := newTestModel(t)
	ctx := context.Background()
	for _, v := range []string{"anna.k", "Annabel", "anna.k", "bob12"} {
		_, err := m.Observe(ctx, field.Username, v, noRelated)
		require.NoError(t, err)
	}

	want := []Completion{{Value: "anna.k", Count: 2}, {Value: "Annabel", Count: 1}}
	assert.Equal(t, want, m.Complete(field.Username, "ann", 5))
	assert.Equal(t, want, m.Complete(field.Username, "ANN", 5))
	assert.Equal(t, want[:1], m.Complete(field.Username, "ann", 1))
	assert.Empty(t, m.Complete(field.Username, "anna.k", 5), "exact match is not a completion")
	assert.Len(t, m.Complete(field.Username, "", 0), 3)
	assert.Empty(t, m.Complete(field.Email, "a", 5))
}

func TestStorageFailureKeepsMemory(t *testing.T) {
	cause := errors.New("disk full")
	m := NewModel(&failingStore{Memory: store.NewMemory(), err: cause}, DefaultConfig())

	ok, err := m.Observe(context.Background(), field.FirstName, "Anna", noRelated)
	assert.True(t, ok)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{"Anna"}, m.history[field.FirstName])
}

func TestStatePersistsAcrossModels(t *testing.T) {
	ctx := context.Background()
	sealed, err := store.NewSealed(ctx, store.NewMemory(), nil)
	require.NoError(t, err)

	m1 := NewModel(sealed, DefaultConfig())
	related := map[field.Type]string{field.FirstName: "Anna"}
	for i := 0; i < 20; i++ {
		_, err := m1.Observe(ctx, field.Email, fmt.Sprintf("u%02d@x.com", i), related)
		require.NoError(t, err)
	}

	m2, err := Open(ctx, sealed, DefaultConfig())
	require.NoError(t, err)
	assert.NotEqual(t, m1.SessionID(), m2.SessionID())
	assert.Equal(t, m1.AllKnownValues(), m2.AllKnownValues())
	assert.Equal(t, m1.Suggest(field.Email, related), m2.Suggest(field.Email, related))
	assert.Equal(t, m1.cross[field.Email]["Anna"].Keys(), m2.cross[field.Email]["Anna"].Keys())

	// the next insert evicts the same key in both
	for _, m := range []*Model{m1, m2} {
		_, err := m.Observe(ctx, field.Email, "new@x.com", related)
		require.NoError(t, err)
	}
	assert.Equal(t, m1.cross[field.Email]["Anna"].Keys(), m2.cross[field.Email]["Anna"].Keys())
	assert.Equal(t, 0, m2.cross[field.Email]["Anna"].Get("u00@x.com"))
}

func TestRefreshIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m, st := newTestModel(t)
	for _, v := range []string{"Anna", "Maria", "Anna"} {
		_, err := m.Observe(ctx, field.FirstName, v, noRelated)
		require.NoError(t, err)
	}
	knownBefore := m.AllKnownValues()
	freqBefore := m.frequency[field.FirstName].Map()
	linksBefore := m.transitions[field.FirstName]["Anna"].Map()

	require.NoError(t, m.Refresh(ctx))
	require.NoError(t, m.Refresh(ctx))

	assert.Equal(t, knownBefore, m.AllKnownValues())
	assert.Equal(t, []string{"Anna", "Maria", "Anna"}, m.history[field.FirstName])
	assert.Equal(t, freqBefore, m.frequency[field.FirstName].Map())
	assert.Equal(t, linksBefore, m.transitions[field.FirstName]["Anna"].Map())
	assert.NotEmpty(t, st.Keys())
}

func TestRefreshMergesOtherSession(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	a := NewModel(st, DefaultConfig())
	b := NewModel(st, DefaultConfig())

	_, err := a.Observe(ctx, field.City, "Gdańsk", noRelated)
	require.NoError(t, err)
	_, err = b.Observe(ctx, field.Zip, "80-001", noRelated)
	require.NoError(t, err)

	// b saved last, so a sees b's table after refreshing
	require.NoError(t, a.Refresh(ctx))
	known := a.AllKnownValues()
	assert.Equal(t, []string{"Gdańsk"}, known[field.City])
	assert.Equal(t, []string{"80-001"}, known[field.Zip])
}

func TestCorruptStateStartsEmpty(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.Save(ctx, "trainingData", []byte{0xc1, 0x00, 0xff}))

	m, err := Open(ctx, st, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, m.AllKnownValues())

	ok, err := m.Observe(ctx, field.FirstName, "Anna", noRelated)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNilStoreIsMemoryOnly(t *testing.T) {
	m := NewModel(nil, Config{})
	ok, err := m.Observe(context.Background(), field.FirstName, "Anna", noRelated)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, m.Refresh(context.Background()))
	assert.Equal(t, DefaultConfig().HistorySize, m.Config().HistorySize)
}
