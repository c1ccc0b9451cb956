package storage

import (
	"context"
	"testing"
	"time"

	"github.com/azure/discussion-insights/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *LocalStorage {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	require.NoError(t, s.Store(ctx, "results/a.json", []byte(`{"a":1}`)))
	require.NoError(t, s.Store(ctx, "results/b.json", []byte(`{"b":2}`)))
	require.NoError(t, s.Store(ctx, "other.txt", []byte("x")))

	data, err := s.Retrieve(ctx, "results/a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	names, err := s.List(ctx, "results/")
	require.NoError(t, err)
	assert.Equal(t, []string{"results/a.json", "results/b.json"}, names)

	require.NoError(t, s.Delete(ctx, "results/a.json"))
	_, err = s.Retrieve(ctx, "results/a.json")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "results/a.json"), ErrNotFound)
}

func TestLocalStorage_RejectsEscapingNames(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	tests := []string{"../outside.json", "/etc/passwd", "", "results/../../x"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.Store(ctx, name, []byte("x")))
		})
	}
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newLocal(t)
	assert.ErrorIs(t, s.Store(ctx, "a", nil), context.Canceled)
	_, err := s.List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResultName(t *testing.T) {
	ts := time.Date(2024, 6, 2, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{name: "Simple query", query: "OpenAI", expected: "results/2024-06-02-15-04-05-openai.json"},
		{name: "Punctuation collapses", query: "  Elon Musk & Tesla!! ", expected: "results/2024-06-02-15-04-05-elon-musk-tesla.json"},
		{name: "Empty query", query: "", expected: "results/2024-06-02-15-04-05-all.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResultName(tt.query, ts))
		})
	}
}

func TestResultStore(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore(newLocal(t))

	older := &models.ConsolidatedResult{Query: "go", GeneratedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &models.ConsolidatedResult{
		Query:       "go",
		GeneratedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Summary:     models.EntitySummary{TotalEntities: 3},
	}

	_, err := store.Save(ctx, older)
	require.NoError(t, err)
	name, err := store.Save(ctx, newer)
	require.NoError(t, err)

	names, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, names, 2)
	assert.Equal(t, name, names[0])

	loaded, err := store.Load(ctx, name[len(ResultsPrefix):])
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Summary.TotalEntities)
	assert.True(t, newer.GeneratedAt.Equal(loaded.GeneratedAt))

	_, err = store.Load(ctx, "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}
