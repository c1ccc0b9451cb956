package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/azure/discussion-insights/internal/models"
)

// ResultsPrefix is the folder consolidated results are stored under
const ResultsPrefix = "results/"

// ResultStore saves and loads consolidated results as JSON objects
type ResultStore struct {
	backend StorageInterface
}

// NewResultStore wraps a storage backend
func NewResultStore(backend StorageInterface) *ResultStore {
	return &ResultStore{backend: backend}
}

// ResultName builds the object name for a result generated at t
func ResultName(query string, t time.Time) string {
	slug := slugify(query)
	if slug == "" {
		slug = "all"
	}
	return fmt.Sprintf("%s%s-%s.json", ResultsPrefix, t.UTC().Format("2006-01-02-15-04-05"), slug)
}

// Save stores the result and returns its object name
func (r *ResultStore) Save(ctx context.Context, result *models.ConsolidatedResult) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	name := ResultName(result.Query, result.GeneratedAt)
	if err := r.backend.Store(ctx, name, data); err != nil {
		return "", err
	}
	return name, nil
}

// Load reads a stored result. name may omit the results prefix.
func (r *ResultStore) Load(ctx context.Context, name string) (*models.ConsolidatedResult, error) {
	if !strings.HasPrefix(name, ResultsPrefix) {
		name = ResultsPrefix + name
	}

	data, err := r.backend.Retrieve(ctx, name)
	if err != nil {
		return nil, err
	}

	var result models.ConsolidatedResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse result %s: %w", name, err)
	}
	return &result, nil
}

// List returns stored result names, newest first
func (r *ResultStore) List(ctx context.Context) ([]string, error) {
	names, err := r.backend.List(ctx, ResultsPrefix)
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
