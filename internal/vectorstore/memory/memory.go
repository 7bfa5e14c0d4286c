package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"studyrag/internal/domain"
)

// Store is an in-process vector store using brute-force cosine similarity.
// It implements the same contract as the remote gateway and is used for
// offline development and tests.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	schema domain.Schema
	points map[uint64]domain.Point
}

func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) CollectionExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

func (s *Store) CreateCollection(_ context.Context, schema domain.Schema) error {
	if schema.VectorSize <= 0 {
		return errors.New("invalid vector size")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[schema.Collection]; ok {
		return fmt.Errorf("collection %s already exists", schema.Collection)
	}
	s.collections[schema.Collection] = &collection{schema: schema, points: make(map[uint64]domain.Point)}
	return nil
}

func (s *Store) Upsert(_ context.Context, name string, point domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[name]
	if !ok {
		return &domain.GatewayError{Op: "upsert", Status: 404, Body: "collection not found"}
	}
	if len(point.Vector) != col.schema.VectorSize {
		return errors.New("vector dimension mismatch")
	}
	col.points[point.ID] = point
	return nil
}

func (s *Store) Search(_ context.Context, name string, vector []float64, limit int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[name]
	if !ok {
		return nil, &domain.GatewayError{Op: "search", Status: 404, Body: "collection not found"}
	}
	if limit <= 0 {
		limit = 5
	}
	results := make([]domain.SearchResult, 0, len(col.points))
	for _, p := range col.points {
		results = append(results, domain.SearchResult{Score: cosine(p.Vector, vector), Payload: p.Payload})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

func (s *Store) EnsureAndUpsert(ctx context.Context, schema domain.Schema, point domain.Point) error {
	exists, err := s.CollectionExists(ctx, schema.Collection)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.CreateCollection(ctx, schema); err != nil {
			return err
		}
	}
	return s.Upsert(ctx, schema.Collection, point)
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
