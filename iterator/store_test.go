package iterator

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/pageiter/query"
)

type record struct {
	ID     int
	Name   string
	Status string
}

func (r record) fields() map[string]any {
	return map[string]any{"id": r.ID, "name": r.Name, "status": r.Status}
}

// fakeStore serves records from a slice. The hooks, when set, run before the
// real call and fail it when they return an error.
type fakeStore struct {
	mu      sync.Mutex
	records []record
	finds   []query.Query
	counts  int

	countHook func(call int) error
	findHook  func(call int, q query.Query) error
}

// newScenarioStore holds Item1..Item100; odd ids are active.
func newScenarioStore() *fakeStore {
	s := &fakeStore{}
	for i := 1; i <= 100; i++ {
		status := "disabled"
		if i%2 == 1 {
			status = "active"
		}
		s.records = append(s.records, record{ID: i, Name: fmt.Sprintf("Item%d", i), Status: status})
	}
	return s
}

func (s *fakeStore) Count(ctx context.Context, where query.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts++
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.countHook != nil {
		if err := s.countHook(s.counts); err != nil {
			return 0, err
		}
	}
	return len(s.match(where)), nil
}

func (s *fakeStore) Find(ctx context.Context, q query.Query) ([]record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds = append(s.finds, q)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.findHook != nil {
		if err := s.findHook(len(s.finds), q); err != nil {
			return nil, err
		}
	}
	all := s.match(q.Where)
	if q.Skip >= len(all) {
		return nil, nil
	}
	end := len(all)
	if q.Limit > 0 {
		end = min(end, q.Skip+q.Limit)
	}
	return append([]record(nil), all[q.Skip:end]...), nil
}

func (s *fakeStore) match(where query.Filter) []record {
	var out []record
	for _, r := range s.records {
		if where.Match(r.fields()) {
			out = append(out, r)
		}
	}
	return out
}

func (s *fakeStore) findCalls() []query.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]query.Query(nil), s.finds...)
}

func (s *fakeStore) truncate(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:n]
}
