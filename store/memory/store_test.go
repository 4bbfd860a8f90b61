package memory

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/pageiter/errors"
	"github.com/kbukum/pageiter/iterator"
	"github.com/kbukum/pageiter/logger"
	"github.com/kbukum/pageiter/query"
)

type base struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type item struct {
	base
	Name     string `json:"name"`
	Status   string `json:"status"`
	Priority int
	secret   string
	Ignored  string `json:"-"`
}

var _ iterator.Store[item] = (*Store[item])(nil)

func scenario(n int) *Store[item] {
	s := New[item]()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		status := "disabled"
		if i%2 == 1 {
			status = "active"
		}
		s.Insert(item{
			base:     base{ID: i, CreatedAt: start.Add(time.Duration(i) * time.Minute)},
			Name:     fmt.Sprintf("Item%d", i),
			Status:   status,
			Priority: i % 5,
		})
	}
	return s
}

func TestFields(t *testing.T) {
	f := Fields(&item{base: base{ID: 7}, Name: "x", secret: "s", Ignored: "i"})
	if f["id"] != 7 || f["name"] != "x" || f["Priority"] != 0 {
		t.Errorf("unexpected fields %v", f)
	}
	if _, ok := f["created_at"].(time.Time); !ok {
		t.Errorf("time should be kept as time.Time, got %T", f["created_at"])
	}
	for _, k := range []string{"secret", "Ignored", "base"} {
		if _, ok := f[k]; ok {
			t.Errorf("field %q should not be present", k)
		}
	}
	if len(Fields(42)) != 0 {
		t.Error("non-struct should yield no fields")
	}
}

type Audit struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

type document struct {
	*Audit
	base
	Name string `json:"name"`
}

func TestFieldsPromotion(t *testing.T) {
	f := Fields(document{Audit: &Audit{Owner: "ops", Name: "audit"}, base: base{ID: 3}, Name: "doc"})
	if f["owner"] != "ops" {
		t.Errorf("expected owner promoted from pointer embedding, got %v", f)
	}
	if f["id"] != 3 {
		t.Errorf("expected id promoted from unexported embedding, got %v", f)
	}
	if f["name"] != "doc" {
		t.Errorf("parent field should win over promoted one, got %v", f["name"])
	}

	f = Fields(document{base: base{ID: 4}})
	if _, ok := f["owner"]; ok || f["id"] != 4 {
		t.Errorf("nil pointer embedding should contribute nothing, got %v", f)
	}
}

func TestCount(t *testing.T) {
	s := scenario(100)
	ctx := context.Background()
	tests := []struct {
		filter string
		want   int
	}{
		{"", 100},
		{"status=eq.active", 50},
		{"status=eq.active&priority=eq.0", 10},
		{"id=lte.10", 10},
		{"created_at=gt.2024-01-01T01:00:00Z", 40},
		{"name=like.Item1", 12},
	}
	for _, tc := range tests {
		n, err := s.Count(ctx, query.ParseFilter(tc.filter))
		if err != nil {
			t.Fatal(err)
		}
		if n != tc.want {
			t.Errorf("Count(%q) = %d, want %d", tc.filter, n, tc.want)
		}
	}
}

func TestFindWindowAndOrder(t *testing.T) {
	s := scenario(100)
	ctx := context.Background()

	got, err := s.Find(ctx, query.Query{Where: query.ParseFilter("status=eq.active"), Skip: 2, Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].Name != "Item5" || got[2].Name != "Item9" {
		t.Errorf("window = %+v", got)
	}

	got, _ = s.Find(ctx, query.Query{Order: []string{"-id"}, Limit: 2})
	if len(got) != 2 || got[0].ID != 100 || got[1].ID != 99 {
		t.Errorf("descending = %+v", got)
	}

	got, _ = s.Find(ctx, query.Query{Skip: 200})
	if got == nil || len(got) != 0 {
		t.Errorf("past the end should be an empty page, got %v", got)
	}
}

func TestFailNext(t *testing.T) {
	s := scenario(100)
	ctx := context.Background()
	s.FailNext("find", stderrors.New("boom"))

	if _, err := s.Find(ctx, query.Query{}); !errors.IsStoreError(err) {
		t.Errorf("first Find error = %v, want STORE_ERROR", err)
	}
	if _, err := s.Find(ctx, query.Query{}); err != nil {
		t.Errorf("second Find error = %v", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := s.Count(canceled, nil); !errors.HasCode(err, errors.ErrCodeCanceled) {
		t.Errorf("Count error = %v, want CANCELED", err)
	}
}

func TestIteratorScenario(t *testing.T) {
	s := scenario(100)
	ctx := context.Background()
	active := query.ParseFilter("status=eq.active")

	it, err := iterator.New[item](s, query.Query{Where: active}, iterator.WithLogger(logger.Nop()), iterator.WithBatchSize(8))
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for rec, err := range it.All(ctx) {
		if err != nil {
			t.Fatal(err)
		}
		if rec.Status != "active" {
			t.Errorf("got %s with status %s", rec.Name, rec.Status)
		}
		n++
	}
	if n != 50 {
		t.Errorf("iterated %d, want 50", n)
	}

	it, _ = iterator.New[item](s, query.Query{Skip: 2}, iterator.WithLogger(logger.Nop()))
	first, ok, err := it.Next(ctx)
	if err != nil || !ok || first.Name != "Item3" || it.Status().ItemsFrom != 2 {
		t.Errorf("skip 2: %+v %v %v status %+v", first, ok, err, it.Status())
	}

	var processed atomic.Int32
	err = iterator.ForEachAsync(ctx, s, query.Query{Where: active, Limit: 2},
		func(context.Context, iterator.Task[item]) error {
			processed.Add(1)
			return nil
		}, iterator.WithLogger(logger.Nop()))
	if err != nil || processed.Load() != 2 {
		t.Errorf("limit 2 processed %d, err %v", processed.Load(), err)
	}
}

func TestFiftyRecordScenario(t *testing.T) {
	s := scenario(50)
	ctx := context.Background()
	quiet := iterator.WithLogger(logger.Nop())

	it, err := iterator.New[item](s, query.Query{Where: query.ParseFilter("status=eq.active")}, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if err := it.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if got := it.Status().ItemsTotal; got != 25 {
		t.Errorf("ItemsTotal = %d, want 25", got)
	}

	it, _ = iterator.New[item](s, query.Query{Limit: 2}, quiet)
	for _, want := range []string{"Item1", "Item2"} {
		rec, ok, err := it.Next(ctx)
		if err != nil || !ok || rec.Name != want {
			t.Fatalf("Next = %+v %v %v, want %s", rec, ok, err, want)
		}
	}
	if _, ok, err := it.Next(ctx); ok || err != nil {
		t.Errorf("third Next = %v %v, want end of sequence", ok, err)
	}

	it, _ = iterator.New[item](s, query.Query{Skip: 2}, quiet)
	rec, ok, err := it.Next(ctx)
	if err != nil || !ok || rec.Name != "Item3" {
		t.Fatalf("skip 2: Next = %+v %v %v", rec, ok, err)
	}
	if got := it.Status().ItemsFrom; got != 2 {
		t.Errorf("ItemsFrom = %d, want 2", got)
	}
}

func TestIteratorRetriesInjectedFailure(t *testing.T) {
	s := scenario(100)
	s.FailNext("count", stderrors.New("flaky"))

	f := iterator.NewFactory[item](s, iterator.WithLogger(logger.Nop()))
	n, err := f.Count(context.Background(), nil)
	if !errors.IsStoreError(err) || n != 0 {
		t.Fatalf("Count = %d, %v; want STORE_ERROR", n, err)
	}
	n, err = f.Count(context.Background(), nil)
	if err != nil || n != 100 {
		t.Errorf("Count after failure = %d, %v", n, err)
	}
}
