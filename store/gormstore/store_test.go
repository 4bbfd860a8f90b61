package gormstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/kbukum/pageiter/database"
	"github.com/kbukum/pageiter/errors"
	"github.com/kbukum/pageiter/iterator"
	"github.com/kbukum/pageiter/logger"
	"github.com/kbukum/pageiter/observability"
	"github.com/kbukum/pageiter/query"
)

type item struct {
	database.BaseModel
	Name   string `json:"name"`
	Status string `gorm:"index" json:"status"`
}

var _ iterator.Store[item] = (*Store[item])(nil)

func newStore(t *testing.T, n int) (*Store[item], *database.DB) {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}, logger.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s := New[item](db)
	if err := s.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	records := make([]item, 0, n)
	for i := 1; i <= n; i++ {
		status := "disabled"
		if i%2 == 1 {
			status = "active"
		}
		records = append(records, item{Name: fmt.Sprintf("Item%d", i), Status: status})
	}
	if err := s.Insert(context.Background(), records); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return s, db
}

func TestCountAndFind(t *testing.T) {
	s, _ := newStore(t, 100)
	ctx := context.Background()
	active := query.ParseFilter("status=eq.active")

	n, err := s.Count(ctx, active)
	if err != nil || n != 50 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	page, err := s.Find(ctx, query.Query{Where: active, Skip: 2, Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 3 || page[0].Name != "Item5" || page[2].Name != "Item9" {
		t.Errorf("page = %+v", page)
	}

	page, err = s.Find(ctx, query.Query{Order: []string{"-id"}, Limit: 1})
	if err != nil || len(page) != 1 || page[0].ID != 100 {
		t.Errorf("descending page = %+v, %v", page, err)
	}

	page, err = s.Find(ctx, query.Query{Skip: 500, Limit: 10})
	if err != nil || len(page) != 0 {
		t.Errorf("past the end = %+v, %v", page, err)
	}
}

func TestErrorsMapToStoreError(t *testing.T) {
	s, _ := newStore(t, 3)
	ctx := context.Background()

	_, err := s.Count(ctx, query.ParseFilter("colour=eq.red"))
	if !errors.IsStoreError(err) {
		t.Fatalf("Count on a missing column = %v, want STORE_ERROR", err)
	}
	if errors.IsRetryable(err) {
		t.Error("a bad column should not be retryable")
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := s.Find(canceled, query.Query{}); !errors.HasCode(err, errors.ErrCodeCanceled) {
		t.Errorf("Find with canceled ctx = %v, want CANCELED", err)
	}
}

func TestIteratorOverSQLite(t *testing.T) {
	s, _ := newStore(t, 100)
	ctx := context.Background()

	var seqs []int
	err := iterator.ForEachAsync(ctx, s, query.Query{Where: query.ParseFilter("status=eq.active")},
		func(_ context.Context, task iterator.Task[item]) error {
			if task.Item.Status != "active" {
				return stderrors.New("inactive record " + task.Item.Name)
			}
			seqs = append(seqs, task.Status.CurrentItem)
			return nil
		},
		iterator.WithLogger(logger.Nop()), iterator.WithBatchSize(12), iterator.WithConcurrentItems(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(seqs) != 50 || seqs[0] != 1 || seqs[49] != 50 {
		t.Errorf("sequence = %v", seqs)
	}
}

func TestCheckHealth(t *testing.T) {
	s, db := newStore(t, 1)
	if h := s.CheckHealth(context.Background()); h.Status != observability.HealthStatusUp {
		t.Errorf("health = %+v", h)
	}
	_ = db.Close()
	if h := s.CheckHealth(context.Background()); h.Status != observability.HealthStatusDown {
		t.Errorf("health after close = %+v", h)
	}
}
