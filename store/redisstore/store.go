package redisstore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"slices"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/pageiter/errors"
	"github.com/kbukum/pageiter/observability"
	"github.com/kbukum/pageiter/query"
	"github.com/kbukum/pageiter/redis"
)

// scanBatch is the number of documents loaded per round trip when a query
// needs every document.
const scanBatch = 500

// Store keeps JSON documents of type T under a key prefix. The sorted set
// "<prefix>:index" orders document ids by insertion; the hash
// "<prefix>:docs" maps ids to documents.
//
// Unfiltered, unordered windows are served with one ZRANGE. Filtered or
// ordered queries load the documents in batches and filter them in process.
type Store[T any] struct {
	client *redis.Client
	rdb    *goredis.Client
	prefix string
}

// New returns a store using keys under prefix.
func New[T any](client *redis.Client, prefix string) *Store[T] {
	return &Store[T]{client: client, rdb: client.Unwrap(), prefix: prefix}
}

func (s *Store[T]) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + ":" + name
}

// Insert appends records. Each record gets the next id from "<prefix>:seq".
func (s *Store[T]) Insert(ctx context.Context, records ...T) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([][]byte, len(records))
	for i, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return errors.InvalidInput("record", err.Error())
		}
		docs[i] = b
	}

	last, err := s.rdb.IncrBy(ctx, s.key("seq"), int64(len(records))).Result()
	if err != nil {
		return storeError("insert", err)
	}
	first := last - int64(len(records)) + 1

	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		for i, doc := range docs {
			id := first + int64(i)
			member := strconv.FormatInt(id, 10)
			p.HSet(ctx, s.key("docs"), member, doc)
			p.ZAdd(ctx, s.key("index"), goredis.Z{Score: float64(id), Member: member})
		}
		return nil
	})
	if err != nil {
		return storeError("insert", err)
	}
	return nil
}

// Count returns the number of documents matching where.
func (s *Store[T]) Count(ctx context.Context, where query.Filter) (int, error) {
	if where.IsEmpty() {
		n, err := s.rdb.ZCard(ctx, s.key("index")).Result()
		if err != nil {
			return 0, storeError("count", err)
		}
		return int(n), nil
	}

	n := 0
	err := s.scan(ctx, func(_ []byte, fields map[string]any) {
		if where.Match(fields) {
			n++
		}
	})
	if err != nil {
		return 0, storeError("count", err)
	}
	return n, nil
}

// Find returns the documents of q's window.
func (s *Store[T]) Find(ctx context.Context, q query.Query) ([]T, error) {
	if q.Where.IsEmpty() && len(q.Order) == 0 {
		stop := int64(-1)
		if q.Limit > 0 {
			stop = int64(q.Skip + q.Limit - 1)
		}
		ids, err := s.rdb.ZRange(ctx, s.key("index"), int64(q.Skip), stop).Result()
		if err != nil {
			return nil, storeError("find", err)
		}
		docs, err := s.load(ctx, ids)
		if err != nil {
			return nil, storeError("find", err)
		}
		return decodeAll[T](docs)
	}

	type match struct {
		doc    []byte
		fields map[string]any
	}
	var matches []match
	err := s.scan(ctx, func(doc []byte, fields map[string]any) {
		if q.Where.Match(fields) {
			matches = append(matches, match{doc: doc, fields: fields})
		}
	})
	if err != nil {
		return nil, storeError("find", err)
	}
	if sorts := q.Sorts(); len(sorts) > 0 {
		slices.SortStableFunc(matches, func(a, b match) int {
			return query.CompareRecords(a.fields, b.fields, sorts)
		})
	}

	if q.Skip >= len(matches) {
		return []T{}, nil
	}
	matches = matches[q.Skip:]
	if q.Limit > 0 && q.Limit < len(matches) {
		matches = matches[:q.Limit]
	}
	docs := make([][]byte, len(matches))
	for i, m := range matches {
		docs[i] = m.doc
	}
	return decodeAll[T](docs)
}

// CheckHealth pings the server.
func (s *Store[T]) CheckHealth(ctx context.Context) observability.Health {
	return s.client.CheckHealth(ctx)
}

// scan walks every document in index order.
func (s *Store[T]) scan(ctx context.Context, fn func(doc []byte, fields map[string]any)) error {
	for start := int64(0); ; start += scanBatch {
		ids, err := s.rdb.ZRange(ctx, s.key("index"), start, start+scanBatch-1).Result()
		if err != nil {
			return err
		}
		docs, err := s.load(ctx, ids)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			var fields map[string]any
			if err := json.Unmarshal(doc, &fields); err != nil {
				return err
			}
			fn(doc, fields)
		}
		if len(ids) < scanBatch {
			return nil
		}
	}
}

// load fetches documents by id, skipping ids whose document is gone.
func (s *Store[T]) load(ctx context.Context, ids []string) ([][]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	vals, err := s.rdb.HMGet(ctx, s.key("docs"), ids...).Result()
	if err != nil {
		return nil, err
	}
	docs := make([][]byte, 0, len(vals))
	for _, v := range vals {
		if str, ok := v.(string); ok {
			docs = append(docs, []byte(str))
		}
	}
	return docs, nil
}

func decodeAll[T any](docs [][]byte) ([]T, error) {
	out := make([]T, len(docs))
	for i, doc := range docs {
		if err := json.Unmarshal(doc, &out[i]); err != nil {
			return nil, storeError("find", err)
		}
	}
	return out, nil
}

func storeError(op string, err error) error {
	if errors.HasCode(err, errors.ErrCodeStore) {
		return err
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Canceled(err).WithDetail("operation", op)
	}
	return errors.StoreError(op, err)
}
