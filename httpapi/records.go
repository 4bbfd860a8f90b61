package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/pageiter/errors"
	"github.com/kbukum/pageiter/iterator"
	"github.com/kbukum/pageiter/logger"
	"github.com/kbukum/pageiter/query"
	"github.com/kbukum/pageiter/server"
)

// ContentTypeNDJSON is the media type of record exports.
const ContentTypeNDJSON = "application/x-ndjson"

// TotalCountHeader carries the number of records an export will contain.
const TotalCountHeader = "X-Total-Count"

// Options tunes the record endpoints.
type Options struct {
	// AllowedFields lists the fields clients may filter on. Empty allows any
	// identifier.
	AllowedFields []string
	// MaxLimit caps the limit parameter. Zero leaves exports unbounded.
	MaxLimit int
	// MaxBatchSize caps the batch_size parameter. Zero means no cap.
	MaxBatchSize int
	Logger       *logger.Logger
}

type records[T any] struct {
	items *iterator.Factory[T]
	opts  Options
	log   *logger.Logger
}

// Register adds GET /records and GET /records/count to r.
//
// GET /records streams the matching records as newline-delimited JSON, one
// record per line, fetching pages as the client reads. Query parameters:
// skip, limit, batch_size, order ("name,-id"), filter ("status=eq.active")
// and any allowed field ("status=eq.active"). A failure after the first
// line ends the stream with an {"error": ...} line.
func Register[T any](r gin.IRouter, items *iterator.Factory[T], opts Options) {
	log := opts.Logger
	if log == nil {
		log = logger.Get("httpapi")
	}
	h := &records[T]{items: items, opts: opts, log: log}
	r.GET("/records", h.export)
	r.GET("/records/count", h.count)
}

func (h *records[T]) export(c *gin.Context) {
	q, iterOpts, err := h.parse(c.Request.URL.Query())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	it, err := h.items.Iterate(q, iterOpts...)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	defer it.Close()

	ctx := logger.ContextWithRunID(c.Request.Context(), uuid.NewString())
	if err := it.Initialize(ctx); err != nil {
		server.RespondWithError(c, err)
		return
	}

	status := it.Status()
	c.Header("Content-Type", ContentTypeNDJSON)
	c.Header(TotalCountHeader, strconv.Itoa(status.ItemsTotal))
	c.Status(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	lastPage := status.ItemsTo
	for rec, err := range it.All(ctx) {
		if err != nil {
			h.log.WithContext(ctx).WithError(err).Warn("export aborted", logger.Fields(
				logger.FieldCurrentItem, it.Status().CurrentItem,
			))
			_ = enc.Encode(errors.FromError(err).ToResponse())
			break
		}
		// Flush once per fetched page.
		if st := it.Status(); st.ItemsTo != lastPage {
			c.Writer.Flush()
			lastPage = st.ItemsTo
		}
		if err := enc.Encode(rec); err != nil {
			h.log.WithContext(ctx).WithError(err).Debug("client went away")
			return
		}
	}
	c.Writer.Flush()
}

func (h *records[T]) count(c *gin.Context) {
	values := c.Request.URL.Query()
	n, err := h.items.Count(c.Request.Context(), query.ParseFromValues(values, h.opts.AllowedFields))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *records[T]) parse(values url.Values) (query.Query, []iterator.Option, error) {
	q := query.Query{
		Where: query.ParseFromValues(values, h.opts.AllowedFields),
		Order: query.ParseOrder(values.Get("order")),
	}
	var err error
	if q.Skip, err = intParam(values, "skip"); err != nil {
		return q, nil, err
	}
	if q.Limit, err = intParam(values, "limit"); err != nil {
		return q, nil, err
	}
	if ceiling := h.opts.MaxLimit; ceiling > 0 && (q.Limit == 0 || q.Limit > ceiling) {
		q.Limit = ceiling
	}

	var opts []iterator.Option
	batch, err := intParam(values, "batch_size")
	if err != nil {
		return q, nil, err
	}
	if batch != 0 {
		if ceiling := h.opts.MaxBatchSize; ceiling > 0 && batch > ceiling {
			return q, nil, errors.InvalidInput("batch_size", "must be at most "+strconv.Itoa(ceiling))
		}
		opts = append(opts, iterator.WithBatchSize(batch))
	}
	return q, opts, nil
}

func intParam(values url.Values, name string) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.InvalidInput(name, "must be an integer")
	}
	return n, nil
}
