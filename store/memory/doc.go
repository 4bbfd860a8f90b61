// Package memory is an in-process record store for tests and small data
// sets. Filters are evaluated with query.Filter.Match over each record's
// exported fields.
package memory
