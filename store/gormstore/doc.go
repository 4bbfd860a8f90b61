// Package gormstore serves iterator pages from a SQL table through GORM.
// Filters become WHERE clauses, the window becomes OFFSET and LIMIT, and
// driver errors map to STORE_ERROR.
package gormstore
