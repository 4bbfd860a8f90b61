// Package redisstore serves iterator pages from JSON documents kept in
// Redis, ordered by insertion.
package redisstore
