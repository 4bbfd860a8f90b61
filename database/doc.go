// Package database opens GORM connections with retry, pool settings and
// logging routed through the logger package.
//
//	db, err := database.Open(ctx, database.Config{DSN: "items.db"}, log)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
// FromDatabase maps driver errors onto the error codes callers of a store
// expect: CANCELED for context errors and STORE_ERROR for the rest.
package database
