// Package database opens the monitor's SQLite file and applies the embedded
// migrations from the top-level migrations package.
//
// The database holds a single kv_store table backing the cache that survives
// restarts: the last known device list and the selected device. WAL mode is
// enabled by default so the store can be read while a mirror write is in
// flight.
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
