// Package sqlite provides a SQLite-based implementation of driven.IndexStateStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha/data/index_state.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on SQLite's WAL mode so
// the webhook server and a CLI crawl can share one file.
package sqlite
