// Package sqlite provides SQLite-backed session and report repositories.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Both repositories share a single database
// connection:
//
//   - SessionStore: conversation sessions and the current-session pointer
//   - ReportStore: analysis reports, upserted per (cve_id, session_id)
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.cvescope/data/cvescope.db
//
// # Thread Safety
//
// All operations are thread-safe. Read-modify-write cycles are serialised inside
// the process; other processes are handled by SQLite in WAL mode with a busy timeout.
package sqlite
