// Package history keeps a SQLite ledger of classification runs.
//
// Many classify processes may record into the same database at once. Writes
// retry on SQLITE_BUSY with exponential backoff, and schema creation and
// inserts are serialized across processes by a sidecar file lock next to the
// database.
//
// The schema is versioned in a schema_version table. Opening a database with
// a different version fails with ErrSchemaMismatch; delete the file to start
// over.
package history
