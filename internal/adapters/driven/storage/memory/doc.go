// Package memory provides in-process implementations of the session and
// report repositories.
//
// The stores keep everything in maps guarded by a mutex and share the
// semantics of the file-backed stores, including UpdateMessages locking and
// current-session resolution. They back the service and CLI tests. They are
// not a storage backend: storage.backend accepts only "json" and "sqlite",
// and nothing outside tests constructs them.
package memory
