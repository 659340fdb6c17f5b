// Package store persists serialized gold values between runs.
//
// A [SQLite] store implements [lang.Store] on an embedded sqlite database so
// that the results of expensive imports survive process restarts. Entries are
// keyed by a content fingerprint computed by [lang.CachedResolver]; stale
// entries are never read again and are removed by [SQLite.Prune].
package store
