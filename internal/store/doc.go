// Package store persists the article dedup ledger and the resource lifecycle
// table in SQLite. The store is the single source of truth for file state;
// the working directory is a cache that the reconciler folds back into it.
package store
