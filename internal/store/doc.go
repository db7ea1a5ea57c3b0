// Package store persists herald's guild configuration: the channels chosen
// by the setup wizard, approved streamer-announcement entries, and the
// resolution state of approval records.
//
// The store is the only mutable shared resource in the system. Every write
// happens at a workflow's terminal step, is keyed by guild plus a logical
// setting name, and is a single idempotent upsert; terminal steps of
// different workflows write disjoint keys, so no locking beyond the
// backend's own is needed.
//
// Two backends are provided, selected by configuration: SQLite
// (modernc.org/sqlite, WAL mode, schema auto-created) and Redis
// (go-redis, JSON values under guild-scoped keys). MockStore backs
// workflow tests and can inject write failures.
package store
