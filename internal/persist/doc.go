// Package persist provides durable storage of service records for recovery
// across process restarts.
//
// Records are a projection of service instances, not a source of truth: a
// persisted record may describe a container that was deleted out-of-band, and
// the discovery reconciler resolves that staleness at use time. Persistence
// failures are therefore logged and swallowed by callers rather than failing
// provisioning; the runtime remains ground truth for existence. This is a
// deliberate trade-off: coupling the record write transactionally to the
// container lifecycle would change recovery semantics.
//
// Two implementations exist: PostgresStore over a relational table (pgx) and
// FileStore over per-record YAML files for nodes without a database.
package persist
