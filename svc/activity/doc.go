// Package activity is the append-only audit trail of agency actions.
//
// Events are keyed by the agency tenant and listed in insertion order.
// MemoryStorage serves tests and single-process runs; PostgresStorage keeps
// events in activity_events, created by the goose migrations in Migrations.
package activity
