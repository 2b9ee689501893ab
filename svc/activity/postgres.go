package activity

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Migrations holds the goose migrations for the activity table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// DB is the subset of *pgxpool.Pool the storage uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStorage stores events in the activity_events table.
type PostgresStorage struct {
	db DB
}

func NewPostgresStorage(db DB) *PostgresStorage {
	if db == nil {
		panic("activity: db is required")
	}
	return &PostgresStorage{db: db}
}

const insertEvent = `
INSERT INTO activity_events (id, agency_tenant_id, type, subject_tenant_id, actor_id, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (s *PostgresStorage) Append(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("activity: encode payload: %w", err)
	}
	if _, err := s.db.Exec(ctx, insertEvent,
		e.ID, e.AgencyTenantID, string(e.Type), e.SubjectTenantID, e.ActorID, payload, e.CreatedAt,
	); err != nil {
		return fmt.Errorf("activity: insert event: %w", err)
	}
	return nil
}

const listEvents = `
SELECT id, agency_tenant_id, type, subject_tenant_id, actor_id, payload, created_at
FROM (
	SELECT * FROM activity_events
	WHERE agency_tenant_id = $1
	ORDER BY seq DESC
	LIMIT $2
) recent
ORDER BY seq ASC`

func (s *PostgresStorage) List(ctx context.Context, agencyTenantID string, limit int) ([]Event, error) {
	rows, err := s.db.Query(ctx, listEvents, agencyTenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("activity: list events: %w", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
		var (
			e       Event
			typ     string
			payload []byte
		)
		if err := row.Scan(&e.ID, &e.AgencyTenantID, &typ, &e.SubjectTenantID, &e.ActorID, &payload, &e.CreatedAt); err != nil {
			return Event{}, err
		}
		e.Type = EventType(typ)
		if len(payload) > 0 && string(payload) != "null" {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return Event{}, err
			}
		}
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("activity: scan events: %w", err)
	}
	return events, nil
}
