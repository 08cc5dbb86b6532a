package persist

import (
	"context"
	"fmt"

	"dockhand/pkg/logging"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSubsystem = "Persistence"

const servicesSchema = `
CREATE TABLE IF NOT EXISTS services (
	service_id        TEXT PRIMARY KEY,
	kind              TEXT NOT NULL,
	name              TEXT NOT NULL,
	resource_identity TEXT NOT NULL,
	owner             TEXT NOT NULL DEFAULT '',
	node_id           TEXT NOT NULL DEFAULT '',
	endpoint          TEXT NOT NULL DEFAULT '',
	ports             TEXT NOT NULL DEFAULT '',
	created_at        BIGINT NOT NULL,
	config            TEXT NOT NULL DEFAULT ''
)`

// PostgresStore persists service records in a relational table via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the given DSN and ensures the services table
// exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	if _, err := pool.Exec(ctx, servicesSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure services table: %w", err)
	}

	logging.Debug(postgresSubsystem, "Connected to postgres record store")
	return &PostgresStore{pool: pool}, nil
}

// Upsert inserts or replaces the record keyed by service_id.
func (s *PostgresStore) Upsert(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO services (service_id, kind, name, resource_identity, owner, node_id, endpoint, ports, created_at, config)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (service_id) DO UPDATE SET
			kind = EXCLUDED.kind,
			name = EXCLUDED.name,
			resource_identity = EXCLUDED.resource_identity,
			owner = EXCLUDED.owner,
			node_id = EXCLUDED.node_id,
			endpoint = EXCLUDED.endpoint,
			ports = EXCLUDED.ports,
			created_at = EXCLUDED.created_at,
			config = EXCLUDED.config`,
		rec.ServiceID, rec.Kind, rec.Name, rec.ResourceIdentity, rec.Owner,
		rec.NodeID, rec.Endpoint, rec.Ports, rec.CreatedAt, rec.Config)
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", rec.ServiceID, err)
	}
	return nil
}

// LoadAll returns every persisted record.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT service_id, kind, name, resource_identity, owner, node_id, endpoint, ports, created_at, config
		FROM services`)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ServiceID, &rec.Kind, &rec.Name, &rec.ResourceIdentity,
			&rec.Owner, &rec.NodeID, &rec.Endpoint, &rec.Ports, &rec.CreatedAt, &rec.Config); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, nil
}

// Delete removes the record with the given service id.
func (s *PostgresStore) Delete(ctx context.Context, serviceID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM services WHERE service_id = $1`, serviceID); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", serviceID, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
