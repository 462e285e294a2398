package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "sovereign/pkg/domain"
)

// PostgresStore implements Store against the audit_events table. Appends are
// idempotent on event ID via ON CONFLICT DO NOTHING.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	var details []byte
	if entry.Details != nil {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}

	query := `
		INSERT INTO audit_events (
			id, event_type, tenant_id, jurisdiction, data_classification,
			source_region, destination_region, outcome, details, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.EventID,
		entry.EventType,
		uuid.UUID(entry.TenantID),
		string(entry.Jurisdiction),
		string(entry.DataClassification),
		entry.SourceRegion,
		entry.DestinationRegion,
		string(entry.Outcome),
		details,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, event_type, tenant_id, jurisdiction, data_classification,
			   source_region, destination_region, outcome, details, created_at
		FROM audit_events
		WHERE tenant_id = $1
		  AND ($2 = '' OR jurisdiction = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(q.TenantID), string(q.Jurisdiction), limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry        Entry
			tenantID     uuid.UUID
			jurisdiction string
			class        string
			outcome      string
			details      []byte
		)
		err := rows.Scan(
			&entry.EventID,
			&entry.EventType,
			&tenantID,
			&jurisdiction,
			&class,
			&entry.SourceRegion,
			&entry.DestinationRegion,
			&outcome,
			&details,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		entry.TenantID = id.TenantID(tenantID)
		entry.Jurisdiction = id.Jurisdiction(jurisdiction)
		entry.DataClassification = id.DataClassification(class)
		entry.Outcome = Outcome(outcome)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return entries, nil
}
