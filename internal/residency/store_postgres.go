package residency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "sovereign/pkg/domain"
	"sovereign/pkg/platform/sentinel"
)

// PostgresStore implements RuleStore against the residency_rules table.
// Region lists are stored as text[] columns.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, rule Rule) error {
	query := `
		INSERT INTO residency_rules (
			id, tenant_id, jurisdiction, data_classification,
			allowed_regions, blocked_regions, action, priority, active,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(rule.ID),
		uuid.UUID(rule.TenantID),
		string(rule.Jurisdiction),
		string(rule.DataClassification),
		pq.Array(rule.AllowedRegions),
		pq.Array(rule.BlockedRegions),
		string(rule.Action),
		rule.Priority,
		rule.Active,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("rule %s: %w", rule.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert residency rule: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, tenantID id.TenantID, ruleID id.RuleID) (Rule, error) {
	query := `
		SELECT id, tenant_id, jurisdiction, data_classification,
			   allowed_regions, blocked_regions, action, priority, active,
			   created_at, updated_at
		FROM residency_rules
		WHERE tenant_id = $1 AND id = $2
	`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(ruleID))
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Rule{}, fmt.Errorf("rule %s: %w", ruleID, sentinel.ErrNotFound)
	}
	if err != nil {
		return Rule{}, fmt.Errorf("get residency rule: %w", err)
	}
	return rule, nil
}

func (s *PostgresStore) Update(ctx context.Context, rule Rule) error {
	query := `
		UPDATE residency_rules
		SET jurisdiction = $3, data_classification = $4,
			allowed_regions = $5, blocked_regions = $6,
			action = $7, priority = $8, active = $9, updated_at = $10
		WHERE tenant_id = $1 AND id = $2
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(rule.TenantID),
		uuid.UUID(rule.ID),
		string(rule.Jurisdiction),
		string(rule.DataClassification),
		pq.Array(rule.AllowedRegions),
		pq.Array(rule.BlockedRegions),
		string(rule.Action),
		rule.Priority,
		rule.Active,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update residency rule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update residency rule: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %s: %w", rule.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]Rule, error) {
	query := `
		SELECT id, tenant_id, jurisdiction, data_classification,
			   allowed_regions, blocked_regions, action, priority, active,
			   created_at, updated_at
		FROM residency_rules
		WHERE tenant_id = $1
		ORDER BY priority ASC, created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list residency rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan residency rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate residency rules: %w", err)
	}
	return rules, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (Rule, error) {
	var (
		rule         Rule
		ruleID       uuid.UUID
		tenantID     uuid.UUID
		jurisdiction string
		class        string
		action       string
	)
	err := row.Scan(
		&ruleID,
		&tenantID,
		&jurisdiction,
		&class,
		pq.Array(&rule.AllowedRegions),
		pq.Array(&rule.BlockedRegions),
		&action,
		&rule.Priority,
		&rule.Active,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return Rule{}, err
	}
	rule.ID = id.RuleID(ruleID)
	rule.TenantID = id.TenantID(tenantID)
	rule.Jurisdiction = id.Jurisdiction(jurisdiction)
	rule.DataClassification = id.DataClassification(class)
	rule.Action = Action(action)
	return rule, nil
}
