package deployment

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

// PostgresStore implements Store against the deployments table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, d Deployment) error {
	query := `
		INSERT INTO deployments (
			id, tenant_id, model_id, model_version, region, jurisdiction,
			cluster_name, namespace, replicas, cpu_limit, memory_limit,
			status, endpoint_url, error_message, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(d.ID),
		uuid.UUID(d.TenantID),
		d.ModelID,
		d.ModelVersion,
		d.Region,
		string(d.Jurisdiction),
		d.ClusterName,
		d.Namespace,
		d.Resources.Replicas,
		d.Resources.CPULimit,
		d.Resources.MemoryLimit,
		string(d.Status),
		d.EndpointURL,
		d.ErrorMessage,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("deployment %s: %w", d.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert deployment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, tenantID id.TenantID, deploymentID id.DeploymentID) (Deployment, error) {
	query := `
		SELECT id, tenant_id, model_id, model_version, region, jurisdiction,
			   cluster_name, namespace, replicas, cpu_limit, memory_limit,
			   status, endpoint_url, error_message, created_at, updated_at
		FROM deployments
		WHERE tenant_id = $1 AND id = $2
	`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(deploymentID))
	d, err := scanDeployment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Deployment{}, fmt.Errorf("deployment %s: %w", deploymentID, sentinel.ErrNotFound)
	}
	if err != nil {
		return Deployment{}, fmt.Errorf("get deployment: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) Update(ctx context.Context, d Deployment) error {
	query := `
		UPDATE deployments
		SET cluster_name = $3, namespace = $4,
			replicas = $5, cpu_limit = $6, memory_limit = $7,
			status = $8, endpoint_url = $9, error_message = $10, updated_at = $11
		WHERE tenant_id = $1 AND id = $2
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(d.TenantID),
		uuid.UUID(d.ID),
		d.ClusterName,
		d.Namespace,
		d.Resources.Replicas,
		d.Resources.CPULimit,
		d.Resources.MemoryLimit,
		string(d.Status),
		d.EndpointURL,
		d.ErrorMessage,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update deployment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update deployment: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("deployment %s: %w", d.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]Deployment, error) {
	query := `
		SELECT id, tenant_id, model_id, model_version, region, jurisdiction,
			   cluster_name, namespace, replicas, cpu_limit, memory_limit,
			   status, endpoint_url, error_message, created_at, updated_at
		FROM deployments
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	defer rows.Close()

	var deployments []Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deployment: %w", err)
		}
		deployments = append(deployments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deployments: %w", err)
	}
	return deployments, nil
}

func (s *PostgresStore) FindActive(ctx context.Context, tenantID id.TenantID, modelID, region string) (Deployment, error) {
	query := `
		SELECT id, tenant_id, model_id, model_version, region, jurisdiction,
			   cluster_name, namespace, replicas, cpu_limit, memory_limit,
			   status, endpoint_url, error_message, created_at, updated_at
		FROM deployments
		WHERE tenant_id = $1 AND model_id = $2 AND region = $3 AND status = $4
		LIMIT 1
	`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), modelID, region, string(StatusActive))
	d, err := scanDeployment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Deployment{}, fmt.Errorf("active deployment of %s in %s: %w", modelID, region, sentinel.ErrNotFound)
	}
	if err != nil {
		return Deployment{}, fmt.Errorf("find active deployment: %w", err)
	}
	return d, nil
}

func scanDeployment(row rowScanner) (Deployment, error) {
	var (
		d            Deployment
		deploymentID uuid.UUID
		tenantID     uuid.UUID
		jurisdiction string
		status       string
	)
	err := row.Scan(
		&deploymentID,
		&tenantID,
		&d.ModelID,
		&d.ModelVersion,
		&d.Region,
		&jurisdiction,
		&d.ClusterName,
		&d.Namespace,
		&d.Resources.Replicas,
		&d.Resources.CPULimit,
		&d.Resources.MemoryLimit,
		&status,
		&d.EndpointURL,
		&d.ErrorMessage,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return Deployment{}, err
	}
	d.ID = id.DeploymentID(deploymentID)
	d.TenantID = id.TenantID(tenantID)
	d.Jurisdiction = id.Jurisdiction(jurisdiction)
	d.Status = Status(status)
	return d, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
