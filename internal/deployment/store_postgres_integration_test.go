//go:build integration

package deployment_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"sovereign/internal/deployment"
	id "sovereign/pkg/domain"
	"sovereign/pkg/platform/sentinel"
	"sovereign/pkg/testutil/containers"
)

const deploymentsDDL = `
	CREATE TABLE IF NOT EXISTS deployments (
		id UUID PRIMARY KEY,
		tenant_id UUID NOT NULL,
		model_id TEXT NOT NULL,
		model_version TEXT NOT NULL,
		region TEXT NOT NULL,
		jurisdiction TEXT NOT NULL,
		cluster_name TEXT NOT NULL DEFAULT '',
		namespace TEXT NOT NULL DEFAULT '',
		replicas INT NOT NULL DEFAULT 0,
		cpu_limit TEXT NOT NULL DEFAULT '',
		memory_limit TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		endpoint_url TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)
`

func TestPostgresDeploymentStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	pg.Exec(t, deploymentsDDL)

	store := deployment.NewPostgresStore(pg.DB)
	ctx := context.Background()
	tenant := id.NewTenantID()

	now := time.Now().UTC().Truncate(time.Microsecond)
	d := deployment.Deployment{
		ID:           id.DeploymentID(uuid.New()),
		TenantID:     tenant,
		ModelID:      "llm-7b",
		ModelVersion: "1.2.0",
		Region:       "eu-west-1",
		Jurisdiction: id.JurisdictionEU,
		Resources:    deployment.ResourceConfig{Replicas: 2, CPULimit: "4", MemoryLimit: "16Gi"},
		Status:       deployment.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	t.Run("create and get round-trip", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, d))

		got, err := store.Get(ctx, tenant, d.ID)
		require.NoError(t, err)
		require.Equal(t, d.Resources, got.Resources)
		require.Equal(t, deployment.StatusPending, got.Status)
		require.Equal(t, id.JurisdictionEU, got.Jurisdiction)
	})

	t.Run("duplicate create conflicts", func(t *testing.T) {
		err := store.Create(ctx, d)
		require.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("update persists status and endpoint", func(t *testing.T) {
		updated := d
		updated.Status = deployment.StatusActive
		updated.EndpointURL = "https://llm-7b.eu-west-1.example.com"
		updated.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
		require.NoError(t, store.Update(ctx, updated))

		got, err := store.Get(ctx, tenant, d.ID)
		require.NoError(t, err)
		require.Equal(t, deployment.StatusActive, got.Status)
		require.Equal(t, updated.EndpointURL, got.EndpointURL)
	})

	t.Run("find active matches model and region", func(t *testing.T) {
		got, err := store.FindActive(ctx, tenant, "llm-7b", "eu-west-1")
		require.NoError(t, err)
		require.Equal(t, d.ID, got.ID)

		_, err = store.FindActive(ctx, tenant, "llm-7b", "us-east-1")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list is newest first", func(t *testing.T) {
		second := d
		second.ID = id.DeploymentID(uuid.New())
		second.Region = "eu-central-1"
		second.CreatedAt = now.Add(time.Second)
		require.NoError(t, store.Create(ctx, second))

		deployments, err := store.ListByTenant(ctx, tenant)
		require.NoError(t, err)
		require.Len(t, deployments, 2)
		require.Equal(t, second.ID, deployments[0].ID)
	})

	t.Run("update missing returns not found", func(t *testing.T) {
		missing := d
		missing.ID = id.DeploymentID(uuid.New())
		err := store.Update(ctx, missing)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("tenants are isolated", func(t *testing.T) {
		deployments, err := store.ListByTenant(ctx, id.NewTenantID())
		require.NoError(t, err)
		require.Empty(t, deployments)
	})
}
