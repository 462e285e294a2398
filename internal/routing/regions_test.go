package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "sovereign/pkg/domain"
)

func TestRegionsFor(t *testing.T) {
	assert.Equal(t, []string{"eu-west-1", "eu-central-1", "eu-north-1"}, RegionsFor(id.JurisdictionEU))

	// Unknown jurisdictions serve from the global pool.
	assert.Equal(t, RegionsFor(id.JurisdictionGlobal), RegionsFor("BR"))
}

func TestFallbackRegion(t *testing.T) {
	t.Run("next region within jurisdiction", func(t *testing.T) {
		fb, err := FallbackRegion(id.JurisdictionEU, "eu-west-1")
		require.NoError(t, err)
		assert.Equal(t, "eu-central-1", fb.Region)
		assert.False(t, fb.CrossJurisdiction)
	})

	t.Run("single-region jurisdiction crosses to global", func(t *testing.T) {
		fb, err := FallbackRegion(id.JurisdictionGB, "eu-west-2")
		require.NoError(t, err)
		assert.Equal(t, "us-east-1", fb.Region)
		assert.True(t, fb.CrossJurisdiction)
	})

	t.Run("failed region is never returned", func(t *testing.T) {
		fb, err := FallbackRegion("SG", "ap-southeast-1")
		require.NoError(t, err)
		assert.NotEqual(t, "ap-southeast-1", fb.Region)
		assert.True(t, fb.CrossJurisdiction)
	})

	t.Run("global pool skips the failed region", func(t *testing.T) {
		fb, err := FallbackRegion(id.JurisdictionGlobal, "us-east-1")
		require.NoError(t, err)
		assert.Equal(t, "eu-west-1", fb.Region)
		assert.False(t, fb.CrossJurisdiction)
	})
}
