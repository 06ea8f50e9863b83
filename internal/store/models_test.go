package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundingBoxCrossesAntimeridian(t *testing.T) {
	t.Parallel()

	require.False(t, BoundingBox{SWLat: 30, SWLng: 30, NELat: 35, NELng: 40}.CrossesAntimeridian())
	require.True(t, BoundingBox{SWLat: -10, SWLng: 170, NELat: 10, NELng: -170}.CrossesAntimeridian())
}

func TestScrapeJobStatusTerminal(t *testing.T) {
	t.Parallel()

	require.False(t, ScrapeQueued.Terminal())
	require.False(t, ScrapeRunning.Terminal())
	require.True(t, ScrapeSuccess.Terminal())
	require.True(t, ScrapeError.Terminal())
}

func TestUserDeleted(t *testing.T) {
	t.Parallel()

	var u User
	require.False(t, u.Deleted())
	now := u.CreatedAt
	u.DeletedAt = &now
	require.True(t, u.Deleted())
}
