package vehicle

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/caarlos0/pilotdash"
	"github.com/stretchr/testify/require"
)

func TestMemoryTrack(t *testing.T) {
	ctx := context.Background()
	track := NewMemoryTrack(3)
	now := time.Now()

	fixes, err := track.Recent(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, fixes)

	for i := 1; i <= 4; i++ {
		require.NoError(t, track.Record(ctx, pilotdash.Position{
			Latitude:  float64(i),
			Longitude: float64(i * 10),
		}, now.Add(time.Duration(i)*time.Second)))
	}

	fixes, err = track.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, fixes, 3)
	require.Equal(t, []float64{4, 3, 2}, []float64{fixes[0].Latitude, fixes[1].Latitude, fixes[2].Latitude})

	fixes, err = track.Recent(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []Fix{{Latitude: 4, Longitude: 40, Time: now.Add(4 * time.Second)}}, fixes)
}

func TestPostgresTrack(t *testing.T) {
	url := os.Getenv("PILOTD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PILOTD_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	track, err := NewPostgresTrack(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = track.Close() })

	at := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
	require.NoError(t, track.Record(ctx, pilotdash.Position{Latitude: 10, Longitude: 20}, at))

	fixes, err := track.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, fixes, 1)
	require.Equal(t, 10.0, fixes[0].Latitude)
	require.Equal(t, 20.0, fixes[0].Longitude)
	require.True(t, at.Equal(fixes[0].Time))
}
