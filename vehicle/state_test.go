package vehicle

import (
	"testing"

	"github.com/caarlos0/pilotdash"
	"github.com/stretchr/testify/require"
)

func TestState(t *testing.T) {
	var state State
	require.Equal(t, pilotdash.Status{}, state.Status())
	_, ok := state.Position()
	require.False(t, ok)

	require.True(t, state.SetArmed(true))
	require.False(t, state.SetArmed(true))
	require.True(t, state.Status().Armed)

	state.SetPosition(pilotdash.Position{Latitude: 1, Longitude: 2})
	pos, ok := state.Position()
	require.True(t, ok)
	require.Equal(t, pilotdash.Position{Latitude: 1, Longitude: 2}, pos)
}
