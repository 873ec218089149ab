package main

import (
	"net/url"
	"testing"

	"github.com/caarlos0/pilotdash"
	"github.com/stretchr/testify/require"
)

func TestPageMap(t *testing.T) {
	sdk := &pageSDK{}
	m := sdk.NewMap(pilotdash.MapOptions{
		Center: pilotdash.DefaultCenter,
		Zoom:   pilotdash.DefaultZoom,
		Type:   pilotdash.MapTypeSatellite,
	})
	marker := sdk.NewMarker(m, pilotdash.MarkerOptions{
		Position: pilotdash.DefaultCenter,
		Title:    pilotdash.DefaultTitle,
	})
	require.Len(t, sdk.m.markers, 1)

	u, err := url.Parse(sdk.m.EmbedURL())
	require.NoError(t, err)
	require.Equal(t, "maps.google.com", u.Host)
	require.Equal(t, "37.770000,122.400000", u.Query().Get("q"))
	require.Equal(t, "37.770000,122.400000", u.Query().Get("ll"))
	require.Equal(t, "k", u.Query().Get("t"))
	require.Equal(t, "18", u.Query().Get("z"))

	marker.SetPosition(pilotdash.LatLng{Lat: 10, Lng: 20})
	m.SetCenter(pilotdash.LatLng{Lat: 11, Lng: 21})
	u, err = url.Parse(sdk.m.EmbedURL())
	require.NoError(t, err)
	require.Equal(t, "10.000000,20.000000", u.Query().Get("q"))
	require.Equal(t, "11.000000,21.000000", u.Query().Get("ll"))
}
